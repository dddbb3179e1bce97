package api

import (
	"net/http"

	"physioplan/server/internal/domain"
	"physioplan/server/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleHandler holds the schedule service dependency.
type ScheduleHandler struct {
	scheduleService service.ScheduleService
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(scheduleService service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// --- DTOs ---

// AssignExerciseRequest defines the expected JSON for scheduling an exercise.
type AssignExerciseRequest struct {
	ExerciseID string `json:"exerciseId" binding:"required"`
	Date       string `json:"date" binding:"required"`
	TimeSlot   string `json:"timeSlot" binding:"required"`
	Notes      string `json:"notes"`
}

// SetCompletedRequest flips the completion flag on a schedule entry.
type SetCompletedRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// AvailableSlotsResponse lists the slots still free for a patient and date.
type AvailableSlotsResponse struct {
	Date           string   `json:"date"`
	AvailableSlots []string `json:"availableSlots"`
}

// ScheduledExerciseResponse is the DTO for one assembled schedule entry.
type ScheduledExerciseResponse struct {
	ID         string           `json:"id"`
	PatientID  string           `json:"patientId"`
	ExerciseID string           `json:"exerciseId"`
	Exercise   ExerciseResponse `json:"exercise"`
	Date       string           `json:"date"`
	Day        domain.WeekDay   `json:"day"`
	TimeSlot   domain.TimeSlot  `json:"timeSlot"`
	Notes      string           `json:"notes,omitempty"`
	Completed  bool             `json:"completed"`
}

// PatientDayActivityResponse is one weekly roster entry.
type PatientDayActivityResponse struct {
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName"`
	Count       int    `json:"count"`
}

// MapScheduledViewToResponse converts a domain view model to its DTO.
func MapScheduledViewToResponse(v *domain.ScheduledExerciseView) ScheduledExerciseResponse {
	if v == nil {
		return ScheduledExerciseResponse{}
	}
	return ScheduledExerciseResponse{
		ID:         v.ID.Hex(),
		PatientID:  v.PatientID.Hex(),
		ExerciseID: v.ExerciseID.Hex(),
		Exercise:   MapExerciseToResponse(&v.Exercise),
		Date:       v.Date,
		Day:        v.Day,
		TimeSlot:   v.TimeSlot,
		Notes:      v.Notes,
		Completed:  v.Completed,
	}
}

// MapScheduledViewsToResponse converts a slice of view models to DTOs.
func MapScheduledViewsToResponse(views []domain.ScheduledExerciseView) []ScheduledExerciseResponse {
	responses := make([]ScheduledExerciseResponse, len(views))
	for i := range views {
		responses[i] = MapScheduledViewToResponse(&views[i])
	}
	return responses
}

// MapRosterToResponse converts the roster aggregation to its DTO form.
func MapRosterToResponse(roster map[string][]domain.PatientDayActivity) map[string][]PatientDayActivityResponse {
	out := make(map[string][]PatientDayActivityResponse, len(roster))
	for date, entries := range roster {
		converted := make([]PatientDayActivityResponse, len(entries))
		for i, entry := range entries {
			converted[i] = PatientDayActivityResponse{
				PatientID:   entry.PatientID.Hex(),
				PatientName: entry.PatientName,
				Count:       entry.Count,
			}
		}
		out[date] = converted
	}
	return out
}

// --- Handler Methods ---

// GetAvailableSlots godoc
// @Summary List free time slots for a patient on a date
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} AvailableSlotsResponse
// @Failure 400 {object} gin.H "Malformed date"
// @Router /patients/{id}/slots [get]
func (h *ScheduleHandler) GetAvailableSlots(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}
	patientID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid patient ID format.")
		return
	}
	date := c.Query("date")

	slots, err := h.scheduleService.AvailableSlots(c.Request.Context(), principal, patientID, date)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, AvailableSlotsResponse{Date: date, AvailableSlots: slots})
}

// AssignExercise godoc
// @Summary Schedule an exercise for a patient
// @Description Attaches an exercise to the patient at date and time slot. The
// @Description patient's plan container is created automatically on first use.
// @Tags Schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Param assignment body AssignExerciseRequest true "Assignment details"
// @Success 201 {object} ScheduledExerciseResponse
// @Failure 409 {object} gin.H "Slot already booked"
// @Router /patients/{id}/schedule [post]
func (h *ScheduleHandler) AssignExercise(c *gin.Context) {
	var req AssignExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	principal, err := principalFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}
	patientID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid patient ID format.")
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(req.ExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
		return
	}

	view, err := h.scheduleService.AssignExercise(c.Request.Context(), principal, patientID, exerciseID, req.Date, req.TimeSlot, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapScheduledViewToResponse(view))
}

// GetPatientSchedule godoc
// @Summary Get a patient's full schedule
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Success 200 {array} ScheduledExerciseResponse
// @Router /patients/{id}/schedule [get]
func (h *ScheduleHandler) GetPatientSchedule(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}
	patientID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid patient ID format.")
		return
	}

	views, err := h.scheduleService.ScheduledForPatient(c.Request.Context(), principal, patientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapScheduledViewsToResponse(views))
}

// GetDaySchedule godoc
// @Summary Get everything scheduled across the coach's patients on one date
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {array} ScheduledExerciseResponse
// @Router /schedule/day [get]
func (h *ScheduleHandler) GetDaySchedule(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	views, err := h.scheduleService.ScheduledForDate(c.Request.Context(), principal.ID, c.Query("date"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapScheduledViewsToResponse(views))
}

// GetWeeklyRoster godoc
// @Summary Get the per-day patient roster for a date range
// @Description Maps each date in the range to the patients with scheduled
// @Description exercises that day and how many, in first-seen order.
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param start query string true "Range start (YYYY-MM-DD)"
// @Param end query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} map[string][]PatientDayActivityResponse
// @Router /schedule/roster [get]
func (h *ScheduleHandler) GetWeeklyRoster(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	roster, err := h.scheduleService.WeeklyRoster(c.Request.Context(), principal.ID, c.Query("start"), c.Query("end"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapRosterToResponse(roster))
}

// RemoveScheduled godoc
// @Summary Remove one schedule entry
// @Description Progress records already made for the same exercise and date
// @Description are kept; they are history.
// @Tags Schedule
// @Security BearerAuth
// @Param id path string true "Scheduled exercise ID"
// @Success 204 "Removed"
// @Failure 404 {object} gin.H "Not found"
// @Router /schedule/{id} [delete]
func (h *ScheduleHandler) RemoveScheduled(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}
	scheduledID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid schedule entry ID format.")
		return
	}

	if err := h.scheduleService.RemoveScheduled(c.Request.Context(), principal, scheduledID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetCompleted godoc
// @Summary Mark a schedule entry completed or not completed
// @Tags Schedule
// @Accept json
// @Security BearerAuth
// @Param id path string true "Scheduled exercise ID"
// @Param completion body SetCompletedRequest true "Completion flag"
// @Success 204 "Updated"
// @Failure 404 {object} gin.H "Not found"
// @Router /schedule/{id}/completed [patch]
func (h *ScheduleHandler) SetCompleted(c *gin.Context) {
	var req SetCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	principal, err := principalFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}
	scheduledID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid schedule entry ID format.")
		return
	}

	if err := h.scheduleService.SetCompleted(c.Request.Context(), principal, scheduledID, *req.Completed); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
