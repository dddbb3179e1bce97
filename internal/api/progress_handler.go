package api

import (
	"net/http"
	"time"

	"physioplan/server/internal/domain"
	"physioplan/server/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgressHandler holds the progress service dependency.
type ProgressHandler struct {
	progressService service.ProgressService
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(progressService service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// --- DTOs ---

// RecordProgressRequest defines the expected JSON for recording progress.
// Target values are not accepted; they come from the exercise definition.
type RecordProgressRequest struct {
	ExerciseID     string  `json:"exerciseId" binding:"required"`
	Date           string  `json:"date" binding:"required"`
	Completed      bool    `json:"completed"`
	ActualSets     int     `json:"actualSets" binding:"omitempty,gte=0"`
	ActualReps     int     `json:"actualReps" binding:"omitempty,gte=0"`
	ActualDuration int     `json:"actualDuration" binding:"omitempty,gte=0"`
	Weight         float64 `json:"weight" binding:"omitempty,gte=0"`
	Feedback       string  `json:"feedback"`
}

// ProgressResponse is the DTO for returning a progress record.
type ProgressResponse struct {
	ID             string                  `json:"id"`
	PatientID      string                  `json:"patientId"`
	ExerciseID     string                  `json:"exerciseId"`
	Date           string                  `json:"date"`
	ExerciseName   string                  `json:"exerciseName"`
	Category       domain.ExerciseCategory `json:"category"`
	Completed      bool                    `json:"completed"`
	ActualSets     int                     `json:"actualSets,omitempty"`
	ActualReps     int                     `json:"actualReps,omitempty"`
	ActualDuration int                     `json:"actualDuration,omitempty"`
	Weight         float64                 `json:"weight,omitempty"`
	Feedback       string                  `json:"feedback,omitempty"`
	TargetSets     int                     `json:"targetSets,omitempty"`
	TargetReps     int                     `json:"targetReps,omitempty"`
	TargetDuration int                     `json:"targetDuration,omitempty"`
	CreatedAt      time.Time               `json:"createdAt"`
	UpdatedAt      time.Time               `json:"updatedAt"`
}

// MapProgressToResponse converts a domain.ExerciseProgress to its DTO.
func MapProgressToResponse(p *domain.ExerciseProgress) ProgressResponse {
	if p == nil {
		return ProgressResponse{}
	}
	return ProgressResponse{
		ID:             p.ID.Hex(),
		PatientID:      p.PatientID.Hex(),
		ExerciseID:     p.ExerciseID.Hex(),
		Date:           p.Date,
		ExerciseName:   p.ExerciseName,
		Category:       p.Category,
		Completed:      p.Completed,
		ActualSets:     p.ActualSets,
		ActualReps:     p.ActualReps,
		ActualDuration: p.ActualDuration,
		Weight:         p.Weight,
		Feedback:       p.Feedback,
		TargetSets:     p.TargetSets,
		TargetReps:     p.TargetReps,
		TargetDuration: p.TargetDuration,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// MapProgressListToResponse converts a slice of progress records to DTOs.
func MapProgressListToResponse(records []domain.ExerciseProgress) []ProgressResponse {
	responses := make([]ProgressResponse, len(records))
	for i := range records {
		responses[i] = MapProgressToResponse(&records[i])
	}
	return responses
}

// --- Handler Methods ---

// RecordProgress godoc
// @Summary Record how an exercise was performed
// @Description Inserts or updates the record for the (patient, exercise, date)
// @Description triple. Target values are copied from the exercise definition.
// @Tags Progress
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Param progress body RecordProgressRequest true "Performance details"
// @Success 200 {object} ProgressResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Router /patients/{id}/progress [put]
func (h *ProgressHandler) RecordProgress(c *gin.Context) {
	var req RecordProgressRequest
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

	progress, err := h.progressService.RecordProgress(c.Request.Context(), principal, patientID, service.RecordProgressInput{
		ExerciseID:     exerciseID,
		Date:           req.Date,
		Completed:      req.Completed,
		ActualSets:     req.ActualSets,
		ActualReps:     req.ActualReps,
		ActualDuration: req.ActualDuration,
		Weight:         req.Weight,
		Feedback:       req.Feedback,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProgressToResponse(progress))
}

// GetProgress godoc
// @Summary Get a patient's progress history
// @Description Returns the full history, or a single date's records when the
// @Description date query parameter is present.
// @Tags Progress
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Success 200 {array} ProgressResponse
// @Router /patients/{id}/progress [get]
func (h *ProgressHandler) GetProgress(c *gin.Context) {
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

	var records []domain.ExerciseProgress
	if date := c.Query("date"); date != "" {
		records, err = h.progressService.GetProgressForDate(c.Request.Context(), principal, patientID, date)
	} else {
		records, err = h.progressService.GetProgressForPatient(c.Request.Context(), principal, patientID)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProgressListToResponse(records))
}
