package api

import (
	"net/http"
	"time"

	"physioplan/server/internal/domain"
	"physioplan/server/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseHandler holds the exercise service dependency.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(exerciseService service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService}
}

// --- DTOs ---

// ExerciseRequest defines the expected JSON for creating/updating an exercise.
type ExerciseRequest struct {
	Name        string                    `json:"name" binding:"required"`
	Description string                    `json:"description"`
	Category    domain.ExerciseCategory   `json:"category" binding:"required,oneof=strength cardio flexibility balance rehabilitation"`
	Difficulty  domain.Difficulty         `json:"difficulty" binding:"required,oneof=easy medium hard"`
	Parameters  domain.ExerciseParameters `json:"parameters"`
	Notes       string                    `json:"notes"`
}

// MediaUploadRequest carries the content type of the media about to be uploaded.
type MediaUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// ExerciseResponse is the DTO for returning exercise details.
type ExerciseResponse struct {
	ID          string                    `json:"id"`
	CoachID     string                    `json:"coachId,omitempty"` // Empty for system defaults
	Name        string                    `json:"name"`
	Description string                    `json:"description,omitempty"`
	Category    domain.ExerciseCategory   `json:"category"`
	Difficulty  domain.Difficulty         `json:"difficulty"`
	Parameters  domain.ExerciseParameters `json:"parameters"`
	Notes       string                    `json:"notes,omitempty"`
	HasMedia    bool                      `json:"hasMedia"`
	IsDefault   bool                      `json:"isDefault"`
	CreatedAt   time.Time                 `json:"createdAt"`
	UpdatedAt   time.Time                 `json:"updatedAt"`
}

// MediaUploadResponse returns the presigned PUT URL and the stored object key.
type MediaUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// MediaDownloadResponse returns the presigned GET URL for exercise media.
type MediaDownloadResponse struct {
	DownloadURL string `json:"downloadUrl"`
}

// MapExerciseToResponse converts a domain.Exercise to ExerciseResponse DTO.
func MapExerciseToResponse(e *domain.Exercise) ExerciseResponse {
	if e == nil {
		return ExerciseResponse{}
	}
	resp := ExerciseResponse{
		ID:          e.ID.Hex(),
		Name:        e.Name,
		Description: e.Description,
		Category:    e.Category,
		Difficulty:  e.Difficulty,
		Parameters:  e.Parameters,
		Notes:       e.Notes,
		HasMedia:    e.MediaKey != "",
		IsDefault:   e.IsDefault(),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.CoachID != nil {
		resp.CoachID = e.CoachID.Hex()
	}
	return resp
}

// MapExercisesToResponse converts a slice of domain.Exercise to response DTOs.
func MapExercisesToResponse(exercises []domain.Exercise) []ExerciseResponse {
	responses := make([]ExerciseResponse, len(exercises))
	for i := range exercises {
		responses[i] = MapExerciseToResponse(&exercises[i])
	}
	return responses
}

// --- Handler Methods ---

// CreateExercise godoc
// @Summary Create an exercise in the library
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exercise body ExerciseRequest true "Exercise details"
// @Success 201 {object} ExerciseResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Router /exercises [post]
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	principal, err := principalFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	exercise, err := h.exerciseService.CreateExercise(c.Request.Context(), principal, &domain.Exercise{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Difficulty:  req.Difficulty,
		Parameters:  req.Parameters,
		Notes:       req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapExerciseToResponse(exercise))
}

// GetExercises godoc
// @Summary List exercises visible to the acting coach
// @Description Returns the coach's own exercises plus the shared system defaults.
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ExerciseResponse
// @Router /exercises [get]
func (h *ExerciseHandler) GetExercises(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	exercises, err := h.exerciseService.GetExercisesForCoach(c.Request.Context(), principal.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExercisesToResponse(exercises))
}

// GetExercise godoc
// @Summary Get one exercise
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Success 200 {object} ExerciseResponse
// @Failure 404 {object} gin.H "Not found"
// @Router /exercises/{id} [get]
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
		return
	}

	exercise, err := h.exerciseService.GetExerciseByID(c.Request.Context(), principal, exerciseID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// UpdateExercise godoc
// @Summary Update an exercise
// @Description System defaults are editable only by admins.
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Param exercise body ExerciseRequest true "Exercise details"
// @Success 200 {object} ExerciseResponse
// @Failure 403 {object} gin.H "Not the owner"
// @Router /exercises/{id} [put]
func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	principal, err := principalFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
		return
	}

	exercise, err := h.exerciseService.UpdateExercise(c.Request.Context(), principal, &domain.Exercise{
		ID:          exerciseID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Difficulty:  req.Difficulty,
		Parameters:  req.Parameters,
		Notes:       req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// DeleteExercise godoc
// @Summary Delete an exercise
// @Description Rejected while any scheduled entry still references the exercise.
// @Tags Exercises
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Success 204 "Deleted"
// @Failure 409 {object} gin.H "Exercise still in use"
// @Router /exercises/{id} [delete]
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
		return
	}

	if err := h.exerciseService.DeleteExercise(c.Request.Context(), principal, exerciseID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetMediaUploadURL godoc
// @Summary Get a presigned URL for uploading exercise media
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Param media body MediaUploadRequest true "Media content type"
// @Success 200 {object} MediaUploadResponse
// @Router /exercises/{id}/media [post]
func (h *ExerciseHandler) GetMediaUploadURL(c *gin.Context) {
	var req MediaUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	principal, err := principalFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
		return
	}

	uploadURL, objectKey, err := h.exerciseService.GetMediaUploadURL(c.Request.Context(), principal, exerciseID, req.ContentType)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MediaUploadResponse{UploadURL: uploadURL, ObjectKey: objectKey})
}

// GetMediaDownloadURL godoc
// @Summary Get a presigned URL for viewing exercise media
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Success 200 {object} MediaDownloadResponse
// @Failure 404 {object} gin.H "No media attached"
// @Router /exercises/{id}/media [get]
func (h *ExerciseHandler) GetMediaDownloadURL(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
		return
	}

	downloadURL, err := h.exerciseService.GetMediaDownloadURL(c.Request.Context(), principal, exerciseID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MediaDownloadResponse{DownloadURL: downloadURL})
}
