package api

import (
	"net/http"
	"time"

	"physioplan/server/internal/domain"
	"physioplan/server/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PatientHandler holds the patient service dependency.
type PatientHandler struct {
	patientService service.PatientService
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(patientService service.PatientService) *PatientHandler {
	return &PatientHandler{patientService: patientService}
}

// --- DTOs ---

// PatientRequest defines the expected JSON for creating/updating a patient.
type PatientRequest struct {
	Name         string              `json:"name" binding:"required"`
	Surname      string              `json:"surname" binding:"required"`
	Age          int                 `json:"age" binding:"required,gt=0"`
	Weight       float64             `json:"weight" binding:"omitempty,gt=0"`
	Height       float64             `json:"height" binding:"omitempty,gt=0"`
	FitnessLevel domain.FitnessLevel `json:"fitnessLevel" binding:"required,oneof=beginner intermediate advanced"`
	Limitations  []string            `json:"limitations"`
	Notes        string              `json:"notes"`
}

// LinkClientRequest connects a client account to a patient record.
type LinkClientRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// PatientResponse is the DTO for returning patient details.
type PatientResponse struct {
	ID           string              `json:"id"`
	CoachID      string              `json:"coachId"`
	Name         string              `json:"name"`
	Surname      string              `json:"surname"`
	Age          int                 `json:"age"`
	Weight       float64             `json:"weight,omitempty"`
	Height       float64             `json:"height,omitempty"`
	FitnessLevel domain.FitnessLevel `json:"fitnessLevel"`
	Limitations  []string            `json:"limitations,omitempty"`
	Notes        string              `json:"notes,omitempty"`
	LinkedUserID string              `json:"linkedUserId,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// MapPatientToResponse converts a domain.Patient to PatientResponse DTO.
func MapPatientToResponse(p *domain.Patient) PatientResponse {
	if p == nil {
		return PatientResponse{}
	}
	resp := PatientResponse{
		ID:           p.ID.Hex(),
		CoachID:      p.CoachID.Hex(),
		Name:         p.Name,
		Surname:      p.Surname,
		Age:          p.Age,
		Weight:       p.Weight,
		Height:       p.Height,
		FitnessLevel: p.FitnessLevel,
		Limitations:  p.Limitations,
		Notes:        p.Notes,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.LinkedUserID != nil {
		resp.LinkedUserID = p.LinkedUserID.Hex()
	}
	return resp
}

// MapPatientsToResponse converts a slice of domain.Patient to response DTOs.
func MapPatientsToResponse(patients []domain.Patient) []PatientResponse {
	responses := make([]PatientResponse, len(patients))
	for i := range patients {
		responses[i] = MapPatientToResponse(&patients[i])
	}
	return responses
}

// --- Handler Methods ---

// CreatePatient godoc
// @Summary Create a patient record
// @Tags Patients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param patient body PatientRequest true "Patient details"
// @Success 201 {object} PatientResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Router /patients [post]
func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var req PatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	principal, err := principalFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	patient, err := h.patientService.CreatePatient(c.Request.Context(), principal, &domain.Patient{
		Name:         req.Name,
		Surname:      req.Surname,
		Age:          req.Age,
		Weight:       req.Weight,
		Height:       req.Height,
		FitnessLevel: req.FitnessLevel,
		Limitations:  req.Limitations,
		Notes:        req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapPatientToResponse(patient))
}

// GetPatients godoc
// @Summary List the acting coach's patients
// @Tags Patients
// @Produce json
// @Security BearerAuth
// @Success 200 {array} PatientResponse
// @Router /patients [get]
func (h *PatientHandler) GetPatients(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	patients, err := h.patientService.GetPatientsByCoach(c.Request.Context(), principal.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPatientsToResponse(patients))
}

// GetPatient godoc
// @Summary Get one patient
// @Tags Patients
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Success 200 {object} PatientResponse
// @Failure 404 {object} gin.H "Not found"
// @Router /patients/{id} [get]
func (h *PatientHandler) GetPatient(c *gin.Context) {
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

	patient, err := h.patientService.GetPatient(c.Request.Context(), principal, patientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPatientToResponse(patient))
}

// GetOwnPatient godoc
// @Summary Get the patient record linked to the acting client account
// @Tags Patients
// @Produce json
// @Security BearerAuth
// @Success 200 {object} PatientResponse
// @Failure 404 {object} gin.H "No linked record"
// @Router /patients/me [get]
func (h *PatientHandler) GetOwnPatient(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	patient, err := h.patientService.GetOwnPatient(c.Request.Context(), principal)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPatientToResponse(patient))
}

// UpdatePatient godoc
// @Summary Update a patient record
// @Tags Patients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Param patient body PatientRequest true "Patient details"
// @Success 200 {object} PatientResponse
// @Failure 403 {object} gin.H "Not the owning coach"
// @Router /patients/{id} [put]
func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	var req PatientRequest
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

	patient, err := h.patientService.UpdatePatient(c.Request.Context(), principal, &domain.Patient{
		ID:           patientID,
		Name:         req.Name,
		Surname:      req.Surname,
		Age:          req.Age,
		Weight:       req.Weight,
		Height:       req.Height,
		FitnessLevel: req.FitnessLevel,
		Limitations:  req.Limitations,
		Notes:        req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPatientToResponse(patient))
}

// DeletePatient godoc
// @Summary Delete a patient record
// @Tags Patients
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Success 204 "Deleted"
// @Failure 404 {object} gin.H "Not found"
// @Router /patients/{id} [delete]
func (h *PatientHandler) DeletePatient(c *gin.Context) {
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

	if err := h.patientService.DeletePatient(c.Request.Context(), principal, patientID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LinkClientAccount godoc
// @Summary Link a client account to a patient record
// @Tags Patients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Param link body LinkClientRequest true "Client account email"
// @Success 200 {object} PatientResponse
// @Failure 404 {object} gin.H "Patient or account not found"
// @Router /patients/{id}/link [post]
func (h *PatientHandler) LinkClientAccount(c *gin.Context) {
	var req LinkClientRequest
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

	patient, err := h.patientService.LinkClientAccount(c.Request.Context(), principal, patientID, req.Email)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPatientToResponse(patient))
}
