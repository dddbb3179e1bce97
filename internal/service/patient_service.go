package service

import (
	"context"
	"errors"

	"physioplan/server/internal/domain"
	"physioplan/server/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrPatientAccessDenied = errors.New("access denied to this patient")
	ErrUserNotFound        = errors.New("user account not found")
	ErrUserNotClient       = errors.New("user account is not a client")
	ErrValidationFailed    = errors.New("validation failed")
)

// PatientService manages a coach's patient records.
type PatientService interface {
	CreatePatient(ctx context.Context, principal Principal, patient *domain.Patient) (*domain.Patient, error)
	GetPatient(ctx context.Context, principal Principal, patientID primitive.ObjectID) (*domain.Patient, error)
	GetPatientsByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Patient, error)
	// GetOwnPatient resolves the patient record linked to a client account.
	GetOwnPatient(ctx context.Context, principal Principal) (*domain.Patient, error)
	UpdatePatient(ctx context.Context, principal Principal, patient *domain.Patient) (*domain.Patient, error)
	DeletePatient(ctx context.Context, principal Principal, patientID primitive.ObjectID) error
	// LinkClientAccount connects an existing client user (by email) to one
	// of the coach's patient records.
	LinkClientAccount(ctx context.Context, principal Principal, patientID primitive.ObjectID, clientEmail string) (*domain.Patient, error)
}

// patientService implements the PatientService interface.
type patientService struct {
	patientRepo repository.PatientRepository
	userRepo    repository.UserRepository
}

// NewPatientService creates a new instance of patientService.
func NewPatientService(patientRepo repository.PatientRepository, userRepo repository.UserRepository) PatientService {
	return &patientService{
		patientRepo: patientRepo,
		userRepo:    userRepo,
	}
}

// CreatePatient creates a new patient record owned by the acting coach.
func (s *patientService) CreatePatient(ctx context.Context, principal Principal, patient *domain.Patient) (*domain.Patient, error) {
	if patient.Name == "" || patient.Surname == "" {
		return nil, ErrValidationFailed
	}

	// The acting coach becomes the owner; admins may create on behalf of a
	// coach by presetting CoachID.
	if patient.CoachID == primitive.NilObjectID || principal.Role != domain.RoleAdmin {
		patient.CoachID = principal.ID
	}
	if !CanPerform(principal, ActionEdit, ResourceForPatient(patient)) {
		return nil, ErrPatientAccessDenied
	}

	patientID, err := s.patientRepo.Create(ctx, patient)
	if err != nil {
		return nil, err
	}
	return s.patientRepo.GetByID(ctx, patientID)
}

// GetPatient retrieves one patient, enforcing ownership or client linkage.
func (s *patientService) GetPatient(ctx context.Context, principal Principal, patientID primitive.ObjectID) (*domain.Patient, error) {
	patient, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	if !CanPerform(principal, ActionView, ResourceForPatient(patient)) {
		return nil, ErrPatientAccessDenied
	}
	return patient, nil
}

// GetPatientsByCoach retrieves all patients owned by a coach.
func (s *patientService) GetPatientsByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Patient, error) {
	if coachID == primitive.NilObjectID {
		return nil, errors.New("coach ID is required")
	}
	return s.patientRepo.GetByCoachID(ctx, coachID)
}

// GetOwnPatient resolves the patient record linked to the acting client.
func (s *patientService) GetOwnPatient(ctx context.Context, principal Principal) (*domain.Patient, error) {
	patient, err := s.patientRepo.GetByLinkedUserID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return patient, nil
}

// UpdatePatient modifies a patient record, enforcing ownership.
func (s *patientService) UpdatePatient(ctx context.Context, principal Principal, patient *domain.Patient) (*domain.Patient, error) {
	if patient.ID == primitive.NilObjectID {
		return nil, errors.New("patient ID is required")
	}
	if patient.Name == "" || patient.Surname == "" {
		return nil, ErrValidationFailed
	}

	existing, err := s.patientRepo.GetByID(ctx, patient.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	if !CanPerform(principal, ActionEdit, ResourceForPatient(existing)) {
		return nil, ErrPatientAccessDenied
	}

	// Ownership and linkage are managed through dedicated operations.
	patient.CoachID = existing.CoachID
	patient.LinkedUserID = existing.LinkedUserID

	if err := s.patientRepo.Update(ctx, patient); err != nil {
		return nil, err
	}
	return s.patientRepo.GetByID(ctx, patient.ID)
}

// DeletePatient removes a patient record, enforcing ownership.
func (s *patientService) DeletePatient(ctx context.Context, principal Principal, patientID primitive.ObjectID) error {
	patient, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPatientNotFound
		}
		return err
	}
	if !CanPerform(principal, ActionDelete, ResourceForPatient(patient)) {
		return ErrPatientAccessDenied
	}
	return s.patientRepo.Delete(ctx, patientID, patient.CoachID)
}

// LinkClientAccount connects a client user account to a patient record so the
// client can see their own plan and record progress.
func (s *patientService) LinkClientAccount(ctx context.Context, principal Principal, patientID primitive.ObjectID, clientEmail string) (*domain.Patient, error) {
	if clientEmail == "" {
		return nil, ErrValidationFailed
	}

	patient, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	if !CanPerform(principal, ActionEdit, ResourceForPatient(patient)) {
		return nil, ErrPatientAccessDenied
	}

	user, err := s.userRepo.GetByEmail(ctx, clientEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Role != domain.RoleClient {
		return nil, ErrUserNotClient
	}

	patient.LinkedUserID = &user.ID
	if err := s.patientRepo.Update(ctx, patient); err != nil {
		return nil, err
	}
	if err := s.userRepo.SetPatientLink(ctx, user.ID, patient.ID); err != nil {
		return nil, err
	}
	return patient, nil
}
