package service

import (
	"context"
	"errors"

	"physioplan/server/internal/domain"
	"physioplan/server/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrProgressAccessDenied = errors.New("access denied to this patient's progress")

// RecordProgressInput carries the client-reported performance of one
// exercise on one date. Target values are not accepted from the caller;
// they are copied from the Exercise at record time.
type RecordProgressInput struct {
	ExerciseID     primitive.ObjectID
	Date           string
	Completed      bool
	ActualSets     int
	ActualReps     int
	ActualDuration int
	Weight         float64
	Feedback       string
}

// ProgressService tracks how assigned exercises were actually performed.
// Records are history: they survive deletion of the schedule entry or
// exercise they came from.
type ProgressService interface {
	RecordProgress(ctx context.Context, principal Principal, patientID primitive.ObjectID, input RecordProgressInput) (*domain.ExerciseProgress, error)
	GetProgressForPatient(ctx context.Context, principal Principal, patientID primitive.ObjectID) ([]domain.ExerciseProgress, error)
	GetProgressForDate(ctx context.Context, principal Principal, patientID primitive.ObjectID, date string) ([]domain.ExerciseProgress, error)
}

// progressService implements the ProgressService interface.
type progressService struct {
	progressRepo  repository.ProgressRepository
	patientRepo   repository.PatientRepository
	exerciseRepo  repository.ExerciseRepository
	planRepo      repository.PlanRepository
	scheduledRepo repository.ScheduledExerciseRepository
}

// NewProgressService creates a new instance of progressService.
func NewProgressService(
	progressRepo repository.ProgressRepository,
	patientRepo repository.PatientRepository,
	exerciseRepo repository.ExerciseRepository,
	planRepo repository.PlanRepository,
	scheduledRepo repository.ScheduledExerciseRepository,
) ProgressService {
	return &progressService{
		progressRepo:  progressRepo,
		patientRepo:   patientRepo,
		exerciseRepo:  exerciseRepo,
		planRepo:      planRepo,
		scheduledRepo: scheduledRepo,
	}
}

// RecordProgress inserts or updates the record for (patient, exercise, date),
// copying the target values from the exercise definition so later comparisons
// do not depend on the exercise staying unchanged.
func (s *progressService) RecordProgress(ctx context.Context, principal Principal, patientID primitive.ObjectID, input RecordProgressInput) (*domain.ExerciseProgress, error) {
	if input.ExerciseID == primitive.NilObjectID {
		return nil, ErrMissingSelection
	}
	if _, err := domain.ParseDate(input.Date); err != nil {
		return nil, ErrInvalidDate
	}

	patient, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	if !CanPerform(principal, ActionRecordProgress, ResourceForPatient(patient)) {
		return nil, ErrProgressAccessDenied
	}

	exercise, err := s.exerciseRepo.GetByID(ctx, input.ExerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	progress := &domain.ExerciseProgress{
		PatientID:      patientID,
		ExerciseID:     exercise.ID,
		Date:           input.Date,
		ExerciseName:   exercise.Name,
		Category:       exercise.Category,
		Completed:      input.Completed,
		ActualSets:     input.ActualSets,
		ActualReps:     input.ActualReps,
		ActualDuration: input.ActualDuration,
		Weight:         input.Weight,
		Feedback:       input.Feedback,
		TargetSets:     exercise.Parameters.Sets,
		TargetReps:     exercise.Parameters.Repetitions,
		TargetDuration: exercise.Parameters.Duration,
	}

	if _, err := s.progressRepo.Upsert(ctx, progress); err != nil {
		return nil, err
	}

	// Keep the calendar in step: the schedule entry for the same exercise
	// and date mirrors the completion flag. Best-effort; a record without a
	// schedule entry (or one whose entry was removed) is still valid history.
	s.syncScheduleCompletion(ctx, patientID, input.ExerciseID, input.Date, input.Completed)

	return progress, nil
}

func (s *progressService) syncScheduleCompletion(ctx context.Context, patientID, exerciseID primitive.ObjectID, date string, completed bool) {
	plan, err := s.planRepo.GetByPatientID(ctx, patientID)
	if err != nil {
		return
	}
	rows, err := s.scheduledRepo.GetByPlanIDAndDate(ctx, plan.ID, date)
	if err != nil {
		return
	}
	for i := range rows {
		if rows[i].ExerciseID == exerciseID {
			_ = s.scheduledRepo.SetCompleted(ctx, rows[i].ID, completed)
		}
	}
}

// GetProgressForPatient returns a patient's full progress history.
func (s *progressService) GetProgressForPatient(ctx context.Context, principal Principal, patientID primitive.ObjectID) ([]domain.ExerciseProgress, error) {
	patient, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	if !CanPerform(principal, ActionView, ResourceForPatient(patient)) {
		return nil, ErrProgressAccessDenied
	}
	return s.progressRepo.GetByPatientID(ctx, patientID)
}

// GetProgressForDate returns a patient's progress records for one date.
func (s *progressService) GetProgressForDate(ctx context.Context, principal Principal, patientID primitive.ObjectID, date string) ([]domain.ExerciseProgress, error) {
	if _, err := domain.ParseDate(date); err != nil {
		return nil, ErrInvalidDate
	}

	patient, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	if !CanPerform(principal, ActionView, ResourceForPatient(patient)) {
		return nil, ErrProgressAccessDenied
	}
	return s.progressRepo.GetByPatientIDAndDate(ctx, patientID, date)
}
