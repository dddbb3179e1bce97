package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"physioplan/server/internal/domain"
	"physioplan/server/internal/repository"
	"physioplan/server/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound     = errors.New("exercise not found")
	ErrExerciseAccessDenied = errors.New("access denied to modify or delete this exercise")
	ErrExerciseInUse        = errors.New("exercise is referenced by scheduled entries and cannot be deleted")
)

// ExerciseService manages the exercise library: system defaults shared by
// every coach plus each coach's own definitions.
type ExerciseService interface {
	CreateExercise(ctx context.Context, principal Principal, exercise *domain.Exercise) (*domain.Exercise, error)
	GetExerciseByID(ctx context.Context, principal Principal, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	GetExercisesForCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Exercise, error)
	UpdateExercise(ctx context.Context, principal Principal, exercise *domain.Exercise) (*domain.Exercise, error)
	DeleteExercise(ctx context.Context, principal Principal, exerciseID primitive.ObjectID) error

	// Demonstration media, stored as presign-only objects.
	GetMediaUploadURL(ctx context.Context, principal Principal, exerciseID primitive.ObjectID, contentType string) (uploadURL, objectKey string, err error)
	GetMediaDownloadURL(ctx context.Context, principal Principal, exerciseID primitive.ObjectID) (string, error)
}

// exerciseService implements the ExerciseService interface.
type exerciseService struct {
	exerciseRepo  repository.ExerciseRepository
	scheduledRepo repository.ScheduledExerciseRepository
	fileStorage   storage.FileStorage
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(
	exerciseRepo repository.ExerciseRepository,
	scheduledRepo repository.ScheduledExerciseRepository,
	fileStorage storage.FileStorage,
) ExerciseService {
	return &exerciseService{
		exerciseRepo:  exerciseRepo,
		scheduledRepo: scheduledRepo,
		fileStorage:   fileStorage,
	}
}

// CreateExercise adds an exercise to the library. Coaches create exercises
// they own; admins may create system defaults by leaving CoachID nil.
func (s *exerciseService) CreateExercise(ctx context.Context, principal Principal, exercise *domain.Exercise) (*domain.Exercise, error) {
	if exercise.Name == "" {
		return nil, ErrValidationFailed
	}
	if !domain.ValidCategory(exercise.Category) || !domain.ValidDifficulty(exercise.Difficulty) {
		return nil, ErrValidationFailed
	}

	if principal.Role != domain.RoleAdmin {
		// Non-admins always own what they create.
		id := principal.ID
		exercise.CoachID = &id
	}

	exerciseID, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	return s.exerciseRepo.GetByID(ctx, exerciseID)
}

// GetExerciseByID retrieves a single exercise visible to the principal.
func (s *exerciseService) GetExerciseByID(ctx context.Context, principal Principal, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if !CanPerform(principal, ActionView, ResourceForExercise(exercise)) {
		return nil, ErrExerciseAccessDenied
	}
	return exercise, nil
}

// GetExercisesForCoach retrieves the coach's exercises plus system defaults.
func (s *exerciseService) GetExercisesForCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Exercise, error) {
	if coachID == primitive.NilObjectID {
		return nil, errors.New("coach ID cannot be nil")
	}
	return s.exerciseRepo.GetVisibleToCoach(ctx, coachID)
}

// UpdateExercise modifies an exercise. Default exercises (no owner) are
// editable only by admins; the policy check covers both cases.
func (s *exerciseService) UpdateExercise(ctx context.Context, principal Principal, exercise *domain.Exercise) (*domain.Exercise, error) {
	if exercise.ID == primitive.NilObjectID {
		return nil, errors.New("exercise ID is required")
	}
	if exercise.Name == "" || !domain.ValidCategory(exercise.Category) || !domain.ValidDifficulty(exercise.Difficulty) {
		return nil, ErrValidationFailed
	}

	existing, err := s.exerciseRepo.GetByID(ctx, exercise.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if !CanPerform(principal, ActionEdit, ResourceForExercise(existing)) {
		return nil, ErrExerciseAccessDenied
	}

	exercise.CoachID = existing.CoachID
	exercise.MediaKey = existing.MediaKey

	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return s.exerciseRepo.GetByID(ctx, exercise.ID)
}

// DeleteExercise removes an exercise. Defaults are never deletable by
// non-admins, and an exercise referenced by scheduled entries is never
// deletable at all (the schedule rows would become orphans).
func (s *exerciseService) DeleteExercise(ctx context.Context, principal Principal, exerciseID primitive.ObjectID) error {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}
	if !CanPerform(principal, ActionDelete, ResourceForExercise(exercise)) {
		return ErrExerciseAccessDenied
	}

	inUse, err := s.scheduledRepo.ExistsByExerciseID(ctx, exerciseID)
	if err != nil {
		return err
	}
	if inUse {
		return ErrExerciseInUse
	}

	if exercise.MediaKey != "" {
		// Media cleanup is best-effort; an orphaned object is preferable to
		// a failed delete.
		_ = s.fileStorage.DeleteObject(ctx, exercise.MediaKey)
	}

	if err := s.exerciseRepo.Delete(ctx, exerciseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}
	return nil
}

// GetMediaUploadURL returns a presigned PUT URL for attaching demonstration
// media to an exercise, and stores the object key on the exercise.
func (s *exerciseService) GetMediaUploadURL(ctx context.Context, principal Principal, exerciseID primitive.ObjectID, contentType string) (string, string, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", ErrExerciseNotFound
		}
		return "", "", err
	}
	if !CanPerform(principal, ActionEdit, ResourceForExercise(exercise)) {
		return "", "", ErrExerciseAccessDenied
	}

	objectKey := fmt.Sprintf("exercises/%s/media-%d", exercise.ID.Hex(), time.Now().UTC().Unix())
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", "", err
	}

	exercise.MediaKey = objectKey
	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		return "", "", err
	}
	return uploadURL, objectKey, nil
}

// GetMediaDownloadURL returns a presigned GET URL for an exercise's media.
func (s *exerciseService) GetMediaDownloadURL(ctx context.Context, principal Principal, exerciseID primitive.ObjectID) (string, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrExerciseNotFound
		}
		return "", err
	}
	if !CanPerform(principal, ActionView, ResourceForExercise(exercise)) {
		return "", ErrExerciseAccessDenied
	}
	if exercise.MediaKey == "" {
		return "", ErrExerciseNotFound
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, exercise.MediaKey, storage.DefaultPresignedURLExpiry)
}
