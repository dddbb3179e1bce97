package repository

import (
	"context"

	"physioplan/server/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	SetPatientLink(ctx context.Context, userID, patientID primitive.ObjectID) error
}

// PatientRepository defines the interface for interacting with patient records.
type PatientRepository interface {
	Create(ctx context.Context, patient *domain.Patient) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Patient, error)
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Patient, error)
	GetByLinkedUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Patient, error)
	Update(ctx context.Context, patient *domain.Patient) error
	Delete(ctx context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error
}

// ExerciseRepository defines the interface for interacting with the exercise library.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	// GetVisibleToCoach returns the coach's own exercises plus the system
	// defaults (rows with no owning coach).
	GetVisibleToCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// PlanRepository defines the interface for interacting with exercise plan
// containers. A patient holds at most one plan.
type PlanRepository interface {
	// FindOrCreate returns the patient's plan, creating it atomically if
	// absent. Two concurrent calls for the same patient must yield the same
	// plan (unique index on patientId is the backstop).
	FindOrCreate(ctx context.Context, plan *domain.ExercisePlan) (*domain.ExercisePlan, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExercisePlan, error)
	GetByPatientID(ctx context.Context, patientID primitive.ObjectID) (*domain.ExercisePlan, error)
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.ExercisePlan, error)
}

// ScheduledExerciseRepository defines the interface for scheduled exercise rows.
type ScheduledExerciseRepository interface {
	// Create inserts a row; a (planId, date, timeSlot) collision returns
	// ErrDuplicate and leaves no row behind.
	Create(ctx context.Context, scheduled *domain.ScheduledExercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ScheduledExercise, error)
	GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.ScheduledExercise, error)
	GetByPlanIDAndDate(ctx context.Context, planID primitive.ObjectID, date string) ([]domain.ScheduledExercise, error)
	// GetByPlanIDsInRange returns rows for any of the given plans whose date
	// falls inside [startDate, endDate] inclusive.
	GetByPlanIDsInRange(ctx context.Context, planIDs []primitive.ObjectID, startDate, endDate string) ([]domain.ScheduledExercise, error)
	// ExistsByExerciseID reports whether any scheduled row references the
	// exercise; used to reject deletion of in-use exercises.
	ExistsByExerciseID(ctx context.Context, exerciseID primitive.ObjectID) (bool, error)
	SetCompleted(ctx context.Context, id primitive.ObjectID, completed bool) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProgressRepository defines the interface for exercise progress records.
type ProgressRepository interface {
	// Upsert inserts or replaces the record for (patientId, exerciseId, date).
	Upsert(ctx context.Context, progress *domain.ExerciseProgress) (primitive.ObjectID, error)
	GetByPatientID(ctx context.Context, patientID primitive.ObjectID) ([]domain.ExerciseProgress, error)
	GetByPatientIDAndDate(ctx context.Context, patientID primitive.ObjectID, date string) ([]domain.ExerciseProgress, error)
}
