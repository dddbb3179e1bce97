package service

import (
	"context"
	"testing"
	"time"

	"physioplan/server/internal/domain"
	"physioplan/server/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubFileStorage records presign and delete calls without touching S3.
type stubFileStorage struct {
	deleted []string
}

func (s *stubFileStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	return "https://storage.test/upload/" + objectKey, nil
}

func (s *stubFileStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://storage.test/download/" + objectKey, nil
}

func (s *stubFileStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	return nil
}

type exerciseFixture struct {
	store   *memory.Store
	storage *stubFileStorage
	service ExerciseService
	coach   Principal
}

func newExerciseFixture(t *testing.T) *exerciseFixture {
	t.Helper()
	store := memory.NewStore()
	stg := &stubFileStorage{}
	return &exerciseFixture{
		store:   store,
		storage: stg,
		service: NewExerciseService(store.Exercises(), store.ScheduledExercises(), stg),
		coach:   Principal{ID: primitive.NewObjectID(), Role: domain.RoleCoach},
	}
}

func TestCreateExercise(t *testing.T) {
	f := newExerciseFixture(t)
	ctx := context.Background()

	exercise, err := f.service.CreateExercise(ctx, f.coach, &domain.Exercise{
		Name:       "Wall Slide",
		Category:   domain.CategoryRehabilitation,
		Difficulty: domain.DifficultyEasy,
		Parameters: domain.ExerciseParameters{Sets: 3, Repetitions: 10},
	})
	require.NoError(t, err)

	// Coaches always own what they create.
	require.NotNil(t, exercise.CoachID)
	assert.Equal(t, f.coach.ID, *exercise.CoachID)
	assert.False(t, exercise.IsDefault())

	_, err = f.service.CreateExercise(ctx, f.coach, &domain.Exercise{
		Name:       "Bad Category",
		Category:   "yoga",
		Difficulty: domain.DifficultyEasy,
	})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = f.service.CreateExercise(ctx, f.coach, &domain.Exercise{
		Category:   domain.CategoryCardio,
		Difficulty: domain.DifficultyEasy,
	})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestDefaultExerciseVisibility(t *testing.T) {
	f := newExerciseFixture(t)
	ctx := context.Background()

	admin := Principal{ID: primitive.NewObjectID(), Role: domain.RoleAdmin}
	shared, err := f.service.CreateExercise(ctx, admin, &domain.Exercise{
		Name:       "Basic Squat",
		Category:   domain.CategoryStrength,
		Difficulty: domain.DifficultyEasy,
	})
	require.NoError(t, err)
	assert.True(t, shared.IsDefault())

	own, err := f.service.CreateExercise(ctx, f.coach, &domain.Exercise{
		Name:       "Band Row",
		Category:   domain.CategoryStrength,
		Difficulty: domain.DifficultyMedium,
	})
	require.NoError(t, err)

	otherCoach := Principal{ID: primitive.NewObjectID(), Role: domain.RoleCoach}
	theirs, err := f.service.CreateExercise(ctx, otherCoach, &domain.Exercise{
		Name:       "Private Drill",
		Category:   domain.CategoryBalance,
		Difficulty: domain.DifficultyHard,
	})
	require.NoError(t, err)

	// The coach sees defaults plus their own, never another coach's.
	visible, err := f.service.GetExercisesForCoach(ctx, f.coach.ID)
	require.NoError(t, err)
	names := make([]string, len(visible))
	for i, e := range visible {
		names[i] = e.Name
	}
	assert.Contains(t, names, shared.Name)
	assert.Contains(t, names, own.Name)
	assert.NotContains(t, names, theirs.Name)

	// Defaults are readable but not editable by coaches.
	_, err = f.service.GetExerciseByID(ctx, f.coach, shared.ID)
	assert.NoError(t, err)

	shared.Description = "changed"
	_, err = f.service.UpdateExercise(ctx, f.coach, shared)
	assert.ErrorIs(t, err, ErrExerciseAccessDenied)

	err = f.service.DeleteExercise(ctx, f.coach, shared.ID)
	assert.ErrorIs(t, err, ErrExerciseAccessDenied)
}

func TestDeleteExerciseInUse(t *testing.T) {
	f := newExerciseFixture(t)
	ctx := context.Background()

	exercise, err := f.service.CreateExercise(ctx, f.coach, &domain.Exercise{
		Name:       "Heel Raise",
		Category:   domain.CategoryStrength,
		Difficulty: domain.DifficultyEasy,
	})
	require.NoError(t, err)

	// Reference the exercise from a schedule row.
	plan := &domain.ExercisePlan{PatientID: primitive.NewObjectID(), CoachID: f.coach.ID, Name: "Plan"}
	plan, err = f.store.Plans().FindOrCreate(ctx, plan)
	require.NoError(t, err)
	_, err = f.store.ScheduledExercises().Create(ctx, &domain.ScheduledExercise{
		PlanID:     plan.ID,
		ExerciseID: exercise.ID,
		Date:       "2025-06-02",
		TimeSlot:   "08:00 - 09:00",
	})
	require.NoError(t, err)

	err = f.service.DeleteExercise(ctx, f.coach, exercise.ID)
	assert.ErrorIs(t, err, ErrExerciseInUse)

	// Still there.
	_, err = f.service.GetExerciseByID(ctx, f.coach, exercise.ID)
	assert.NoError(t, err)
}

func TestExerciseMediaLifecycle(t *testing.T) {
	f := newExerciseFixture(t)
	ctx := context.Background()

	exercise, err := f.service.CreateExercise(ctx, f.coach, &domain.Exercise{
		Name:       "Step Up",
		Category:   domain.CategoryCardio,
		Difficulty: domain.DifficultyMedium,
	})
	require.NoError(t, err)

	// No media yet.
	_, err = f.service.GetMediaDownloadURL(ctx, f.coach, exercise.ID)
	assert.ErrorIs(t, err, ErrExerciseNotFound)

	uploadURL, objectKey, err := f.service.GetMediaUploadURL(ctx, f.coach, exercise.ID, "video/mp4")
	require.NoError(t, err)
	assert.Contains(t, uploadURL, objectKey)
	assert.Contains(t, objectKey, "exercises/"+exercise.ID.Hex())

	downloadURL, err := f.service.GetMediaDownloadURL(ctx, f.coach, exercise.ID)
	require.NoError(t, err)
	assert.Contains(t, downloadURL, objectKey)

	// Deleting the exercise cleans up the stored object.
	require.NoError(t, f.service.DeleteExercise(ctx, f.coach, exercise.ID))
	assert.Equal(t, []string{objectKey}, f.storage.deleted)
}
