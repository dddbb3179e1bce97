package service

import (
	"context"
	"testing"

	"physioplan/server/internal/domain"
	"physioplan/server/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRecordProgress(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	progressSvc := NewProgressService(f.store.Progress(), f.store.Patients(), f.store.Exercises(), f.store.Plans(), f.store.ScheduledExercises())

	view, err := f.service.AssignExercise(ctx, f.coach, f.patient.ID, f.exercise.ID, "2025-06-02", "08:00 - 09:00", "")
	require.NoError(t, err)
	require.False(t, view.Completed)

	record, err := progressSvc.RecordProgress(ctx, f.coach, f.patient.ID, RecordProgressInput{
		ExerciseID: f.exercise.ID,
		Date:       "2025-06-02",
		Completed:  true,
		ActualSets: 2,
		Feedback:   "slight stiffness",
	})
	require.NoError(t, err)

	// Name and category are denormalized onto the record.
	assert.Equal(t, "Shoulder Mobility", record.ExerciseName)
	assert.Equal(t, domain.CategoryRehabilitation, record.Category)
	assert.Equal(t, 2, record.ActualSets)

	// The matching schedule entry picks up the completion flag.
	views, err := f.service.ScheduledForPatient(ctx, f.coach, f.patient.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].Completed)

	// Re-recording the same day replaces the record.
	_, err = progressSvc.RecordProgress(ctx, f.coach, f.patient.ID, RecordProgressInput{
		ExerciseID: f.exercise.ID,
		Date:       "2025-06-02",
		Completed:  true,
		ActualSets: 3,
	})
	require.NoError(t, err)

	records, err := progressSvc.GetProgressForPatient(ctx, f.coach, f.patient.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].ActualSets)
}

func TestRecordProgressCopiesTargets(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	coach := Principal{ID: primitive.NewObjectID(), Role: domain.RoleCoach}
	patient := &domain.Patient{CoachID: coach.ID, Name: "Anna", Surname: "Kovacs", Age: 41, FitnessLevel: domain.FitnessBeginner}
	_, err := store.Patients().Create(ctx, patient)
	require.NoError(t, err)

	coachID := coach.ID
	exercise := &domain.Exercise{
		CoachID:    &coachID,
		Name:       "Band Row",
		Category:   domain.CategoryStrength,
		Difficulty: domain.DifficultyMedium,
		Parameters: domain.ExerciseParameters{Sets: 3, Repetitions: 12, Duration: 10},
	}
	_, err = store.Exercises().Create(ctx, exercise)
	require.NoError(t, err)

	svc := NewProgressService(store.Progress(), store.Patients(), store.Exercises(), store.Plans(), store.ScheduledExercises())

	record, err := svc.RecordProgress(ctx, coach, patient.ID, RecordProgressInput{
		ExerciseID: exercise.ID,
		Date:       "2025-06-02",
		ActualSets: 2,
		ActualReps: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, record.TargetSets)
	assert.Equal(t, 12, record.TargetReps)
	assert.Equal(t, 10, record.TargetDuration)
}

func TestRecordProgressAuthorization(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	svc := NewProgressService(f.store.Progress(), f.store.Patients(), f.store.Exercises(), f.store.Plans(), f.store.ScheduledExercises())

	otherCoach := Principal{ID: primitive.NewObjectID(), Role: domain.RoleCoach}
	_, err := svc.RecordProgress(ctx, otherCoach, f.patient.ID, RecordProgressInput{
		ExerciseID: f.exercise.ID, Date: "2025-06-02",
	})
	assert.ErrorIs(t, err, ErrProgressAccessDenied)

	// A linked client records against their own record.
	clientID := primitive.NewObjectID()
	f.patient.LinkedUserID = &clientID
	require.NoError(t, f.store.Patients().Update(ctx, f.patient))

	client := Principal{ID: clientID, Role: domain.RoleClient}
	_, err = svc.RecordProgress(ctx, client, f.patient.ID, RecordProgressInput{
		ExerciseID: f.exercise.ID, Date: "2025-06-02", Completed: true,
	})
	assert.NoError(t, err)

	_, err = svc.RecordProgress(ctx, client, f.patient.ID, RecordProgressInput{
		ExerciseID: f.exercise.ID, Date: "bad-date",
	})
	assert.ErrorIs(t, err, ErrInvalidDate)
}
