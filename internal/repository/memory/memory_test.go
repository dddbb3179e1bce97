package memory

import (
	"context"
	"testing"

	"physioplan/server/internal/domain"
	"physioplan/server/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserEmailUniqueness(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_, err := store.Users().Create(ctx, &domain.User{
		Name: "Eva", Email: "eva@example.com", PasswordHash: "hash", Role: domain.RoleCoach,
	})
	require.NoError(t, err)

	_, err = store.Users().Create(ctx, &domain.User{
		Name: "Other Eva", Email: "eva@example.com", PasswordHash: "hash2", Role: domain.RoleClient,
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestPlanFindOrCreateIsIdempotent(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	patientID := primitive.NewObjectID()
	coachID := primitive.NewObjectID()

	first, err := store.Plans().FindOrCreate(ctx, &domain.ExercisePlan{
		PatientID: patientID, CoachID: coachID, Name: "Plan A",
	})
	require.NoError(t, err)
	require.False(t, first.ID.IsZero())

	// A second call for the same patient returns the existing plan even
	// when the proposed name differs.
	second, err := store.Plans().FindOrCreate(ctx, &domain.ExercisePlan{
		PatientID: patientID, CoachID: coachID, Name: "Plan B",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Plan A", second.Name)
}

func TestScheduledSlotUniqueness(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	planID := primitive.NewObjectID()
	exerciseID := primitive.NewObjectID()

	_, err := store.ScheduledExercises().Create(ctx, &domain.ScheduledExercise{
		PlanID: planID, ExerciseID: exerciseID, Date: "2025-06-02", TimeSlot: "08:00 - 09:00",
	})
	require.NoError(t, err)

	// Same plan, date and slot collides, even with another exercise.
	_, err = store.ScheduledExercises().Create(ctx, &domain.ScheduledExercise{
		PlanID: planID, ExerciseID: primitive.NewObjectID(), Date: "2025-06-02", TimeSlot: "08:00 - 09:00",
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	// Another plan may use the same date and slot.
	_, err = store.ScheduledExercises().Create(ctx, &domain.ScheduledExercise{
		PlanID: primitive.NewObjectID(), ExerciseID: exerciseID, Date: "2025-06-02", TimeSlot: "08:00 - 09:00",
	})
	assert.NoError(t, err)
}

func TestScheduledRangeQuery(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	planID := primitive.NewObjectID()
	exerciseID := primitive.NewObjectID()
	for _, date := range []string{"2025-05-30", "2025-06-02", "2025-06-08", "2025-06-09"} {
		_, err := store.ScheduledExercises().Create(ctx, &domain.ScheduledExercise{
			PlanID: planID, ExerciseID: exerciseID, Date: date, TimeSlot: "08:00 - 09:00",
		})
		require.NoError(t, err)
	}

	rows, err := store.ScheduledExercises().GetByPlanIDsInRange(ctx, []primitive.ObjectID{planID}, "2025-06-02", "2025-06-08")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-06-02", rows[0].Date)
	assert.Equal(t, "2025-06-08", rows[1].Date)

	// Unknown plan IDs match nothing.
	rows, err = store.ScheduledExercises().GetByPlanIDsInRange(ctx, []primitive.ObjectID{primitive.NewObjectID()}, "2025-01-01", "2025-12-31")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestProgressUpsert(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	patientID := primitive.NewObjectID()
	exerciseID := primitive.NewObjectID()

	firstID, err := store.Progress().Upsert(ctx, &domain.ExerciseProgress{
		PatientID: patientID, ExerciseID: exerciseID, Date: "2025-06-02",
		ExerciseName: "Wall Slide", ActualSets: 2,
	})
	require.NoError(t, err)

	// Same triple replaces the record in place.
	secondID, err := store.Progress().Upsert(ctx, &domain.ExerciseProgress{
		PatientID: patientID, ExerciseID: exerciseID, Date: "2025-06-02",
		ExerciseName: "Wall Slide", ActualSets: 3, Completed: true,
	})
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)

	records, err := store.Progress().GetByPatientID(ctx, patientID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].ActualSets)
	assert.True(t, records[0].Completed)

	// A different date is a new record.
	_, err = store.Progress().Upsert(ctx, &domain.ExerciseProgress{
		PatientID: patientID, ExerciseID: exerciseID, Date: "2025-06-03",
		ExerciseName: "Wall Slide", ActualSets: 1,
	})
	require.NoError(t, err)

	records, err = store.Progress().GetByPatientID(ctx, patientID)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	byDate, err := store.Progress().GetByPatientIDAndDate(ctx, patientID, "2025-06-03")
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, 1, byDate[0].ActualSets)
}

func TestPatientDeleteRequiresOwner(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	coachID := primitive.NewObjectID()
	patient := &domain.Patient{CoachID: coachID, Name: "Anna", Surname: "Kovacs", Age: 41, FitnessLevel: domain.FitnessBeginner}
	id, err := store.Patients().Create(ctx, patient)
	require.NoError(t, err)

	err = store.Patients().Delete(ctx, id, primitive.NewObjectID())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.Patients().Delete(ctx, id, coachID))

	_, err = store.Patients().GetByID(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
