package service

import (
	"context"
	"errors"
	"testing"

	"physioplan/server/internal/domain"
	"physioplan/server/internal/repository"
	"physioplan/server/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type scheduleFixture struct {
	store    *memory.Store
	service  ScheduleService
	coach    Principal
	patient  *domain.Patient
	exercise *domain.Exercise
}

func newScheduleFixture(t *testing.T) *scheduleFixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	coach := Principal{ID: primitive.NewObjectID(), Role: domain.RoleCoach}

	patient := &domain.Patient{
		CoachID:      coach.ID,
		Name:         "Anna",
		Surname:      "Kovacs",
		Age:          41,
		FitnessLevel: domain.FitnessBeginner,
	}
	_, err := store.Patients().Create(ctx, patient)
	require.NoError(t, err)

	coachID := coach.ID
	exercise := &domain.Exercise{
		CoachID:    &coachID,
		Name:       "Shoulder Mobility",
		Category:   domain.CategoryRehabilitation,
		Difficulty: domain.DifficultyEasy,
	}
	_, err = store.Exercises().Create(ctx, exercise)
	require.NoError(t, err)

	svc := NewScheduleService(store.Patients(), store.Exercises(), store.Plans(), store.ScheduledExercises(), zap.NewNop())
	return &scheduleFixture{store: store, service: svc, coach: coach, patient: patient, exercise: exercise}
}

func TestAssignExerciseCreatesPlanLazily(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	// No plan exists before the first assignment.
	_, err := f.store.Plans().GetByPatientID(ctx, f.patient.ID)
	require.Error(t, err)

	view, err := f.service.AssignExercise(ctx, f.coach, f.patient.ID, f.exercise.ID, "2025-06-02", "08:00 - 09:00", "gently")
	require.NoError(t, err)

	plan, err := f.store.Plans().GetByPatientID(ctx, f.patient.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna Kovacs's Exercise Plan", plan.Name)
	assert.Equal(t, f.coach.ID, plan.CoachID)

	assert.Equal(t, f.patient.ID, view.PatientID)
	assert.Equal(t, f.exercise.ID, view.ExerciseID)
	assert.Equal(t, "Shoulder Mobility", view.Exercise.Name)
	assert.Equal(t, domain.Monday, view.Day)
	assert.Equal(t, "ts-08:00-09:00", view.TimeSlot.ID)
	assert.Equal(t, "gently", view.Notes)
	assert.False(t, view.Completed)

	// A second assignment reuses the same plan container.
	_, err = f.service.AssignExercise(ctx, f.coach, f.patient.ID, f.exercise.ID, "2025-06-02", "09:00 - 10:00", "")
	require.NoError(t, err)

	again, err := f.store.Plans().GetByPatientID(ctx, f.patient.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, again.ID)
}

func TestAssignExerciseSlotConflict(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	_, err := f.service.AssignExercise(ctx, f.coach, f.patient.ID, f.exercise.ID, "2025-06-02", "10:00 - 11:00", "")
	require.NoError(t, err)

	_, err = f.service.AssignExercise(ctx, f.coach, f.patient.ID, f.exercise.ID, "2025-06-02", "10:00 - 11:00", "")
	assert.ErrorIs(t, err, ErrSlotTaken)

	// Same slot on another date is fine.
	_, err = f.service.AssignExercise(ctx, f.coach, f.patient.ID, f.exercise.ID, "2025-06-03", "10:00 - 11:00", "")
	assert.NoError(t, err)
}

func TestAssignExerciseValidation(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	_, err := f.service.AssignExercise(ctx, f.coach, f.patient.ID, primitive.NilObjectID, "2025-06-02", "08:00 - 09:00", "")
	assert.ErrorIs(t, err, ErrMissingSelection)

	_, err = f.service.AssignExercise(ctx, f.coach, f.patient.ID, f.exercise.ID, "2025-06-02", "", "")
	assert.ErrorIs(t, err, ErrMissingSelection)

	_, err = f.service.AssignExercise(ctx, f.coach, f.patient.ID, f.exercise.ID, "02-06-2025", "08:00 - 09:00", "")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = f.service.AssignExercise(ctx, f.coach, f.patient.ID, f.exercise.ID, "2025-06-02", "12:00 - 13:00", "")
	assert.ErrorIs(t, err, ErrSlotInvalid)

	_, err = f.service.AssignExercise(ctx, f.coach, f.patient.ID, primitive.NewObjectID(), "2025-06-02", "08:00 - 09:00", "")
	assert.ErrorIs(t, err, ErrExerciseNotFound)

	_, err = f.service.AssignExercise(ctx, f.coach, primitive.NewObjectID(), f.exercise.ID, "2025-06-02", "08:00 - 09:00", "")
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestAssignExerciseAuthorization(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	otherCoach := Principal{ID: primitive.NewObjectID(), Role: domain.RoleCoach}
	_, err := f.service.AssignExercise(ctx, otherCoach, f.patient.ID, f.exercise.ID, "2025-06-02", "08:00 - 09:00", "")
	assert.ErrorIs(t, err, ErrPatientAccessDenied)

	// A linked client can view the schedule but never write to it.
	clientID := primitive.NewObjectID()
	f.patient.LinkedUserID = &clientID
	require.NoError(t, f.store.Patients().Update(ctx, f.patient))

	client := Principal{ID: clientID, Role: domain.RoleClient}
	_, err = f.service.AssignExercise(ctx, client, f.patient.ID, f.exercise.ID, "2025-06-02", "08:00 - 09:00", "")
	assert.ErrorIs(t, err, ErrPatientAccessDenied)

	_, err = f.service.ScheduledForPatient(ctx, client, f.patient.ID)
	assert.NoError(t, err)
}

func TestAvailableSlots(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	t.Run("full universe before any assignment", func(t *testing.T) {
		slots, err := f.service.AvailableSlots(ctx, f.coach, f.patient.ID, "2025-06-02")
		require.NoError(t, err)
		assert.Equal(t, domain.AllTimeSlots, slots)
	})

	t.Run("booked slots disappear, order holds", func(t *testing.T) {
		_, err := f.service.AssignExercise(ctx, f.coach, f.patient.ID, f.exercise.ID, "2025-06-02", "09:00 - 10:00", "")
		require.NoError(t, err)

		slots, err := f.service.AvailableSlots(ctx, f.coach, f.patient.ID, "2025-06-02")
		require.NoError(t, err)
		require.Len(t, slots, 9)
		assert.NotContains(t, slots, "09:00 - 10:00")
		assert.Equal(t, "08:00 - 09:00", slots[0])

		// Another date is unaffected.
		slots, err = f.service.AvailableSlots(ctx, f.coach, f.patient.ID, "2025-06-03")
		require.NoError(t, err)
		assert.Len(t, slots, 10)
	})

	t.Run("malformed date", func(t *testing.T) {
		_, err := f.service.AvailableSlots(ctx, f.coach, f.patient.ID, "June 2nd")
		assert.ErrorIs(t, err, ErrInvalidDate)
	})
}

func TestScheduledForPatientSkipsOrphanedRows(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	coachID := f.coach.ID
	doomed := &domain.Exercise{
		CoachID:    &coachID,
		Name:       "Old Stretch",
		Category:   domain.CategoryFlexibility,
		Difficulty: domain.DifficultyEasy,
	}
	_, err := f.store.Exercises().Create(ctx, doomed)
	require.NoError(t, err)

	_, err = f.service.AssignExercise(ctx, f.coach, f.patient.ID, f.exercise.ID, "2025-06-02", "08:00 - 09:00", "")
	require.NoError(t, err)
	_, err = f.service.AssignExercise(ctx, f.coach, f.patient.ID, doomed.ID, "2025-06-02", "09:00 - 10:00", "")
	require.NoError(t, err)

	// Remove the exercise record out from under the schedule row.
	require.NoError(t, f.store.Exercises().Delete(ctx, doomed.ID))

	views, err := f.service.ScheduledForPatient(ctx, f.coach, f.patient.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, f.exercise.ID, views[0].ExerciseID)
}

// flakyExerciseRepo fails every lookup the way a dropped connection would.
type flakyExerciseRepo struct {
	repository.ExerciseRepository
	err error
}

func (r *flakyExerciseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	return nil, r.err
}

func TestScheduledForPatientPropagatesStoreErrors(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	_, err := f.service.AssignExercise(ctx, f.coach, f.patient.ID, f.exercise.ID, "2025-06-02", "08:00 - 09:00", "")
	require.NoError(t, err)

	// Only missing exercise records may be skipped. Any other store error
	// must surface so the caller can retry instead of seeing a short list.
	storeErr := errors.New("connection reset by peer")
	flaky := &flakyExerciseRepo{ExerciseRepository: f.store.Exercises(), err: storeErr}
	svc := NewScheduleService(f.store.Patients(), flaky, f.store.Plans(), f.store.ScheduledExercises(), zap.NewNop())

	views, err := svc.ScheduledForPatient(ctx, f.coach, f.patient.ID)
	require.ErrorIs(t, err, storeErr)
	assert.Nil(t, views)

	_, err = svc.ScheduledForDate(ctx, f.coach.ID, "2025-06-02")
	assert.ErrorIs(t, err, storeErr)
}

func TestScheduledForDate(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	second := &domain.Patient{CoachID: f.coach.ID, Name: "Bela", Surname: "Nagy", Age: 55, FitnessLevel: domain.FitnessBeginner}
	_, err := f.store.Patients().Create(ctx, second)
	require.NoError(t, err)

	_, err = f.service.AssignExercise(ctx, f.coach, f.patient.ID, f.exercise.ID, "2025-06-02", "08:00 - 09:00", "")
	require.NoError(t, err)
	_, err = f.service.AssignExercise(ctx, f.coach, second.ID, f.exercise.ID, "2025-06-02", "08:00 - 09:00", "")
	require.NoError(t, err)
	_, err = f.service.AssignExercise(ctx, f.coach, f.patient.ID, f.exercise.ID, "2025-06-03", "08:00 - 09:00", "")
	require.NoError(t, err)

	views, err := f.service.ScheduledForDate(ctx, f.coach.ID, "2025-06-02")
	require.NoError(t, err)
	require.Len(t, views, 2)

	patientIDs := []primitive.ObjectID{views[0].PatientID, views[1].PatientID}
	assert.Contains(t, patientIDs, f.patient.ID)
	assert.Contains(t, patientIDs, second.ID)
}

func TestWeeklyRoster(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	second := &domain.Patient{CoachID: f.coach.ID, Name: "Bela", Surname: "Nagy", Age: 55, FitnessLevel: domain.FitnessBeginner}
	_, err := f.store.Patients().Create(ctx, second)
	require.NoError(t, err)

	// Monday: Anna twice, Bela once. Tuesday: Bela only.
	_, err = f.service.AssignExercise(ctx, f.coach, f.patient.ID, f.exercise.ID, "2025-06-02", "08:00 - 09:00", "")
	require.NoError(t, err)
	_, err = f.service.AssignExercise(ctx, f.coach, f.patient.ID, f.exercise.ID, "2025-06-02", "09:00 - 10:00", "")
	require.NoError(t, err)
	_, err = f.service.AssignExercise(ctx, f.coach, second.ID, f.exercise.ID, "2025-06-02", "08:00 - 09:00", "")
	require.NoError(t, err)
	_, err = f.service.AssignExercise(ctx, f.coach, second.ID, f.exercise.ID, "2025-06-03", "10:00 - 11:00", "")
	require.NoError(t, err)

	roster, err := f.service.WeeklyRoster(ctx, f.coach.ID, "2025-06-02", "2025-06-08")
	require.NoError(t, err)
	require.Len(t, roster, 2)

	monday := roster["2025-06-02"]
	require.Len(t, monday, 2)
	// First-seen order: rows are scanned sorted by date then slot, so Anna
	// (08:00, created first) precedes Bela.
	assert.Equal(t, f.patient.ID, monday[0].PatientID)
	assert.Equal(t, "Anna Kovacs", monday[0].PatientName)
	assert.Equal(t, 2, monday[0].Count)
	assert.Equal(t, second.ID, monday[1].PatientID)
	assert.Equal(t, 1, monday[1].Count)

	tuesday := roster["2025-06-03"]
	require.Len(t, tuesday, 1)
	assert.Equal(t, "Bela Nagy", tuesday[0].PatientName)
	assert.Equal(t, 1, tuesday[0].Count)

	_, err = f.service.WeeklyRoster(ctx, f.coach.ID, "junk", "2025-06-08")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestWeeklyRosterSkipsDeletedPatients(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	second := &domain.Patient{CoachID: f.coach.ID, Name: "Bela", Surname: "Nagy", Age: 55, FitnessLevel: domain.FitnessBeginner}
	_, err := f.store.Patients().Create(ctx, second)
	require.NoError(t, err)

	_, err = f.service.AssignExercise(ctx, f.coach, f.patient.ID, f.exercise.ID, "2025-06-02", "08:00 - 09:00", "")
	require.NoError(t, err)
	_, err = f.service.AssignExercise(ctx, f.coach, second.ID, f.exercise.ID, "2025-06-02", "09:00 - 10:00", "")
	require.NoError(t, err)
	_, err = f.service.AssignExercise(ctx, f.coach, second.ID, f.exercise.ID, "2025-06-03", "10:00 - 11:00", "")
	require.NoError(t, err)

	// The patient record goes away but the plan and its rows stay behind.
	require.NoError(t, f.store.Patients().Delete(ctx, second.ID, f.coach.ID))

	roster, err := f.service.WeeklyRoster(ctx, f.coach.ID, "2025-06-02", "2025-06-08")
	require.NoError(t, err)
	require.Len(t, roster, 1)

	monday := roster["2025-06-02"]
	require.Len(t, monday, 1)
	assert.Equal(t, f.patient.ID, monday[0].PatientID)
	assert.Equal(t, "Anna Kovacs", monday[0].PatientName)
}

func TestRemoveScheduled(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	view, err := f.service.AssignExercise(ctx, f.coach, f.patient.ID, f.exercise.ID, "2025-06-02", "08:00 - 09:00", "")
	require.NoError(t, err)

	otherCoach := Principal{ID: primitive.NewObjectID(), Role: domain.RoleCoach}
	err = f.service.RemoveScheduled(ctx, otherCoach, view.ID)
	assert.ErrorIs(t, err, ErrScheduleAccessDenied)

	require.NoError(t, f.service.RemoveScheduled(ctx, f.coach, view.ID))

	// The slot opens up again.
	slots, err := f.service.AvailableSlots(ctx, f.coach, f.patient.ID, "2025-06-02")
	require.NoError(t, err)
	assert.Contains(t, slots, "08:00 - 09:00")

	err = f.service.RemoveScheduled(ctx, f.coach, view.ID)
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestSetCompleted(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	view, err := f.service.AssignExercise(ctx, f.coach, f.patient.ID, f.exercise.ID, "2025-06-02", "08:00 - 09:00", "")
	require.NoError(t, err)

	require.NoError(t, f.service.SetCompleted(ctx, f.coach, view.ID, true))

	views, err := f.service.ScheduledForPatient(ctx, f.coach, f.patient.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].Completed)

	require.NoError(t, f.service.SetCompleted(ctx, f.coach, view.ID, false))
	views, err = f.service.ScheduledForPatient(ctx, f.coach, f.patient.ID)
	require.NoError(t, err)
	assert.False(t, views[0].Completed)

	err = f.service.SetCompleted(ctx, f.coach, primitive.NewObjectID(), true)
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}
