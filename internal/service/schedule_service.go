package service

import (
	"context"
	"errors"
	"fmt"

	"physioplan/server/internal/domain"
	"physioplan/server/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrInvalidDate          = errors.New("malformed date, expected YYYY-MM-DD")
	ErrSlotInvalid          = errors.New("time slot is not one of the available slots")
	ErrSlotTaken            = errors.New("time slot is already booked for this patient and date")
	ErrMissingSelection     = errors.New("an exercise and a time slot must be selected")
	ErrScheduleNotFound     = errors.New("scheduled exercise not found")
	ErrScheduleAccessDenied = errors.New("access denied to this schedule entry")
)

// ScheduleService is the scheduling engine: it computes free time slots,
// attaches exercises to patients on dates (creating the plan container on
// demand), assembles schedule rows into calendar view models and aggregates
// a coach's weekly roster. It holds no state between requests; the slot
// uniqueness invariant is backed by the store's unique index, not by locks
// held here.
type ScheduleService interface {
	// AvailableSlots returns the canonical time slots still free for the
	// patient on the given date, in chronological order.
	AvailableSlots(ctx context.Context, principal Principal, patientID primitive.ObjectID, date string) ([]string, error)
	// AssignExercise attaches an exercise to the patient at date+slot,
	// lazily creating the patient's plan container.
	AssignExercise(ctx context.Context, principal Principal, patientID, exerciseID primitive.ObjectID, date, slot, notes string) (*domain.ScheduledExerciseView, error)
	// ScheduledForPatient returns the patient's full schedule as view models.
	ScheduledForPatient(ctx context.Context, principal Principal, patientID primitive.ObjectID) ([]domain.ScheduledExerciseView, error)
	// ScheduledForDate returns everything the coach's patients have
	// scheduled on one date.
	ScheduledForDate(ctx context.Context, coachID primitive.ObjectID, date string) ([]domain.ScheduledExerciseView, error)
	// WeeklyRoster maps each date in [startDate, endDate] to the coach's
	// patients with activity that day, in first-seen order.
	WeeklyRoster(ctx context.Context, coachID primitive.ObjectID, startDate, endDate string) (map[string][]domain.PatientDayActivity, error)
	RemoveScheduled(ctx context.Context, principal Principal, scheduledID primitive.ObjectID) error
	SetCompleted(ctx context.Context, principal Principal, scheduledID primitive.ObjectID, completed bool) error
}

// scheduleService implements the ScheduleService interface.
type scheduleService struct {
	patientRepo   repository.PatientRepository
	exerciseRepo  repository.ExerciseRepository
	planRepo      repository.PlanRepository
	scheduledRepo repository.ScheduledExerciseRepository
	log           *zap.Logger
}

// NewScheduleService creates a new instance of scheduleService.
func NewScheduleService(
	patientRepo repository.PatientRepository,
	exerciseRepo repository.ExerciseRepository,
	planRepo repository.PlanRepository,
	scheduledRepo repository.ScheduledExerciseRepository,
	log *zap.Logger,
) ScheduleService {
	return &scheduleService{
		patientRepo:   patientRepo,
		exerciseRepo:  exerciseRepo,
		planRepo:      planRepo,
		scheduledRepo: scheduledRepo,
		log:           log,
	}
}

// AvailableSlots computes the free slots for a patient+date. This is a UX
// pre-check only: the authoritative conflict detection is the unique index
// hit inside AssignExercise.
func (s *scheduleService) AvailableSlots(ctx context.Context, principal Principal, patientID primitive.ObjectID, date string) ([]string, error) {
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
		return nil, ErrPatientAccessDenied
	}

	plan, err := s.planRepo.GetByPatientID(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// No plan yet means nothing booked.
			return domain.AvailableTimeSlots(nil), nil
		}
		return nil, err
	}

	booked, err := s.scheduledRepo.GetByPlanIDAndDate(ctx, plan.ID, date)
	if err != nil {
		return nil, err
	}
	bookedSlots := make([]string, 0, len(booked))
	for _, row := range booked {
		bookedSlots = append(bookedSlots, row.TimeSlot)
	}
	return domain.AvailableTimeSlots(bookedSlots), nil
}

// AssignExercise validates the request, finds or lazily creates the
// patient's plan container and inserts the scheduled row. A concurrent
// assignment racing for the same slot loses cleanly: the store's unique
// index rejects the second insert and the caller sees ErrSlotTaken.
func (s *scheduleService) AssignExercise(ctx context.Context, principal Principal, patientID, exerciseID primitive.ObjectID, date, slot, notes string) (*domain.ScheduledExerciseView, error) {
	// 1. Validate the selection.
	if exerciseID == primitive.NilObjectID || slot == "" {
		return nil, ErrMissingSelection
	}
	if _, err := domain.ParseDate(date); err != nil {
		return nil, ErrInvalidDate
	}
	if !domain.IsCanonicalSlot(slot) {
		return nil, ErrSlotInvalid
	}

	// 2. Verify patient ownership.
	patient, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	if !CanPerform(principal, ActionSchedule, ResourceForPatient(patient)) {
		return nil, ErrPatientAccessDenied
	}

	// 3. Verify the exercise exists and is visible to the acting coach.
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

	// 4. Find or create the plan container. Idempotent: concurrent first
	// assignments for the same patient resolve to one plan.
	plan, err := s.planRepo.FindOrCreate(ctx, &domain.ExercisePlan{
		PatientID:   patientID,
		CoachID:     patient.CoachID,
		Name:        patient.FullName() + "'s Exercise Plan",
		Description: "Exercise plan created on first assignment",
	})
	if err != nil {
		return nil, err
	}

	// 5. Insert the scheduled row; translate the constraint violation.
	scheduled := &domain.ScheduledExercise{
		PlanID:     plan.ID,
		ExerciseID: exerciseID,
		Date:       date,
		TimeSlot:   slot,
		Notes:      notes,
	}
	if _, err := s.scheduledRepo.Create(ctx, scheduled); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	view, err := s.toView(scheduled, exercise, patientID)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ScheduledForPatient assembles the patient's full schedule. Rows whose
// exercise has been deleted are skipped with a warning, never an error.
func (s *scheduleService) ScheduledForPatient(ctx context.Context, principal Principal, patientID primitive.ObjectID) ([]domain.ScheduledExerciseView, error) {
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

	plan, err := s.planRepo.GetByPatientID(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []domain.ScheduledExerciseView{}, nil
		}
		return nil, err
	}

	rows, err := s.scheduledRepo.GetByPlanID(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	return s.assembleViews(ctx, rows, func(primitive.ObjectID) primitive.ObjectID { return patientID })
}

// ScheduledForDate returns every scheduled exercise across the coach's
// patients for one date.
func (s *scheduleService) ScheduledForDate(ctx context.Context, coachID primitive.ObjectID, date string) ([]domain.ScheduledExerciseView, error) {
	if _, err := domain.ParseDate(date); err != nil {
		return nil, ErrInvalidDate
	}

	plans, err := s.planRepo.GetByCoachID(ctx, coachID)
	if err != nil {
		return nil, err
	}
	planIDs := make([]primitive.ObjectID, 0, len(plans))
	patientByPlan := make(map[primitive.ObjectID]primitive.ObjectID, len(plans))
	for _, plan := range plans {
		planIDs = append(planIDs, plan.ID)
		patientByPlan[plan.ID] = plan.PatientID
	}

	rows, err := s.scheduledRepo.GetByPlanIDsInRange(ctx, planIDs, date, date)
	if err != nil {
		return nil, err
	}
	return s.assembleViews(ctx, rows, func(planID primitive.ObjectID) primitive.ObjectID {
		return patientByPlan[planID]
	})
}

// WeeklyRoster aggregates which of the coach's patients have exercises on
// each date in the range and how many. Entries for a date appear in the
// order each patient is first seen during the scan; repeated rows for the
// same (date, patient) pair increment the shared counter.
func (s *scheduleService) WeeklyRoster(ctx context.Context, coachID primitive.ObjectID, startDate, endDate string) (map[string][]domain.PatientDayActivity, error) {
	if _, err := domain.ParseDate(startDate); err != nil {
		return nil, ErrInvalidDate
	}
	if _, err := domain.ParseDate(endDate); err != nil {
		return nil, ErrInvalidDate
	}

	plans, err := s.planRepo.GetByCoachID(ctx, coachID)
	if err != nil {
		return nil, err
	}
	planIDs := make([]primitive.ObjectID, 0, len(plans))
	patientByPlan := make(map[primitive.ObjectID]primitive.ObjectID, len(plans))
	for _, plan := range plans {
		planIDs = append(planIDs, plan.ID)
		patientByPlan[plan.ID] = plan.PatientID
	}

	patients, err := s.patientRepo.GetByCoachID(ctx, coachID)
	if err != nil {
		return nil, err
	}
	nameByPatient := make(map[primitive.ObjectID]string, len(patients))
	for i := range patients {
		nameByPatient[patients[i].ID] = patients[i].FullName()
	}

	rows, err := s.scheduledRepo.GetByPlanIDsInRange(ctx, planIDs, startDate, endDate)
	if err != nil {
		return nil, err
	}

	roster := make(map[string][]domain.PatientDayActivity)
	index := make(map[string]map[primitive.ObjectID]int) // date -> patient -> position
	for _, row := range rows {
		patientID := patientByPlan[row.PlanID]
		if _, ok := nameByPatient[patientID]; !ok {
			// Plan outlived its patient record, leave it out of the roster.
			s.log.Warn("skipping roster row for missing patient record",
				zap.String("scheduledId", row.ID.Hex()),
				zap.String("patientId", patientID.Hex()))
			continue
		}
		if index[row.Date] == nil {
			index[row.Date] = make(map[primitive.ObjectID]int)
		}
		if pos, seen := index[row.Date][patientID]; seen {
			roster[row.Date][pos].Count++
			continue
		}
		index[row.Date][patientID] = len(roster[row.Date])
		roster[row.Date] = append(roster[row.Date], domain.PatientDayActivity{
			PatientID:   patientID,
			PatientName: nameByPatient[patientID],
			Count:       1,
		})
	}
	return roster, nil
}

// RemoveScheduled deletes one schedule entry. Progress records for the same
// exercise and date are deliberately left untouched: they are history.
func (s *scheduleService) RemoveScheduled(ctx context.Context, principal Principal, scheduledID primitive.ObjectID) error {
	_, patient, err := s.resolveEntry(ctx, scheduledID)
	if err != nil {
		return err
	}
	if !CanPerform(principal, ActionSchedule, ResourceForPatient(patient)) {
		return ErrScheduleAccessDenied
	}

	if err := s.scheduledRepo.Delete(ctx, scheduledID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrScheduleNotFound
		}
		return err
	}
	return nil
}

// SetCompleted flips the completion flag on a schedule entry. Clients may
// mark their own entries, coaches those of their patients.
func (s *scheduleService) SetCompleted(ctx context.Context, principal Principal, scheduledID primitive.ObjectID, completed bool) error {
	_, patient, err := s.resolveEntry(ctx, scheduledID)
	if err != nil {
		return err
	}
	if !CanPerform(principal, ActionRecordProgress, ResourceForPatient(patient)) {
		return ErrScheduleAccessDenied
	}

	if err := s.scheduledRepo.SetCompleted(ctx, scheduledID, completed); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrScheduleNotFound
		}
		return err
	}
	return nil
}

// resolveEntry walks a schedule entry back to its plan and patient.
func (s *scheduleService) resolveEntry(ctx context.Context, scheduledID primitive.ObjectID) (*domain.ScheduledExercise, *domain.Patient, error) {
	scheduled, err := s.scheduledRepo.GetByID(ctx, scheduledID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrScheduleNotFound
		}
		return nil, nil, err
	}

	plan, err := s.planRepo.GetByID(ctx, scheduled.PlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrScheduleNotFound
		}
		return nil, nil, err
	}

	patient, err := s.patientRepo.GetByID(ctx, plan.PatientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrPatientNotFound
		}
		return nil, nil, err
	}
	return scheduled, patient, nil
}

// assembleViews joins schedule rows with their exercises and derives the
// calendar fields. N rows in, N views out, minus rows whose exercise record
// is missing: those are logged as a data-integrity warning and skipped.
// Any other store error aborts the join so the caller can retry.
func (s *scheduleService) assembleViews(ctx context.Context, rows []domain.ScheduledExercise, patientFor func(planID primitive.ObjectID) primitive.ObjectID) ([]domain.ScheduledExerciseView, error) {
	views := make([]domain.ScheduledExerciseView, 0, len(rows))
	exerciseCache := make(map[primitive.ObjectID]*domain.Exercise)

	for i := range rows {
		row := rows[i]

		exercise, cached := exerciseCache[row.ExerciseID]
		if !cached {
			fetched, err := s.exerciseRepo.GetByID(ctx, row.ExerciseID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					s.log.Warn("skipping scheduled exercise with missing exercise record",
						zap.String("scheduledId", row.ID.Hex()),
						zap.String("exerciseId", row.ExerciseID.Hex()))
					exerciseCache[row.ExerciseID] = nil
					continue
				}
				return nil, err
			}
			exercise = fetched
			exerciseCache[row.ExerciseID] = fetched
		}
		if exercise == nil {
			// Known orphan from an earlier row.
			continue
		}

		view, err := s.toView(&row, exercise, patientFor(row.PlanID))
		if err != nil {
			s.log.Warn("skipping schedule row with malformed data",
				zap.String("scheduledId", row.ID.Hex()),
				zap.Error(err))
			continue
		}
		views = append(views, *view)
	}
	return views, nil
}

// toView builds the view model for one schedule row.
func (s *scheduleService) toView(row *domain.ScheduledExercise, exercise *domain.Exercise, patientID primitive.ObjectID) (*domain.ScheduledExerciseView, error) {
	day, err := domain.WeekDayFromDate(row.Date)
	if err != nil {
		return nil, fmt.Errorf("deriving weekday: %w", err)
	}
	slot, err := domain.ParseTimeSlot(row.TimeSlot)
	if err != nil {
		return nil, fmt.Errorf("parsing time slot: %w", err)
	}

	return &domain.ScheduledExerciseView{
		ID:         row.ID,
		ExerciseID: row.ExerciseID,
		Exercise:   *exercise,
		PatientID:  patientID,
		Date:       row.Date,
		Day:        day,
		TimeSlot:   slot,
		Notes:      row.Notes,
		Completed:  row.Completed,
	}, nil
}
