// Package memory provides an in-memory Record Store adapter. It backs the
// demo mode (database.driver: memory) and the service-level tests, and it
// enforces the same uniqueness constraints as the MongoDB adapter so the
// slot-allocation invariant holds in both.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"physioplan/server/internal/domain"
	"physioplan/server/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds all collections behind one mutex. Slices keep insertion
// order, which makes list results deterministic.
type Store struct {
	mu        sync.RWMutex
	users     []domain.User
	patients  []domain.Patient
	exercises []domain.Exercise
	plans     []domain.ExercisePlan
	scheduled []domain.ScheduledExercise
	progress  []domain.ExerciseProgress
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepository{store: s}
}

func (s *Store) Patients() repository.PatientRepository {
	return &patientRepository{store: s}
}

func (s *Store) Exercises() repository.ExerciseRepository {
	return &exerciseRepository{store: s}
}

func (s *Store) Plans() repository.PlanRepository {
	return &planRepository{store: s}
}

func (s *Store) ScheduledExercises() repository.ScheduledExerciseRepository {
	return &scheduledExerciseRepository{store: s}
}

func (s *Store) Progress() repository.ProgressRepository {
	return &progressRepository{store: s}
}

// === Users ===

type userRepository struct {
	store *Store
}

func (r *userRepository) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" {
		return primitive.NilObjectID, errors.New("user email and password hash are required")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range r.store.users {
		if r.store.users[i].Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}

	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.store.users = append(r.store.users, *user)
	return user.ID, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for i := range r.store.users {
		if r.store.users[i].Email == email {
			u := r.store.users[i]
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for i := range r.store.users {
		if r.store.users[i].ID == id {
			u := r.store.users[i]
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) SetPatientLink(_ context.Context, userID, patientID primitive.ObjectID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range r.store.users {
		if r.store.users[i].ID == userID {
			pid := patientID
			r.store.users[i].PatientID = &pid
			r.store.users[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return repository.ErrNotFound
}

// === Patients ===

type patientRepository struct {
	store *Store
}

func (r *patientRepository) Create(_ context.Context, patient *domain.Patient) (primitive.ObjectID, error) {
	if patient.Name == "" || patient.CoachID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("patient name and coach ID are required")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	patient.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	patient.CreatedAt = now
	patient.UpdatedAt = now
	r.store.patients = append(r.store.patients, *patient)
	return patient.ID, nil
}

func (r *patientRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Patient, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for i := range r.store.patients {
		if r.store.patients[i].ID == id {
			p := r.store.patients[i]
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *patientRepository) GetByCoachID(_ context.Context, coachID primitive.ObjectID) ([]domain.Patient, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	patients := []domain.Patient{}
	for i := range r.store.patients {
		if r.store.patients[i].CoachID == coachID {
			patients = append(patients, r.store.patients[i])
		}
	}
	return patients, nil
}

func (r *patientRepository) GetByLinkedUserID(_ context.Context, userID primitive.ObjectID) (*domain.Patient, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for i := range r.store.patients {
		if r.store.patients[i].LinkedUserID != nil && *r.store.patients[i].LinkedUserID == userID {
			p := r.store.patients[i]
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *patientRepository) Update(_ context.Context, patient *domain.Patient) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range r.store.patients {
		if r.store.patients[i].ID == patient.ID {
			coachID := r.store.patients[i].CoachID
			createdAt := r.store.patients[i].CreatedAt
			r.store.patients[i] = *patient
			// The owning coach and creation time never change on update.
			r.store.patients[i].CoachID = coachID
			r.store.patients[i].CreatedAt = createdAt
			r.store.patients[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *patientRepository) Delete(_ context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range r.store.patients {
		if r.store.patients[i].ID == id && r.store.patients[i].CoachID == coachID {
			r.store.patients = append(r.store.patients[:i], r.store.patients[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// === Exercises ===

type exerciseRepository struct {
	store *Store
}

func (r *exerciseRepository) Create(_ context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Name == "" {
		return primitive.NilObjectID, errors.New("exercise name is required")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now
	r.store.exercises = append(r.store.exercises, *exercise)
	return exercise.ID, nil
}

func (r *exerciseRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for i := range r.store.exercises {
		if r.store.exercises[i].ID == id {
			e := r.store.exercises[i]
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *exerciseRepository) GetVisibleToCoach(_ context.Context, coachID primitive.ObjectID) ([]domain.Exercise, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	exercises := []domain.Exercise{}
	for i := range r.store.exercises {
		e := r.store.exercises[i]
		if e.IsDefault() || (e.CoachID != nil && *e.CoachID == coachID) {
			exercises = append(exercises, e)
		}
	}
	return exercises, nil
}

func (r *exerciseRepository) Update(_ context.Context, exercise *domain.Exercise) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range r.store.exercises {
		if r.store.exercises[i].ID == exercise.ID {
			coachID := r.store.exercises[i].CoachID
			createdAt := r.store.exercises[i].CreatedAt
			r.store.exercises[i] = *exercise
			r.store.exercises[i].CoachID = coachID
			r.store.exercises[i].CreatedAt = createdAt
			r.store.exercises[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *exerciseRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range r.store.exercises {
		if r.store.exercises[i].ID == id {
			r.store.exercises = append(r.store.exercises[:i], r.store.exercises[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// === Plans ===

type planRepository struct {
	store *Store
}

func (r *planRepository) FindOrCreate(_ context.Context, plan *domain.ExercisePlan) (*domain.ExercisePlan, error) {
	if plan.PatientID == primitive.NilObjectID || plan.CoachID == primitive.NilObjectID {
		return nil, errors.New("plan requires patientId and coachId")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	// Holding the lock across check and insert is what the unique index
	// gives the Mongo adapter.
	for i := range r.store.plans {
		if r.store.plans[i].PatientID == plan.PatientID {
			p := r.store.plans[i]
			return &p, nil
		}
	}

	created := *plan
	created.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now
	r.store.plans = append(r.store.plans, created)
	return &created, nil
}

func (r *planRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ExercisePlan, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for i := range r.store.plans {
		if r.store.plans[i].ID == id {
			p := r.store.plans[i]
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *planRepository) GetByPatientID(_ context.Context, patientID primitive.ObjectID) (*domain.ExercisePlan, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for i := range r.store.plans {
		if r.store.plans[i].PatientID == patientID {
			p := r.store.plans[i]
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *planRepository) GetByCoachID(_ context.Context, coachID primitive.ObjectID) ([]domain.ExercisePlan, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	plans := []domain.ExercisePlan{}
	for i := range r.store.plans {
		if r.store.plans[i].CoachID == coachID {
			plans = append(plans, r.store.plans[i])
		}
	}
	return plans, nil
}

// === Scheduled exercises ===

type scheduledExerciseRepository struct {
	store *Store
}

func (r *scheduledExerciseRepository) Create(_ context.Context, scheduled *domain.ScheduledExercise) (primitive.ObjectID, error) {
	if scheduled.PlanID == primitive.NilObjectID || scheduled.ExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("scheduled exercise requires planId and exerciseId")
	}
	if scheduled.Date == "" || scheduled.TimeSlot == "" {
		return primitive.NilObjectID, errors.New("scheduled exercise requires date and timeSlot")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range r.store.scheduled {
		row := r.store.scheduled[i]
		if row.PlanID == scheduled.PlanID && row.Date == scheduled.Date && row.TimeSlot == scheduled.TimeSlot {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}

	scheduled.ID = primitive.NewObjectID()
	scheduled.CreatedAt = time.Now().UTC()
	r.store.scheduled = append(r.store.scheduled, *scheduled)
	return scheduled.ID, nil
}

func (r *scheduledExerciseRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ScheduledExercise, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for i := range r.store.scheduled {
		if r.store.scheduled[i].ID == id {
			row := r.store.scheduled[i]
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *scheduledExerciseRepository) GetByPlanID(_ context.Context, planID primitive.ObjectID) ([]domain.ScheduledExercise, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rows := []domain.ScheduledExercise{}
	for i := range r.store.scheduled {
		if r.store.scheduled[i].PlanID == planID {
			rows = append(rows, r.store.scheduled[i])
		}
	}
	return rows, nil
}

func (r *scheduledExerciseRepository) GetByPlanIDAndDate(_ context.Context, planID primitive.ObjectID, date string) ([]domain.ScheduledExercise, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rows := []domain.ScheduledExercise{}
	for i := range r.store.scheduled {
		if r.store.scheduled[i].PlanID == planID && r.store.scheduled[i].Date == date {
			rows = append(rows, r.store.scheduled[i])
		}
	}
	return rows, nil
}

func (r *scheduledExerciseRepository) GetByPlanIDsInRange(_ context.Context, planIDs []primitive.ObjectID, startDate, endDate string) ([]domain.ScheduledExercise, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	wanted := make(map[primitive.ObjectID]struct{}, len(planIDs))
	for _, id := range planIDs {
		wanted[id] = struct{}{}
	}

	rows := []domain.ScheduledExercise{}
	for i := range r.store.scheduled {
		row := r.store.scheduled[i]
		if _, ok := wanted[row.PlanID]; !ok {
			continue
		}
		// ISO dates compare lexicographically in calendar order.
		if row.Date >= startDate && row.Date <= endDate {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (r *scheduledExerciseRepository) ExistsByExerciseID(_ context.Context, exerciseID primitive.ObjectID) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for i := range r.store.scheduled {
		if r.store.scheduled[i].ExerciseID == exerciseID {
			return true, nil
		}
	}
	return false, nil
}

func (r *scheduledExerciseRepository) SetCompleted(_ context.Context, id primitive.ObjectID, completed bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range r.store.scheduled {
		if r.store.scheduled[i].ID == id {
			r.store.scheduled[i].Completed = completed
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *scheduledExerciseRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range r.store.scheduled {
		if r.store.scheduled[i].ID == id {
			r.store.scheduled = append(r.store.scheduled[:i], r.store.scheduled[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// === Progress ===

type progressRepository struct {
	store *Store
}

func (r *progressRepository) Upsert(_ context.Context, progress *domain.ExerciseProgress) (primitive.ObjectID, error) {
	if progress.PatientID == primitive.NilObjectID || progress.ExerciseID == primitive.NilObjectID || progress.Date == "" {
		return primitive.NilObjectID, errors.New("progress requires patientId, exerciseId and date")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	for i := range r.store.progress {
		row := r.store.progress[i]
		if row.PatientID == progress.PatientID && row.ExerciseID == progress.ExerciseID && row.Date == progress.Date {
			progress.ID = row.ID
			progress.CreatedAt = row.CreatedAt
			progress.UpdatedAt = now
			r.store.progress[i] = *progress
			return row.ID, nil
		}
	}

	progress.ID = primitive.NewObjectID()
	progress.CreatedAt = now
	progress.UpdatedAt = now
	r.store.progress = append(r.store.progress, *progress)
	return progress.ID, nil
}

func (r *progressRepository) GetByPatientID(_ context.Context, patientID primitive.ObjectID) ([]domain.ExerciseProgress, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	records := []domain.ExerciseProgress{}
	for i := range r.store.progress {
		if r.store.progress[i].PatientID == patientID {
			records = append(records, r.store.progress[i])
		}
	}
	return records, nil
}

func (r *progressRepository) GetByPatientIDAndDate(_ context.Context, patientID primitive.ObjectID, date string) ([]domain.ExerciseProgress, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	records := []domain.ExerciseProgress{}
	for i := range r.store.progress {
		if r.store.progress[i].PatientID == patientID && r.store.progress[i].Date == date {
			records = append(records, r.store.progress[i])
		}
	}
	return records, nil
}
