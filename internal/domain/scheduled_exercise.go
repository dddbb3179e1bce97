package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduledExercise attaches an Exercise to a plan (and transitively to a
// patient) on a calendar date and time slot.
//
// Invariant: within one plan, no two rows may share the same (date, slot)
// pair. The storage layer enforces this with a unique compound index; the
// service layer only pre-checks availability as a UX optimization.
type ScheduledExercise struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID     primitive.ObjectID `bson:"planId" json:"planId"`
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Date       string             `bson:"date" json:"date"`         // ISO date, "2006-01-02"
	TimeSlot   string             `bson:"timeSlot" json:"timeSlot"` // Canonical slot label, "HH:MM - HH:MM"
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Completed  bool               `bson:"completed" json:"completed"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// ScheduledExerciseView is the assembled view model consumed by calendars
// and trackers: the raw row joined with its Exercise and resolved back to
// the owning patient, with the slot parsed and the weekday derived.
type ScheduledExerciseView struct {
	ID         primitive.ObjectID `json:"id"`
	ExerciseID primitive.ObjectID `json:"exerciseId"`
	Exercise   Exercise           `json:"exercise"`
	PatientID  primitive.ObjectID `json:"patientId"`
	Date       string             `json:"date"`
	Day        WeekDay            `json:"day"`
	TimeSlot   TimeSlot           `json:"timeSlot"`
	Notes      string             `json:"notes,omitempty"`
	Completed  bool               `json:"completed"`
}

// PatientDayActivity is one roster entry: how many exercises a patient has
// scheduled on a particular date. Lists of these preserve first-seen order.
type PatientDayActivity struct {
	PatientID   primitive.ObjectID `json:"patientId"`
	PatientName string             `json:"patientName"`
	Count       int                `json:"count"`
}
