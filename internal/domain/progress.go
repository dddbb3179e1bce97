package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseProgress records how an assigned exercise was actually performed
// on a given date, next to the targets copied from the Exercise at record
// time. It is a historical record: it survives deletion of the schedule
// entry (and of the exercise) it originated from, which is why the name and
// category are denormalized here.
type ExerciseProgress struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientID  primitive.ObjectID `bson:"patientId" json:"patientId"`
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Date       string             `bson:"date" json:"date"` // ISO date, "2006-01-02"

	ExerciseName string           `bson:"exerciseName" json:"exerciseName"`
	Category     ExerciseCategory `bson:"category" json:"category"`

	Completed      bool    `bson:"completed" json:"completed"`
	ActualSets     int     `bson:"actualSets,omitempty" json:"actualSets,omitempty"`
	ActualReps     int     `bson:"actualReps,omitempty" json:"actualReps,omitempty"`
	ActualDuration int     `bson:"actualDuration,omitempty" json:"actualDuration,omitempty"` // minutes
	Weight         float64 `bson:"weight,omitempty" json:"weight,omitempty"`                 // kg
	Feedback       string  `bson:"feedback,omitempty" json:"feedback,omitempty"`

	// Targets at the time the exercise was performed.
	TargetSets     int `bson:"targetSets,omitempty" json:"targetSets,omitempty"`
	TargetReps     int `bson:"targetReps,omitempty" json:"targetReps,omitempty"`
	TargetDuration int `bson:"targetDuration,omitempty" json:"targetDuration,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
