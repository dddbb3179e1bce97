package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExercisePlan is the per-patient container that scheduled exercise entries
// attach to. A patient has at most one plan; the system creates it lazily on
// the first exercise assignment (see service.ScheduleService.AssignExercise).
type ExercisePlan struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientID   primitive.ObjectID `bson:"patientId" json:"patientId"` // Unique per plan collection
	CoachID     primitive.ObjectID `bson:"coachId" json:"coachId"`     // Who created the plan
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
