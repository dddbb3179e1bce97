package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FitnessLevel type for a patient's assessed fitness
type FitnessLevel string

const (
	FitnessBeginner     FitnessLevel = "beginner"
	FitnessIntermediate FitnessLevel = "intermediate"
	FitnessAdvanced     FitnessLevel = "advanced"
)

// Patient represents a client record kept by a coach. It is distinct from
// the optional User account of the same person (see User.PatientID).
type Patient struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID      primitive.ObjectID `bson:"coachId" json:"coachId"` // Owning coach; a patient is visible only to this coach
	Name         string             `bson:"name" json:"name"`
	Surname      string             `bson:"surname" json:"surname"`
	Age          int                `bson:"age" json:"age"`
	Weight       float64            `bson:"weight" json:"weight"` // kg
	Height       float64            `bson:"height" json:"height"` // cm
	FitnessLevel FitnessLevel       `bson:"fitnessLevel" json:"fitnessLevel"`
	Limitations  []string           `bson:"limitations,omitempty" json:"limitations,omitempty"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`

	// LinkedUserID is the client user account connected to this record, if any.
	LinkedUserID *primitive.ObjectID `bson:"linkedUserId,omitempty" json:"linkedUserId,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// FullName returns the display name used in calendars and roster views.
func (p *Patient) FullName() string {
	return p.Name + " " + p.Surname
}
