package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseCategory type for the kind of training an exercise targets
type ExerciseCategory string

const (
	CategoryStrength       ExerciseCategory = "strength"
	CategoryCardio         ExerciseCategory = "cardio"
	CategoryFlexibility    ExerciseCategory = "flexibility"
	CategoryBalance        ExerciseCategory = "balance"
	CategoryRehabilitation ExerciseCategory = "rehabilitation"
)

// Difficulty type for how demanding an exercise is
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Intensity type for the target effort level of an exercise
type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

// ExerciseParameters is the optional parameter bag attached to an exercise.
type ExerciseParameters struct {
	Sets        int       `bson:"sets,omitempty" json:"sets,omitempty"`
	Repetitions int       `bson:"repetitions,omitempty" json:"repetitions,omitempty"`
	Duration    int       `bson:"duration,omitempty" json:"duration,omitempty"` // minutes
	Intensity   Intensity `bson:"intensity,omitempty" json:"intensity,omitempty"`
}

// Exercise represents a single exercise definition in the library.
// A nil CoachID marks a system-default exercise visible to all coaches;
// defaults are never deletable and editable only by admins.
type Exercise struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CoachID     *primitive.ObjectID `bson:"coachId,omitempty" json:"coachId,omitempty"`
	Name        string              `bson:"name" json:"name"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Category    ExerciseCategory    `bson:"category" json:"category"`
	Difficulty  Difficulty          `bson:"difficulty" json:"difficulty"`
	Parameters  ExerciseParameters  `bson:"parameters,omitempty" json:"parameters"`
	Notes       string              `bson:"notes,omitempty" json:"notes,omitempty"`

	// MediaKey is the object key of an optional demonstration video in the
	// media bucket. Access goes through presigned URLs, never direct links.
	MediaKey string `bson:"mediaKey,omitempty" json:"mediaKey,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsDefault reports whether this is a system-default exercise (no owner).
func (e *Exercise) IsDefault() bool {
	return e.CoachID == nil || *e.CoachID == primitive.NilObjectID
}

// ValidCategory reports whether c is one of the known exercise categories.
func ValidCategory(c ExerciseCategory) bool {
	switch c {
	case CategoryStrength, CategoryCardio, CategoryFlexibility, CategoryBalance, CategoryRehabilitation:
		return true
	}
	return false
}

// ValidDifficulty reports whether d is one of the known difficulty grades.
func ValidDifficulty(d Difficulty) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}
