package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleCoach  Role = "coach"
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

// User represents an account in the system (a Coach, a Client or an Admin).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Client-specific ---
	// Links a client account to the Patient record its coach keeps for them.
	// Nil until a coach connects the account to a patient profile.
	PatientID *primitive.ObjectID `bson:"patientId,omitempty" json:"patientId,omitempty"`
}

func (u *User) IsCoach() bool {
	return u.Role == RoleCoach
}

func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
