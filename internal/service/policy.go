package service

import (
	"physioplan/server/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Principal is the authenticated actor extracted from the session token.
type Principal struct {
	ID   primitive.ObjectID
	Role domain.Role
}

// Action names an operation checked by the authorization policy.
type Action string

const (
	ActionView           Action = "view"
	ActionEdit           Action = "edit"
	ActionDelete         Action = "delete"
	ActionSchedule       Action = "schedule"
	ActionRecordProgress Action = "record_progress"
)

// Resource describes the ownership of the object an action targets.
// A nil CoachID marks a shared (system-default) resource.
type Resource struct {
	CoachID      *primitive.ObjectID
	LinkedUserID *primitive.ObjectID
}

// ResourceForPatient builds the policy resource for a patient record.
func ResourceForPatient(p *domain.Patient) Resource {
	coachID := p.CoachID
	return Resource{CoachID: &coachID, LinkedUserID: p.LinkedUserID}
}

// ResourceForExercise builds the policy resource for an exercise definition.
func ResourceForExercise(e *domain.Exercise) Resource {
	return Resource{CoachID: e.CoachID}
}

// ResourceForPlan builds the policy resource for a plan container.
func ResourceForPlan(p *domain.ExercisePlan) Resource {
	coachID := p.CoachID
	return Resource{CoachID: &coachID}
}

// CanPerform is the single authorization policy consulted before every
// write (and ownership-sensitive read). Rules:
//
//   - admins may do anything;
//   - coaches may act on resources they own;
//   - any authenticated principal may view shared resources (system-default
//     exercises, which have no owning coach);
//   - clients may view and record progress against the patient record their
//     account is linked to, nothing else.
func CanPerform(p Principal, action Action, res Resource) bool {
	if p.ID == primitive.NilObjectID {
		return false
	}
	if p.Role == domain.RoleAdmin {
		return true
	}

	switch p.Role {
	case domain.RoleCoach:
		if res.CoachID != nil && *res.CoachID == p.ID {
			return true
		}
		// Shared resources are read-only for non-admins.
		return res.CoachID == nil && action == ActionView

	case domain.RoleClient:
		if res.LinkedUserID != nil && *res.LinkedUserID == p.ID {
			return action == ActionView || action == ActionRecordProgress
		}
		return res.CoachID == nil && action == ActionView
	}
	return false
}
