package service

import (
	"testing"

	"physioplan/server/internal/domain"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanPerform(t *testing.T) {
	coachID := primitive.NewObjectID()
	otherCoachID := primitive.NewObjectID()
	clientID := primitive.NewObjectID()

	coach := Principal{ID: coachID, Role: domain.RoleCoach}
	otherCoach := Principal{ID: otherCoachID, Role: domain.RoleCoach}
	client := Principal{ID: clientID, Role: domain.RoleClient}
	admin := Principal{ID: primitive.NewObjectID(), Role: domain.RoleAdmin}

	owned := Resource{CoachID: &coachID}
	linked := Resource{CoachID: &coachID, LinkedUserID: &clientID}
	shared := Resource{} // system-default exercise, no owner

	t.Run("admin may do anything", func(t *testing.T) {
		for _, action := range []Action{ActionView, ActionEdit, ActionDelete, ActionSchedule, ActionRecordProgress} {
			assert.True(t, CanPerform(admin, action, owned))
			assert.True(t, CanPerform(admin, action, shared))
		}
	})

	t.Run("coach acts only on owned resources", func(t *testing.T) {
		assert.True(t, CanPerform(coach, ActionView, owned))
		assert.True(t, CanPerform(coach, ActionEdit, owned))
		assert.True(t, CanPerform(coach, ActionSchedule, owned))
		assert.True(t, CanPerform(coach, ActionDelete, owned))

		assert.False(t, CanPerform(otherCoach, ActionView, owned))
		assert.False(t, CanPerform(otherCoach, ActionEdit, owned))
		assert.False(t, CanPerform(otherCoach, ActionDelete, owned))
	})

	t.Run("shared resources are read-only for non-admins", func(t *testing.T) {
		assert.True(t, CanPerform(coach, ActionView, shared))
		assert.True(t, CanPerform(otherCoach, ActionView, shared))
		assert.True(t, CanPerform(client, ActionView, shared))

		assert.False(t, CanPerform(coach, ActionEdit, shared))
		assert.False(t, CanPerform(coach, ActionDelete, shared))
		assert.False(t, CanPerform(client, ActionEdit, shared))
	})

	t.Run("client sees and records against the linked record only", func(t *testing.T) {
		assert.True(t, CanPerform(client, ActionView, linked))
		assert.True(t, CanPerform(client, ActionRecordProgress, linked))

		assert.False(t, CanPerform(client, ActionEdit, linked))
		assert.False(t, CanPerform(client, ActionSchedule, linked))
		assert.False(t, CanPerform(client, ActionDelete, linked))

		// A record linked to someone else is invisible.
		assert.False(t, CanPerform(client, ActionView, owned))
		assert.False(t, CanPerform(client, ActionRecordProgress, owned))
	})

	t.Run("anonymous principal is always rejected", func(t *testing.T) {
		anon := Principal{}
		assert.False(t, CanPerform(anon, ActionView, shared))
		assert.False(t, CanPerform(anon, ActionView, owned))
	})
}

func TestResourceForExercise(t *testing.T) {
	coachID := primitive.NewObjectID()
	owned := &domain.Exercise{CoachID: &coachID}
	shared := &domain.Exercise{}

	assert.Equal(t, &coachID, ResourceForExercise(owned).CoachID)
	assert.Nil(t, ResourceForExercise(shared).CoachID)
}
