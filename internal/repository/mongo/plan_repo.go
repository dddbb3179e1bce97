package mongo

import (
	"context"
	"errors"
	"time"

	"physioplan/server/internal/domain"
	"physioplan/server/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const planCollectionName = "exercise_plans"

// mongoPlanRepository implements repository.PlanRepository
type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new ExercisePlan repository backed by MongoDB.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// FindOrCreate returns the plan for plan.PatientID, inserting it if no plan
// exists yet. The operation is a single upsert guarded by the unique index
// on patientId, so two concurrent assignments racing for the same patient
// resolve to one plan document: the loser of the race reads the winner's row.
func (r *mongoPlanRepository) FindOrCreate(ctx context.Context, plan *domain.ExercisePlan) (*domain.ExercisePlan, error) {
	if plan.PatientID == primitive.NilObjectID || plan.CoachID == primitive.NilObjectID {
		return nil, errors.New("plan requires patientId and coachId")
	}

	now := time.Now().UTC()
	filter := bson.M{"patientId": plan.PatientID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":         primitive.NewObjectID(),
			"patientId":   plan.PatientID,
			"coachId":     plan.CoachID,
			"name":        plan.Name,
			"description": plan.Description,
			"createdAt":   now,
			"updatedAt":   now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result domain.ExercisePlan
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result)
	if err != nil {
		// A concurrent upsert can still trip the unique index; the plan now
		// exists, so read it back.
		if mongo.IsDuplicateKeyError(err) {
			return r.GetByPatientID(ctx, plan.PatientID)
		}
		return nil, err
	}
	return &result, nil
}

// GetByID retrieves a single plan by its ID.
func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExercisePlan, error) {
	var plan domain.ExercisePlan
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetByPatientID retrieves the single plan belonging to a patient.
func (r *mongoPlanRepository) GetByPatientID(ctx context.Context, patientID primitive.ObjectID) (*domain.ExercisePlan, error) {
	var plan domain.ExercisePlan
	filter := bson.M{"patientId": patientID}

	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetByCoachID retrieves all plans created by a specific coach.
func (r *mongoPlanRepository) GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.ExercisePlan, error) {
	var plans []domain.ExercisePlan
	filter := bson.M{"coachId": coachID}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

// EnsurePlanIndexes creates necessary indexes for the exercise_plans collection.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// One plan container per patient; also makes FindOrCreate race-safe.
			Keys:    bson.D{{Key: "patientId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
