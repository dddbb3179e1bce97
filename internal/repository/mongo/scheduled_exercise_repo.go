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

const scheduledCollectionName = "scheduled_exercises"

// mongoScheduledExerciseRepository implements repository.ScheduledExerciseRepository
type mongoScheduledExerciseRepository struct {
	collection *mongo.Collection
}

// NewMongoScheduledExerciseRepository creates a new ScheduledExercise
// repository backed by MongoDB.
func NewMongoScheduledExerciseRepository(db *mongo.Database) repository.ScheduledExerciseRepository {
	return &mongoScheduledExerciseRepository{
		collection: db.Collection(scheduledCollectionName),
	}
}

// Create inserts a scheduled exercise row. The unique (planId, date,
// timeSlot) index is the correctness backstop for slot allocation: of two
// concurrent inserts for the same slot exactly one succeeds, the other
// gets ErrDuplicate and no row is left behind.
func (r *mongoScheduledExerciseRepository) Create(ctx context.Context, scheduled *domain.ScheduledExercise) (primitive.ObjectID, error) {
	if scheduled.PlanID == primitive.NilObjectID || scheduled.ExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("scheduled exercise requires planId and exerciseId")
	}
	if scheduled.Date == "" || scheduled.TimeSlot == "" {
		return primitive.NilObjectID, errors.New("scheduled exercise requires date and timeSlot")
	}

	scheduled.ID = primitive.NewObjectID()
	scheduled.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, scheduled)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a scheduled exercise by its ID.
func (r *mongoScheduledExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ScheduledExercise, error) {
	var scheduled domain.ScheduledExercise
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&scheduled)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &scheduled, nil
}

// GetByPlanID retrieves all scheduled exercises for a plan, oldest date first.
func (r *mongoScheduledExerciseRepository) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.ScheduledExercise, error) {
	filter := bson.M{"planId": planID}
	return r.find(ctx, filter)
}

// GetByPlanIDAndDate retrieves the rows booked for a plan on a single date.
func (r *mongoScheduledExerciseRepository) GetByPlanIDAndDate(ctx context.Context, planID primitive.ObjectID, date string) ([]domain.ScheduledExercise, error) {
	filter := bson.M{"planId": planID, "date": date}
	return r.find(ctx, filter)
}

// GetByPlanIDsInRange retrieves rows for any of the given plans whose date
// falls inside [startDate, endDate] inclusive. ISO date strings compare
// lexicographically in calendar order, so a plain range filter works.
func (r *mongoScheduledExerciseRepository) GetByPlanIDsInRange(ctx context.Context, planIDs []primitive.ObjectID, startDate, endDate string) ([]domain.ScheduledExercise, error) {
	if len(planIDs) == 0 {
		return []domain.ScheduledExercise{}, nil
	}
	filter := bson.M{
		"planId": bson.M{"$in": planIDs},
		"date":   bson.M{"$gte": startDate, "$lte": endDate},
	}
	return r.find(ctx, filter)
}

func (r *mongoScheduledExerciseRepository) find(ctx context.Context, filter bson.M) ([]domain.ScheduledExercise, error) {
	var rows []domain.ScheduledExercise

	findOptions := options.Find().SetSort(bson.D{
		{Key: "date", Value: 1},
		{Key: "timeSlot", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// ExistsByExerciseID reports whether any scheduled row references the exercise.
func (r *mongoScheduledExerciseRepository) ExistsByExerciseID(ctx context.Context, exerciseID primitive.ObjectID) (bool, error) {
	filter := bson.M{"exerciseId": exerciseID}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetCompleted flips the completion flag on a scheduled exercise.
func (r *mongoScheduledExerciseRepository) SetCompleted(ctx context.Context, id primitive.ObjectID, completed bool) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"completed": completed}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a scheduled exercise row.
func (r *mongoScheduledExerciseRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureScheduledExerciseIndexes creates necessary indexes for the
// scheduled_exercises collection.
func EnsureScheduledExerciseIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// The slot-uniqueness invariant: one exercise per plan, date and
			// time slot.
			Keys: bson.D{
				{Key: "planId", Value: 1},
				{Key: "date", Value: 1},
				{Key: "timeSlot", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("unique_plan_date_slot"),
		},
		{
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
