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

const progressCollectionName = "exercise_progress"

// mongoProgressRepository implements repository.ProgressRepository
type mongoProgressRepository struct {
	collection *mongo.Collection
}

// NewMongoProgressRepository creates a new ExerciseProgress repository
// backed by MongoDB.
func NewMongoProgressRepository(db *mongo.Database) repository.ProgressRepository {
	return &mongoProgressRepository{
		collection: db.Collection(progressCollectionName),
	}
}

// Upsert inserts or replaces the progress record for one (patient, exercise,
// date) triple. Repeated submissions for the same day overwrite the previous
// record rather than accumulating duplicates.
func (r *mongoProgressRepository) Upsert(ctx context.Context, progress *domain.ExerciseProgress) (primitive.ObjectID, error) {
	if progress.PatientID == primitive.NilObjectID || progress.ExerciseID == primitive.NilObjectID || progress.Date == "" {
		return primitive.NilObjectID, errors.New("progress requires patientId, exerciseId and date")
	}

	now := time.Now().UTC()
	filter := bson.M{
		"patientId":  progress.PatientID,
		"exerciseId": progress.ExerciseID,
		"date":       progress.Date,
	}
	update := bson.M{
		"$set": bson.M{
			"exerciseName":   progress.ExerciseName,
			"category":       progress.Category,
			"completed":      progress.Completed,
			"actualSets":     progress.ActualSets,
			"actualReps":     progress.ActualReps,
			"actualDuration": progress.ActualDuration,
			"weight":         progress.Weight,
			"feedback":       progress.Feedback,
			"targetSets":     progress.TargetSets,
			"targetReps":     progress.TargetReps,
			"targetDuration": progress.TargetDuration,
			"updatedAt":      now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"patientId":  progress.PatientID,
			"exerciseId": progress.ExerciseID,
			"date":       progress.Date,
			"createdAt":  now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result domain.ExerciseProgress
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result); err != nil {
		return primitive.NilObjectID, err
	}
	*progress = result
	return result.ID, nil
}

// GetByPatientID retrieves the full progress history for a patient.
func (r *mongoProgressRepository) GetByPatientID(ctx context.Context, patientID primitive.ObjectID) ([]domain.ExerciseProgress, error) {
	filter := bson.M{"patientId": patientID}
	return r.find(ctx, filter)
}

// GetByPatientIDAndDate retrieves a patient's progress records for one date.
func (r *mongoProgressRepository) GetByPatientIDAndDate(ctx context.Context, patientID primitive.ObjectID, date string) ([]domain.ExerciseProgress, error) {
	filter := bson.M{"patientId": patientID, "date": date}
	return r.find(ctx, filter)
}

func (r *mongoProgressRepository) find(ctx context.Context, filter bson.M) ([]domain.ExerciseProgress, error) {
	var records []domain.ExerciseProgress

	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.ExerciseProgress{}
	}
	return records, nil
}

// EnsureProgressIndexes creates necessary indexes for the exercise_progress
// collection.
func EnsureProgressIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// One record per patient, exercise and date; also backs Upsert.
			Keys: bson.D{
				{Key: "patientId", Value: 1},
				{Key: "exerciseId", Value: 1},
				{Key: "date", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "patientId", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
