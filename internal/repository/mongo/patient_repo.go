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

const patientCollectionName = "patients"

// mongoPatientRepository implements repository.PatientRepository
type mongoPatientRepository struct {
	collection *mongo.Collection
}

// NewMongoPatientRepository creates a new Patient repository backed by MongoDB.
func NewMongoPatientRepository(db *mongo.Database) repository.PatientRepository {
	return &mongoPatientRepository{
		collection: db.Collection(patientCollectionName),
	}
}

// Create inserts a new patient record.
func (r *mongoPatientRepository) Create(ctx context.Context, patient *domain.Patient) (primitive.ObjectID, error) {
	if patient.Name == "" || patient.CoachID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("patient name and coach ID are required")
	}

	patient.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	patient.CreatedAt = now
	patient.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, patient)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a patient by its ID.
func (r *mongoPatientRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Patient, error) {
	var patient domain.Patient
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&patient)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &patient, nil
}

// GetByCoachID retrieves all patients owned by a specific coach.
func (r *mongoPatientRepository) GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Patient, error) {
	var patients []domain.Patient
	filter := bson.M{"coachId": coachID}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &patients); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return patients, nil
}

// GetByLinkedUserID retrieves the patient record connected to a client user account.
func (r *mongoPatientRepository) GetByLinkedUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Patient, error) {
	var patient domain.Patient
	filter := bson.M{"linkedUserId": userID}

	err := r.collection.FindOne(ctx, filter).Decode(&patient)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &patient, nil
}

// Update modifies an existing patient record. The owning coach is never
// changed by an update.
func (r *mongoPatientRepository) Update(ctx context.Context, patient *domain.Patient) error {
	if patient.ID == primitive.NilObjectID {
		return errors.New("patient ID is required for update")
	}

	filter := bson.M{"_id": patient.ID}
	update := bson.M{
		"$set": bson.M{
			"name":         patient.Name,
			"surname":      patient.Surname,
			"age":          patient.Age,
			"weight":       patient.Weight,
			"height":       patient.Height,
			"fitnessLevel": patient.FitnessLevel,
			"limitations":  patient.Limitations,
			"notes":        patient.Notes,
			"linkedUserId": patient.LinkedUserID,
			"updatedAt":    time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a patient, ensuring it belongs to the specified coach.
func (r *mongoPatientRepository) Delete(ctx context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error {
	// The filter prevents a coach from deleting another coach's patient.
	filter := bson.M{
		"_id":     id,
		"coachId": coachID,
	}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsurePatientIndexes creates necessary indexes for the patients collection.
func EnsurePatientIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "linkedUserId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
