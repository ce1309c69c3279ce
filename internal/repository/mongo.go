package repository

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/umalmyha/intake/internal/errors"
	"github.com/umalmyha/intake/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	customersCollection = "customers"
	countersCollection  = "counters"
)

type counter struct {
	Seq int64 `bson:"seq"`
}

type mongoCustomerRepository struct {
	customers *mongo.Collection
	counters  *mongo.Collection
}

// NewMongoCustomerRepository builds CustomerRepository on top of customers collection,
// unique index on email is created if it is missing
func NewMongoCustomerRepository(ctx context.Context, db *mongo.Database) (CustomerRepository, error) {
	r := &mongoCustomerRepository{
		customers: db.Collection(customersCollection),
		counters:  db.Collection(countersCollection),
	}

	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("customers_email_key"),
	}
	if _, err := r.customers.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("failed to ensure unique email index - %w", err)
	}
	return r, nil
}

func (r *mongoCustomerRepository) Insert(ctx context.Context, c *model.Customer) (int64, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return 0, err
	}

	doc := copyCustomer(c)
	doc.ID = id
	if _, err := r.customers.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, apperrors.NewDuplicateEntryErr("email", c.Email)
		}
		return 0, r.classify("customer insert", err)
	}
	return id, nil
}

func (r *mongoCustomerRepository) Update(ctx context.Context, c *model.Customer) error {
	filter := bson.M{"email": c.Email}
	update := bson.M{"$set": bson.M{
		"lastname":   c.LastName,
		"firstname":  c.FirstName,
		"city":       c.City,
		"country":    c.Country,
		"image_path": c.ImagePath,
	}}

	if _, err := r.customers.UpdateOne(ctx, filter, update); err != nil {
		return r.classify("customer update", err)
	}
	return nil
}

func (r *mongoCustomerRepository) FindByEmail(ctx context.Context, email string) (*model.Customer, error) {
	var c model.Customer
	if err := r.customers.FindOne(ctx, bson.M{"email": email}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, r.classify("customer lookup", err)
	}
	return &c, nil
}

// nextID increments customers sequence, gaps are possible if insert fails afterwards
func (r *mongoCustomerRepository) nextID(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var cnt counter
	err := r.counters.FindOneAndUpdate(ctx, bson.M{"_id": customersCollection}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&cnt)
	if err != nil {
		return 0, r.classify("customer sequence", err)
	}
	return cnt.Seq, nil
}

func (r *mongoCustomerRepository) classify(op string, err error) error {
	// BadValue, FailedToParse, InvalidOptions
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && (cmdErr.Code == 2 || cmdErr.Code == 9 || cmdErr.Code == 72) {
		return apperrors.NewMalformedQueryErr(op, err)
	}
	return apperrors.NewStorageErr(op, err)
}
