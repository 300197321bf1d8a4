package mongodb

import (
	"context"
	"time"

	receiptsStore "github.com/kvittoapp/kvitto/apiserver/internal/receipts"
	"github.com/kvittoapp/kvitto/sdk/meta"
	"github.com/kvittoapp/kvitto/sdk/receipts"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const createIndexTimeout = 5 * time.Second

type store struct {
	collection *mongo.Collection
}

// NewStore returns a MongoDB-based implementation of the receipts.Store
// interface.
func NewStore(database *mongo.Database) (receiptsStore.Store, error) {
	ctx, cancel :=
		context.WithTimeout(context.Background(), createIndexTimeout)
	defer cancel()
	unique := true
	collection := database.Collection("receipts")
	if _, err := collection.Indexes().CreateMany(
		ctx,
		[]mongo.IndexModel{
			{
				Keys: bson.M{
					"metadata.id": 1,
				},
				Options: &options.IndexOptions{
					Unique: &unique,
				},
			},
			// Fast lookup of a user's receipts
			{
				Keys: bson.M{
					"userId": 1,
				},
			},
		},
	); err != nil {
		return nil, errors.Wrap(
			err,
			"error adding indexes to receipts collection",
		)
	}
	return &store{
		collection: collection,
	}, nil
}

func (s *store) Create(
	ctx context.Context,
	receipt receipts.Receipt,
) error {
	if _, err := s.collection.InsertOne(ctx, receipt); err != nil {
		return errors.Wrapf(err, "error inserting new receipt %q", receipt.ID)
	}
	return nil
}

func (s *store) ListByUser(
	ctx context.Context,
	userID string,
) (receipts.ReceiptList, error) {
	receiptList := receipts.ReceiptList{}
	findOptions := options.Find()
	findOptions.SetSort(bson.M{"metadata.created": -1})
	cur, err := s.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return receiptList, errors.Wrapf(
			err,
			"error finding receipts for user %q",
			userID,
		)
	}
	if err := cur.All(ctx, &receiptList.Items); err != nil {
		return receiptList, errors.Wrap(err, "error decoding receipts")
	}
	return receiptList, nil
}

func (s *store) Get(
	ctx context.Context,
	id string,
) (receipts.Receipt, error) {
	receipt := receipts.Receipt{}
	res := s.collection.FindOne(ctx, bson.M{"metadata.id": id})
	if res.Err() == mongo.ErrNoDocuments {
		return receipt, &meta.ErrNotFound{
			Type: "Receipt",
			ID:   id,
		}
	}
	if res.Err() != nil {
		return receipt, errors.Wrapf(res.Err(), "error finding receipt %q", id)
	}
	if err := res.Decode(&receipt); err != nil {
		return receipt, errors.Wrapf(err, "error decoding receipt %q", id)
	}
	return receipt, nil
}
