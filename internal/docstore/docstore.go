// Package docstore implements the rating store on MongoDB with users,
// products and ratings collections. Ratings carry a unique
// (user_id, product_id) index.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/actuallystonmai/product-recommendation-service/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	usersCollection    = "users"
	productsCollection = "products"
	ratingsCollection  = "ratings"
)

type Store struct {
	client   *mongo.Client
	users    *mongo.Collection
	products *mongo.Collection
	ratings  *mongo.Collection
}

// Connect dials MongoDB and verifies the connection. The caller owns the
// returned store and must call Close.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI))
	if err != nil {
		return nil, fmt.Errorf("docstore: connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("docstore: ping: %w", err)
	}

	return New(client, database), nil
}

func New(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:   client,
		users:    db.Collection(usersCollection),
		products: db.Collection(productsCollection),
		ratings:  db.Collection(ratingsCollection),
	}
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// EnsureIndexes creates the unique (user_id, product_id) rating index and the
// product lookup index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.ratings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("user_product_unique"),
		},
		{
			Keys:    bson.D{{Key: "product_id", Value: 1}},
			Options: options.Index().SetName("product_lookup"),
		},
	})
	if err != nil {
		return fmt.Errorf("docstore: create rating indexes: %w", err)
	}
	return nil
}

// PutUsers replaces the given users by id, inserting missing ones.
func (s *Store) PutUsers(ctx context.Context, users []domain.User) error {
	if len(users) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(users))
	for _, u := range users {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: u.ID}}).
			SetReplacement(u).
			SetUpsert(true))
	}
	if _, err := s.users.BulkWrite(ctx, models); err != nil {
		return fmt.Errorf("docstore: put users: %w", err)
	}
	return nil
}

// PutProducts replaces the given products by id, inserting missing ones.
func (s *Store) PutProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(products))
	for _, p := range products {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: p.ID}}).
			SetReplacement(p).
			SetUpsert(true))
	}
	if _, err := s.products.BulkWrite(ctx, models); err != nil {
		return fmt.Errorf("docstore: put products: %w", err)
	}
	return nil
}

// UpsertRating writes the rating keyed by (user_id, product_id). The id and
// creation time are only set when the document is inserted.
func (s *Store) UpsertRating(ctx context.Context, in domain.RatingInput) (*domain.Rating, bool, error) {
	now := time.Now().UTC()
	filter := bson.D{{Key: "user_id", Value: in.UserID}, {Key: "product_id", Value: in.ProductID}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "rating", Value: in.Score},
			{Key: "review", Value: in.Review},
			{Key: "updated_at", Value: now},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "_id", Value: uuid.NewString()},
			{Key: "created_at", Value: now},
		}},
	}
	res, err := s.ratings.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return nil, false, fmt.Errorf("upsert rating user=%d product=%d: %w", in.UserID, in.ProductID, err)
	}

	var rating domain.Rating
	if err := s.ratings.FindOne(ctx, filter).Decode(&rating); err != nil {
		return nil, false, fmt.Errorf("reload rating user=%d product=%d: %w", in.UserID, in.ProductID, err)
	}
	return &rating, res.UpsertedCount > 0, nil
}

func (s *Store) DeleteRating(ctx context.Context, ratingID string) (bool, error) {
	res, err := s.ratings.DeleteOne(ctx, bson.D{{Key: "_id", Value: ratingID}})
	if err != nil {
		return false, fmt.Errorf("delete rating %s: %w", ratingID, err)
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) GetRatingsByUser(ctx context.Context, userID int64) ([]domain.Rating, error) {
	return s.findRatings(ctx, bson.D{{Key: "user_id", Value: userID}})
}

func (s *Store) GetRatingsByProduct(ctx context.Context, productID int64) ([]domain.Rating, error) {
	return s.findRatings(ctx, bson.D{{Key: "product_id", Value: productID}})
}

func (s *Store) findRatings(ctx context.Context, filter bson.D) ([]domain.Rating, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.ratings.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find ratings: %w", err)
	}
	defer cursor.Close(ctx)

	ratings := []domain.Rating{}
	if err := cursor.All(ctx, &ratings); err != nil {
		return nil, fmt.Errorf("decode ratings: %w", err)
	}
	return ratings, nil
}

// AggregateRatingsByProduct runs a $group over ratings, optionally restricted
// to a set of users and excluding one product.
func (s *Store) AggregateRatingsByProduct(ctx context.Context, filter domain.AggregateFilter) ([]domain.ProductRatingStats, error) {
	match := bson.D{}
	if filter.UserIDs != nil {
		match = append(match, bson.E{Key: "user_id", Value: bson.D{{Key: "$in", Value: filter.UserIDs}}})
	}
	if filter.ExcludeProductID != 0 {
		match = append(match, bson.E{Key: "product_id", Value: bson.D{{Key: "$ne", Value: filter.ExcludeProductID}}})
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$product_id"},
			{Key: "avg_rating", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := s.ratings.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate ratings by product: %w", err)
	}
	defer cursor.Close(ctx)

	stats := []domain.ProductRatingStats{}
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("decode rating stats: %w", err)
	}
	return stats, nil
}

func (s *Store) GetProductByID(ctx context.Context, productID int64) (*domain.Product, error) {
	var p domain.Product
	err := s.products.FindOne(ctx, bson.D{{Key: "_id", Value: productID}}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product id=%d: %w", productID, err)
	}
	return &p, nil
}

func (s *Store) GetUserByID(ctx context.Context, userID int64) (*domain.User, error) {
	var u domain.User
	err := s.users.FindOne(ctx, bson.D{{Key: "_id", Value: userID}}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user id=%d: %w", userID, err)
	}
	return &u, nil
}

func (s *Store) GetUserIDsExcept(ctx context.Context, userID int64) ([]int64, error) {
	return s.userIDs(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$ne", Value: userID}}}}, options.Find())
}

func (s *Store) GetUserIDsPaginated(ctx context.Context, page, limit int) ([]int64, error) {
	opts := options.Find().SetSkip(int64((page - 1) * limit)).SetLimit(int64(limit))
	return s.userIDs(ctx, bson.D{}, opts)
}

func (s *Store) userIDs(ctx context.Context, filter bson.D, opts *options.FindOptionsBuilder) ([]int64, error) {
	opts = opts.SetProjection(bson.D{{Key: "_id", Value: 1}}).SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find user ids: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID int64 `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode user ids: %w", err)
	}

	ids := make([]int64, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	n, err := s.users.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return int(n), nil
}
