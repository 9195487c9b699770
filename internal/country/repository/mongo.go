package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/countryrates/country-service/internal/country"
	"github.com/countryrates/country-service/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo stores countries as documents keyed by name (_id).
type MongoRepo struct {
	col *mongo.Collection
}

// NewMongoRepo returns a repo over col. Index creation failures are logged.
func NewMongoRepo(ctx context.Context, col *mongo.Collection) *MongoRepo {
	// _id is already unique; region and currency back the filtered reads
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "region", Value: 1}}},
		{Keys: bson.D{{Key: "currency_code", Value: 1}}},
		{Keys: bson.D{{Key: "estimated_gdp", Value: -1}}},
	})
	if err != nil {
		logger.Warnf("mongo index setup failed: %v", err)
	}
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Upsert(ctx context.Context, c *country.Country) error {
	if c.LastRefreshedAt.IsZero() {
		c.LastRefreshedAt = time.Now().UTC()
	}
	_, err := m.col.ReplaceOne(ctx, bson.M{"_id": c.Name}, c, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert %q: %w", c.Name, err)
	}
	return nil
}

func (m *MongoRepo) List(ctx context.Context) ([]country.Country, error) {
	return m.find(ctx, bson.M{}, bson.D{{Key: "_id", Value: 1}})
}

func (m *MongoRepo) ListByRegion(ctx context.Context, region string) ([]country.Country, error) {
	return m.find(ctx, bson.M{"region": region}, bson.D{{Key: "_id", Value: 1}})
}

func (m *MongoRepo) ListByCurrency(ctx context.Context, code string) ([]country.Country, error) {
	return m.find(ctx, bson.M{"currency_code": code}, bson.D{{Key: "_id", Value: 1}})
}

func (m *MongoRepo) ListByGDPDesc(ctx context.Context) ([]country.Country, error) {
	return m.find(ctx, bson.M{}, bson.D{{Key: "estimated_gdp", Value: -1}, {Key: "_id", Value: 1}})
}

func (m *MongoRepo) Get(ctx context.Context, name string) (*country.Country, error) {
	var c country.Country
	err := m.col.FindOne(ctx, bson.M{"_id": name}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, country.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (m *MongoRepo) Delete(ctx context.Context, name string) (bool, error) {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return false, fmt.Errorf("delete %q: %w", name, err)
	}
	return res.DeletedCount > 0, nil
}

func (m *MongoRepo) Stats(ctx context.Context) (country.Stats, error) {
	n, err := m.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return country.Stats{}, fmt.Errorf("count: %w", err)
	}
	st := country.Stats{Total: n}
	if n == 0 {
		return st, nil
	}
	var latest country.Country
	opts := options.FindOne().SetSort(bson.D{{Key: "last_refreshed_at", Value: -1}})
	if err := m.col.FindOne(ctx, bson.M{}, opts).Decode(&latest); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return country.Stats{}, nil
		}
		return country.Stats{}, err
	}
	t := latest.LastRefreshedAt.UTC()
	st.LastRefreshedAt = &t
	return st, nil
}

func (m *MongoRepo) find(ctx context.Context, filter bson.M, sort bson.D) ([]country.Country, error) {
	cur, err := m.col.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []country.Country{}
	for cur.Next(ctx) {
		var c country.Country
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, cur.Err()
}
