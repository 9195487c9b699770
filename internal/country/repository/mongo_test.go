package repository

import (
	"context"
	"testing"
	"time"

	"github.com/countryrates/country-service/internal/country"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func countryDoc(name string, gdp float64, refreshed time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: name},
		{Key: "region", Value: "Africa"},
		{Key: "population", Value: int64(1000)},
		{Key: "currency_code", Value: "NGN"},
		{Key: "exchange_rate", Value: 1600.5},
		{Key: "estimated_gdp", Value: gdp},
		{Key: "last_refreshed_at", Value: refreshed},
	}
}

func newMockMongoRepo(mt *mtest.T) *MongoRepo {
	mt.AddMockResponses(mtest.CreateSuccessResponse())
	repo := NewMongoRepo(context.Background(), mt.Coll)
	mt.ClearEvents()
	return repo
}

func TestMongoRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	refreshed := time.Date(2025, 10, 22, 18, 0, 0, 0, time.UTC)

	mt.Run("list by gdp sorts descending then by name", func(mt *mtest.T) {
		repo := newMockMongoRepo(mt)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			countryDoc("Nigeria", 900, refreshed),
			countryDoc("Ghana", 100, refreshed),
		))

		got, err := repo.ListByGDPDesc(context.Background())
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		require.Equal(mt, "Nigeria", got[0].Name)
		require.Equal(mt, 900.0, got[0].EstimatedGDP)
		require.Equal(mt, "NGN", *got[0].CurrencyCode)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		require.Equal(mt, "find", evt.CommandName)
		sort, err := evt.Command.LookupErr("sort")
		require.NoError(mt, err)
		elems, err := sort.Document().Elements()
		require.NoError(mt, err)
		require.Len(mt, elems, 2)
		require.Equal(mt, "estimated_gdp", elems[0].Key())
		require.Equal(mt, int64(-1), elems[0].Value().AsInt64())
		require.Equal(mt, "_id", elems[1].Key())
		require.Equal(mt, int64(1), elems[1].Value().AsInt64())
	})

	mt.Run("list returns empty slice", func(mt *mtest.T) {
		repo := newMockMongoRepo(mt)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		got, err := repo.List(context.Background())
		require.NoError(mt, err)
		require.NotNil(mt, got)
		require.Empty(mt, got)
	})

	mt.Run("get missing maps to not found", func(mt *mtest.T) {
		repo := newMockMongoRepo(mt)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.Get(context.Background(), "Atlantis")
		require.ErrorIs(mt, err, country.ErrNotFound)
	})

	mt.Run("delete reports removal", func(mt *mtest.T) {
		repo := newMockMongoRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		removed, err := repo.Delete(context.Background(), "Nigeria")
		require.NoError(mt, err)
		require.True(mt, removed)

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		removed, err = repo.Delete(context.Background(), "Nigeria")
		require.NoError(mt, err)
		require.False(mt, removed)
	})

	mt.Run("stats reports count and latest refresh", func(mt *mtest.T) {
		repo := newMockMongoRepo(mt)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(2)}}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, countryDoc("Nigeria", 900, refreshed)),
		)

		st, err := repo.Stats(context.Background())
		require.NoError(mt, err)
		require.Equal(mt, int64(2), st.Total)
		require.NotNil(mt, st.LastRefreshedAt)
		require.True(mt, refreshed.Equal(*st.LastRefreshedAt))
	})

	mt.Run("stats on empty collection", func(mt *mtest.T) {
		repo := newMockMongoRepo(mt)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		st, err := repo.Stats(context.Background())
		require.NoError(mt, err)
		require.Zero(mt, st.Total)
		require.Nil(mt, st.LastRefreshedAt)
	})

	mt.Run("upsert failure is wrapped", func(mt *mtest.T) {
		repo := newMockMongoRepo(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Message: "duplicate key",
			Name:    "DuplicateKey",
		}))

		err := repo.Upsert(context.Background(), &country.Country{Name: "Nigeria"})
		require.Error(mt, err)
		require.Contains(mt, err.Error(), `upsert "Nigeria"`)
	})
}
