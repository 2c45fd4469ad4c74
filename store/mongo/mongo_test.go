package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/boroughs/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

var greenpoint = core.NeighborhoodKey{Neighborhood: "Greenpoint", Borough: "Brooklyn"}

func sampleRecord() *core.NeighborhoodRecord {
	acc := core.NewAccumulator(greenpoint, "run-7")
	acc.Merge("History", core.NewNarrative("Polish roots.", []string{"http://a"}))
	acc.Merge("Restaurants", core.NewItemized([]core.Item{{Name: "Karczma", Address: "Brooklyn Ave", URL: "http://b"}}))
	return acc.Record()
}

func TestFilter(t *testing.T) {
	assert.Equal(t, bson.D{
		{Key: "neighborhood", Value: "Greenpoint"},
		{Key: "borough", Value: "Brooklyn"},
	}, Filter(greenpoint))
}

func TestDocument_Shape(t *testing.T) {
	raw, err := bson.Marshal(Document(sampleRecord()))
	require.NoError(t, err)

	var decoded bson.M
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	assert.Equal(t, "Greenpoint", decoded["neighborhood"])
	assert.Equal(t, "Brooklyn", decoded["borough"])
	assert.Equal(t, "run-7", decoded["run_id"])

	response, ok := decoded["response"].(bson.M)
	require.True(t, ok)

	history := response["History"].(bson.M)
	assert.Equal(t, "Polish roots.", history["content"])
	assert.Equal(t, bson.A{"http://a"}, history["urls"])

	restaurants := response["Restaurants"].(bson.M)
	items := restaurants["items"].(bson.A)
	require.Len(t, items, 1)
	item := items[0].(bson.M)
	assert.Equal(t, "Karczma", item["name"])
	assert.Equal(t, "", item["description"])
	assert.Equal(t, "Brooklyn Ave", item["address"])
	assert.Equal(t, "http://b", item["url"])
}

func TestConfig_Normalize(t *testing.T) {
	cfg := Config{URI: "mongodb://localhost"}
	cfg.normalize()
	assert.Equal(t, DefaultDatabase, cfg.Database)
	assert.Equal(t, DefaultCollection, cfg.Collection)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestStore_Mock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("save record upserts", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		s := New(mt.Client, Config{})
		require.NoError(mt, s.SaveRecord(context.Background(), sampleRecord()))
	})

	mt.Run("save record surfaces write errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Message: "duplicate key",
		}))
		s := New(mt.Client, Config{})
		err := s.SaveRecord(context.Background(), sampleRecord())
		assert.ErrorContains(mt, err, "duplicate key")
	})

	mt.Run("invalid key never reaches the server", func(mt *mtest.T) {
		s := New(mt.Client, Config{})
		rec := sampleRecord()
		rec.Key.Borough = ""
		assert.ErrorIs(mt, s.SaveRecord(context.Background(), rec), core.ErrInvalidKey)
	})

	mt.Run("insert one and many", func(mt *mtest.T) {
		s := New(mt.Client, Config{})

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		ids, err := s.Insert(context.Background(), "audit", bson.M{"_id": "run-1", "event": "run"})
		require.NoError(mt, err)
		assert.Equal(mt, []any{"run-1"}, ids)

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		ids, err = s.Insert(context.Background(), "audit", bson.M{"_id": "run-2"}, bson.M{"_id": "run-3"})
		require.NoError(mt, err)
		assert.Len(mt, ids, 2)

		_, err = s.Insert(context.Background(), "audit")
		assert.ErrorIs(mt, err, ErrNoDocuments)
	})
}
