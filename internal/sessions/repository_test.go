package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	ns := func(mt *mtest.T) string { return mt.Coll.Database().Name() + "." + mt.Coll.Name() }

	mt.Run("ensure indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, NewMongoRepository(mt.Coll).EnsureIndexes(ctx))

		evt := mt.GetStartedEvent()
		require.Equal(mt, "createIndexes", evt.CommandName)
		require.Equal(mt, "sessions_expires_ttl", evt.Command.Lookup("indexes", "0", "name").StringValue())
		require.Equal(mt, int32(0), evt.Command.Lookup("indexes", "0", "expireAfterSeconds").Int32())
		require.Equal(mt, int32(1), evt.Command.Lookup("indexes", "0", "key", "expiresAt").Int32())
	})

	mt.Run("save upserts by id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		s := &Session{ID: "s1", Provider: "google", State: "st", CodeVerifier: "cv",
			CreatedAt: time.Now().UTC(), ExpiresAt: time.Now().UTC().Add(time.Hour)}
		require.NoError(mt, NewMongoRepository(mt.Coll).Save(ctx, s))

		evt := mt.GetStartedEvent()
		require.Equal(mt, "update", evt.CommandName)
		require.True(mt, evt.Command.Lookup("updates", "0", "upsert").Boolean())
		require.Equal(mt, "s1", evt.Command.Lookup("updates", "0", "q", "_id").StringValue())
		require.Equal(mt, "cv", evt.Command.Lookup("updates", "0", "u", "codeVerifier").StringValue())
		// empty fields stay out of the stored document
		_, err := evt.Command.LookupErr("updates", "0", "u", "userId")
		require.Error(mt, err)
	})

	mt.Run("get live session", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "s1"},
			{Key: "userId", Value: "user-1"},
			{Key: "provider", Value: "linkedin"},
			{Key: "createdAt", Value: time.Now().UTC()},
			{Key: "expiresAt", Value: time.Now().UTC().Add(time.Hour)},
		}))
		got, err := NewMongoRepository(mt.Coll).Get(ctx, "s1")
		require.NoError(mt, err)
		require.NotNil(mt, got)
		require.Equal(mt, "s1", got.ID)
		require.Equal(mt, "user-1", got.UserID)
		require.Equal(mt, "linkedin", got.Provider)
		require.True(mt, got.Authenticated())

		evt := mt.GetStartedEvent()
		require.Equal(mt, "find", evt.CommandName)
		require.Equal(mt, "s1", evt.Command.Lookup("filter", "_id").StringValue())
	})

	mt.Run("get unknown id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))
		got, err := NewMongoRepository(mt.Coll).Get(ctx, "nope")
		require.NoError(mt, err)
		require.Nil(mt, got)
	})

	mt.Run("get expired session removes it", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, bson.D{
				{Key: "_id", Value: "old"},
				{Key: "userId", Value: "user-1"},
				{Key: "createdAt", Value: time.Now().UTC().Add(-2 * time.Hour)},
				{Key: "expiresAt", Value: time.Now().UTC().Add(-time.Hour)},
			}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)
		got, err := NewMongoRepository(mt.Coll).Get(ctx, "old")
		require.NoError(mt, err)
		require.Nil(mt, got)

		require.Equal(mt, "find", mt.GetStartedEvent().CommandName)
		evt := mt.GetStartedEvent()
		require.Equal(mt, "delete", evt.CommandName)
		require.Equal(mt, "old", evt.Command.Lookup("deletes", "0", "q", "_id").StringValue())
	})

	mt.Run("delete", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		require.NoError(mt, NewMongoRepository(mt.Coll).Delete(ctx, "s1"))

		evt := mt.GetStartedEvent()
		require.Equal(mt, "delete", evt.CommandName)
		require.Equal(mt, "s1", evt.Command.Lookup("deletes", "0", "q", "_id").StringValue())
	})

	mt.Run("server error surfaces", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 2, Name: "BadValue", Message: "bad filter",
		}))
		got, err := NewMongoRepository(mt.Coll).Get(ctx, "s1")
		require.Error(mt, err)
		require.Nil(mt, got)
	})
}
