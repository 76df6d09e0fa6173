package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/utils"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestUpsertDocuments_ActiveSession(t *testing.T) {
	filter, update := upsertDocuments(&models.InterviewUpsert{
		Username:     "alice",
		StartedAt:    t0,
		SystemPrompt: "prompt",
		UpdatedAt:    t0.Add(time.Minute),
		Transcript:   []models.Message{{Role: models.RoleAssistant, Content: "hi"}},
	})

	assert.Equal(t, bson.M{"username": "alice", "start_time_unix": models.UnixSeconds(t0)}, filter)

	set := update["$set"].(bson.M)
	assert.Equal(t, "01/03/2024 10:01:00", set["last_updated_utc"])
	assert.NotContains(t, set, "end_time_unix")
	assert.NotContains(t, set, "duration_minutes")
	assert.NotContains(t, set, "start_time_unix")
	assert.NotContains(t, set, "system_prompt")

	onInsert := update["$setOnInsert"].(bson.M)
	assert.Equal(t, "prompt", onInsert["system_prompt"])
	assert.Equal(t, "01/03/2024 10:00:00", onInsert["start_time_utc"])
	assert.Equal(t, models.UnixSeconds(t0), onInsert["start_time_unix"])
}

func TestUpsertDocuments_FinalizedSession(t *testing.T) {
	end := t0.Add(12*time.Minute + 30*time.Second)
	minutes := 12.5
	_, update := upsertDocuments(&models.InterviewUpsert{
		Username:        "alice",
		StartedAt:       t0,
		UpdatedAt:       end,
		EndedAt:         &end,
		DurationMinutes: &minutes,
	})

	set := update["$set"].(bson.M)
	assert.Equal(t, models.DurationText("12.50"), set["duration_minutes"])
	assert.Equal(t, "01/03/2024 10:12:30", set["end_time_utc"])
	assert.Equal(t, []models.Message{}, set["transcript"])
}

func TestInterviewRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find all decodes legacy fields", func(mt *mtest.T) {
		repo := NewInterviewRepo(mt.DB, "interviews")
		ns := mt.DB.Name() + ".interviews"

		id := primitive.NewObjectID()
		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: id},
				{Key: "username", Value: "alice"},
				{Key: "start_time_unix", Value: 1000.0},
				{Key: "end_time_unix", Value: int32(1600)},
				{Key: "duration_minutes", Value: 10.5},
				{Key: "transcript", Value: bson.A{bson.D{{Key: "role", Value: "assistant"}, {Key: "content", Value: "hi"}}}},
			},
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "username", Value: "bob"},
				{Key: "duration_minutes", Value: "9.25"},
			},
		)
		last := mtest.CreateCursorResponse(0, ns, mtest.NextBatch)
		mt.AddMockResponses(first, last)

		out, err := repo.FindAll(context.Background())
		require.NoError(mt, err)
		require.Len(mt, out, 2)

		assert.Equal(mt, id, out[0].ID)
		require.NotNil(mt, out[0].EndTimeUnix)
		assert.Equal(mt, 1600.0, *out[0].EndTimeUnix)
		require.NotNil(mt, out[0].DurationMinutes)
		assert.Equal(mt, "10.5", out[0].DurationMinutes.String())
		assert.Len(mt, out[0].Transcript, 1)

		assert.Equal(mt, models.DurationText("9.25"), *out[1].DurationMinutes)
		assert.Nil(mt, out[1].StartTimeUnix)
	})

	mt.Run("delete missing is not found", func(mt *mtest.T) {
		repo := NewInterviewRepo(mt.DB, "interviews")
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.DeleteByID(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, utils.ErrNotFound)
	})

	mt.Run("delete existing", func(mt *mtest.T) {
		repo := NewInterviewRepo(mt.DB, "interviews")
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, repo.DeleteByID(context.Background(), primitive.NewObjectID().Hex()))
	})

	mt.Run("delete malformed id", func(mt *mtest.T) {
		repo := NewInterviewRepo(mt.DB, "interviews")
		assert.ErrorIs(mt, repo.DeleteByID(context.Background(), "not-an-object-id"), utils.ErrNotFound)
	})

	mt.Run("upsert", func(mt *mtest.T) {
		repo := NewInterviewRepo(mt.DB, "interviews")
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.Upsert(context.Background(), &models.InterviewUpsert{Username: "alice", StartedAt: t0, UpdatedAt: t0})
		require.NoError(mt, err)
	})

	mt.Run("has completed", func(mt *mtest.T) {
		repo := NewInterviewRepo(mt.DB, "interviews")
		ns := mt.DB.Name() + ".interviews"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}))

		ok, err := repo.HasCompleted(context.Background(), "alice")
		require.NoError(mt, err)
		assert.True(mt, ok)
	})
}
