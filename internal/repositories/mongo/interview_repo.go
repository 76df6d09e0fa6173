package mongo

import (
	"context"

	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type InterviewRepository interface {
	// Upsert inserts or updates the record keyed by (username, start_time_unix).
	Upsert(ctx context.Context, u *models.InterviewUpsert) error
	// FindAll is an unordered full scan.
	FindAll(ctx context.Context) ([]models.InterviewRecord, error)
	// DeleteByID removes one record by _id; utils.ErrNotFound when absent.
	DeleteByID(ctx context.Context, id string) error
	HasCompleted(ctx context.Context, username string) (bool, error)
}

type interviewRepo struct {
	col *mongo.Collection
}

func NewInterviewRepo(db *mongo.Database, collection string) InterviewRepository {
	if collection == "" {
		collection = "interviews"
	}
	return &interviewRepo{col: db.Collection(collection)}
}

func (r *interviewRepo) Upsert(ctx context.Context, u *models.InterviewUpsert) error {
	filter, update := upsertDocuments(u)
	_, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// upsertDocuments builds the natural-key filter and the update. Fields fixed at
// creation go to $setOnInsert so later turns never overwrite them.
func upsertDocuments(u *models.InterviewUpsert) (bson.M, bson.M) {
	start := models.UnixSeconds(u.StartedAt)

	transcript := u.Transcript
	if transcript == nil {
		transcript = []models.Message{}
	}

	set := bson.M{
		"last_updated_unix": models.UnixSeconds(u.UpdatedAt),
		"last_updated_utc":  models.FormatTimestamp(u.UpdatedAt),
		"transcript":        transcript,
	}
	if u.EndedAt != nil {
		set["end_time_unix"] = models.UnixSeconds(*u.EndedAt)
		set["end_time_utc"] = models.FormatTimestamp(*u.EndedAt)
	}
	if u.DurationMinutes != nil {
		set["duration_minutes"] = models.NewDurationText(*u.DurationMinutes)
	}

	filter := bson.M{"username": u.Username, "start_time_unix": start}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"username":        u.Username,
			"start_time_unix": start,
			"start_time_utc":  models.FormatTimestamp(u.StartedAt),
			"system_prompt":   u.SystemPrompt,
		},
	}
	return filter, update
}

func (r *interviewRepo) FindAll(ctx context.Context) ([]models.InterviewRecord, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.InterviewRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *interviewRepo) DeleteByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return utils.ErrNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *interviewRepo) HasCompleted(ctx context.Context, username string) (bool, error) {
	n, err := r.col.CountDocuments(ctx,
		bson.M{
			"username": username,
			"$or": bson.A{
				bson.M{"end_time_unix": bson.M{"$exists": true}},
				bson.M{"duration_minutes": bson.M{"$exists": true}},
			},
		},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
