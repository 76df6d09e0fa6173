package services

import (
	"context"
	"errors"
	"io"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/utils"
)

// fakeRepo mirrors the store's upsert: insert-only fields are written once.
type fakeRepo struct {
	mu        sync.Mutex
	records   []models.InterviewRecord
	upserts   int
	upsertErr error
	findErr   error
	finds     int
}

func (f *fakeRepo) Upsert(_ context.Context, u *models.InterviewUpsert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.upsertErr != nil {
		return f.upsertErr
	}

	start := models.UnixSeconds(u.StartedAt)
	var rec *models.InterviewRecord
	for i := range f.records {
		r := &f.records[i]
		if r.Username == u.Username && r.StartTimeUnix != nil && *r.StartTimeUnix == start {
			rec = r
			break
		}
	}
	if rec == nil {
		f.records = append(f.records, models.InterviewRecord{
			ID:            primitive.NewObjectID(),
			Username:      u.Username,
			StartTimeUnix: &start,
			StartTimeUTC:  models.FormatTimestamp(u.StartedAt),
			SystemPrompt:  u.SystemPrompt,
		})
		rec = &f.records[len(f.records)-1]
	}

	updated := models.UnixSeconds(u.UpdatedAt)
	rec.LastUpdatedUnix = &updated
	rec.LastUpdatedUTC = models.FormatTimestamp(u.UpdatedAt)
	rec.Transcript = append([]models.Message(nil), u.Transcript...)
	if u.EndedAt != nil {
		end := models.UnixSeconds(*u.EndedAt)
		rec.EndTimeUnix = &end
		rec.EndTimeUTC = models.FormatTimestamp(*u.EndedAt)
	}
	if u.DurationMinutes != nil {
		d := models.NewDurationText(*u.DurationMinutes)
		rec.DurationMinutes = &d
	}
	return nil
}

func (f *fakeRepo) FindAll(context.Context) ([]models.InterviewRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	if f.findErr != nil {
		return nil, f.findErr
	}
	return append([]models.InterviewRecord(nil), f.records...), nil
}

func (f *fakeRepo) DeleteByID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.records {
		if r.ID.Hex() == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return utils.ErrNotFound
}

func (f *fakeRepo) HasCompleted(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.records {
		if f.records[i].Username == username && f.records[i].Completed() {
			return true, nil
		}
	}
	return false, nil
}

// scriptedLLM answers with the next scripted reply, split into two chunks.
type scriptedLLM struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []string
}

func (l *scriptedLLM) StreamAnswer(_ context.Context, prompt string) (<-chan string, <-chan error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prompts = append(l.prompts, prompt)

	out := make(chan string, 2)
	errs := make(chan error, 1)
	if l.err != nil {
		errs <- l.err
	} else if len(l.replies) > 0 {
		r := l.replies[0]
		l.replies = l.replies[1:]
		half := len(r) / 2
		out <- r[:half]
		out <- r[half:]
	}
	close(out)
	close(errs)
	return out, errs
}

func (l *scriptedLLM) Close() error { return nil }

type fakeSpeech struct {
	text string
	err  error
}

func (s *fakeSpeech) Transcribe(context.Context, []byte, string) (string, float64, error) {
	return s.text, 0.9, s.err
}

func (s *fakeSpeech) Close() error { return nil }

type fakeArchive struct {
	mu         sync.Mutex
	interviews []models.InterviewArchive
	runs       []models.ExportRun
	err        error
}

func (a *fakeArchive) SaveInterview(_ context.Context, row *models.InterviewArchive) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.interviews = append(a.interviews, *row)
	return nil
}

func (a *fakeArchive) RecordExportRun(_ context.Context, run *models.ExportRun) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.runs = append(a.runs, *run)
	return nil
}

func (a *fakeArchive) LatestExportRuns(_ context.Context, n int) ([]models.ExportRun, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	if n > len(a.runs) {
		n = len(a.runs)
	}
	return append([]models.ExportRun(nil), a.runs[:n]...), nil
}

type fakeUploader struct {
	name string
	body string
	err  error
}

func (u *fakeUploader) Upload(_ context.Context, objectName, _ string, r io.Reader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	u.name, u.body = objectName, string(b)
	return "gs://bucket/" + objectName, nil
}

func (u *fakeUploader) Close() error { return nil }

var errBoom = errors.New("boom")
