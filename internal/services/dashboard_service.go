package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoointerview/internal/cache"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/navigator"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	"github.com/yoockh/yoointerview/internal/transcripts"
	"github.com/yoockh/yoointerview/internal/utils"
)

const (
	recordsCacheKey  = "dashboard:records"
	stateCachePrefix = "dashboard:state:"
	stateTTL         = 24 * time.Hour
)

// DashboardView is the operator's current position in the record set.
type DashboardView struct {
	Filter        string                  `json:"filter"`
	Usernames     []string                `json:"usernames"`
	Index         int                     `json:"index"`
	Total         int                     `json:"total"`
	Record        *models.InterviewRecord `json:"record,omitempty"`
	Duration      *DurationView           `json:"duration,omitempty"`
	PendingDelete string                  `json:"pending_delete,omitempty"`
}

type DurationView struct {
	Minutes     float64  `json:"minutes"`
	Defined     bool     `json:"defined"`
	Source      string   `json:"source"`
	Approximate bool     `json:"approximate"`
	Warnings    []string `json:"warnings,omitempty"`
}

type Download struct {
	Filename string
	Body     string
}

type DashboardService interface {
	View(ctx context.Context, operator string) (*DashboardView, error)
	SetFilter(ctx context.Context, operator, username string) (*DashboardView, error)
	Goto(ctx context.Context, operator string, index int) (*DashboardView, error)
	Next(ctx context.Context, operator string) (*DashboardView, error)
	Prev(ctx context.Context, operator string) (*DashboardView, error)
	RequestDelete(ctx context.Context, operator string) (*DashboardView, error)
	CancelDelete(ctx context.Context, operator string) (*DashboardView, error)
	ConfirmDelete(ctx context.Context, operator string) (*DashboardView, error)
	Download(ctx context.Context, operator string) (*Download, error)
	// Refresh drops the cached record set so the next view reloads the store.
	Refresh(ctx context.Context, operator string) (*DashboardView, error)
}

type dashboardService struct {
	repo     mongorepo.InterviewRepository
	cache    cache.Cache
	cacheTTL time.Duration
	log      logrus.FieldLogger
}

func NewDashboardService(repo mongorepo.InterviewRepository, c cache.Cache, cacheTTL time.Duration, log logrus.FieldLogger) DashboardService {
	return &dashboardService{repo: repo, cache: c, cacheTTL: cacheTTL, log: log}
}

func (s *dashboardService) View(ctx context.Context, operator string) (*DashboardView, error) {
	const op = "DashboardService.View"
	return s.apply(ctx, op, operator, func(*navigator.Navigator) error { return nil })
}

func (s *dashboardService) SetFilter(ctx context.Context, operator, username string) (*DashboardView, error) {
	const op = "DashboardService.SetFilter"
	return s.apply(ctx, op, operator, func(n *navigator.Navigator) error {
		n.SetFilter(username)
		return nil
	})
}

func (s *dashboardService) Goto(ctx context.Context, operator string, index int) (*DashboardView, error) {
	const op = "DashboardService.Goto"
	return s.apply(ctx, op, operator, func(n *navigator.Navigator) error { return n.Goto(index) })
}

func (s *dashboardService) Next(ctx context.Context, operator string) (*DashboardView, error) {
	const op = "DashboardService.Next"
	return s.apply(ctx, op, operator, func(n *navigator.Navigator) error {
		n.Next()
		return nil
	})
}

func (s *dashboardService) Prev(ctx context.Context, operator string) (*DashboardView, error) {
	const op = "DashboardService.Prev"
	return s.apply(ctx, op, operator, func(n *navigator.Navigator) error {
		n.Prev()
		return nil
	})
}

func (s *dashboardService) RequestDelete(ctx context.Context, operator string) (*DashboardView, error) {
	const op = "DashboardService.RequestDelete"
	return s.apply(ctx, op, operator, func(n *navigator.Navigator) error {
		_, err := n.RequestDelete()
		return err
	})
}

func (s *dashboardService) CancelDelete(ctx context.Context, operator string) (*DashboardView, error) {
	const op = "DashboardService.CancelDelete"
	return s.apply(ctx, op, operator, func(n *navigator.Navigator) error {
		n.CancelDelete()
		return nil
	})
}

func (s *dashboardService) ConfirmDelete(ctx context.Context, operator string) (*DashboardView, error) {
	const op = "DashboardService.ConfirmDelete"

	if operator == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "operator session is required", nil)
	}
	records, err := s.records(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to load interviews", err)
	}
	n := navigator.New(records, s.loadState(ctx, operator))

	id, err := n.ConfirmDelete()
	if err != nil {
		return nil, navError(op, err)
	}

	// the navigator is reset either way; a missing record still leaves the store unchanged
	s.saveState(ctx, operator, n.State())
	s.invalidate(ctx)

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to delete interview", err)
	}
	s.log.WithFields(logrus.Fields{"operator": operator, "id": id}).Info("interview deleted")

	return s.View(ctx, operator)
}

func (s *dashboardService) Download(ctx context.Context, operator string) (*Download, error) {
	const op = "DashboardService.Download"

	view, err := s.View(ctx, operator)
	if err != nil {
		return nil, err
	}
	if view.Record == nil {
		return nil, utils.E(utils.CodeNotFound, op, "no interview selected", navigator.ErrEmpty)
	}
	return &Download{
		Filename: transcripts.DownloadFilename(view.Record),
		Body:     transcripts.RenderDownload(view.Record),
	}, nil
}

func (s *dashboardService) Refresh(ctx context.Context, operator string) (*DashboardView, error) {
	s.invalidate(ctx)
	return s.View(ctx, operator)
}

// apply loads the operator's navigator, runs fn, and stores the new state.
func (s *dashboardService) apply(ctx context.Context, op, operator string, fn func(*navigator.Navigator) error) (*DashboardView, error) {
	if operator == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "operator session is required", nil)
	}

	records, err := s.records(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to load interviews", err)
	}

	n := navigator.New(records, s.loadState(ctx, operator))
	if err := fn(n); err != nil {
		return nil, navError(op, err)
	}
	s.saveState(ctx, operator, n.State())
	return render(n), nil
}

func (s *dashboardService) records(ctx context.Context) ([]models.InterviewRecord, error) {
	return cache.GetOrLoad(ctx, s.cache, s.log, recordsCacheKey, s.cacheTTL, func(ctx context.Context) ([]models.InterviewRecord, error) {
		records, err := s.repo.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		transcripts.SortNewestFirst(records)
		return records, nil
	})
}

func (s *dashboardService) invalidate(ctx context.Context) {
	if err := s.cache.Del(ctx, recordsCacheKey); err != nil {
		s.log.WithError(err).Warn("dashboard cache invalidation failed")
	}
}

func (s *dashboardService) loadState(ctx context.Context, operator string) navigator.State {
	var st navigator.State
	if _, err := s.cache.GetJSON(ctx, stateCachePrefix+operator, &st); err != nil {
		s.log.WithError(err).WithField("operator", operator).Warn("navigator state read failed")
		return navigator.State{}
	}
	return st
}

func (s *dashboardService) saveState(ctx context.Context, operator string, st navigator.State) {
	if err := s.cache.SetJSON(ctx, stateCachePrefix+operator, st, stateTTL); err != nil {
		s.log.WithError(err).WithField("operator", operator).Warn("navigator state write failed")
	}
}

func render(n *navigator.Navigator) *DashboardView {
	st := n.State()
	v := &DashboardView{
		Filter:        st.Filter,
		Usernames:     n.Usernames(),
		Index:         n.Index(),
		Total:         n.Len(),
		PendingDelete: st.PendingDelete,
	}
	if cur, ok := n.Current(); ok {
		rec := *cur
		d := transcripts.Reconcile(&rec)
		v.Record = &rec
		v.Duration = &DurationView{
			Minutes:     d.Minutes,
			Defined:     d.Defined,
			Source:      string(d.Source),
			Approximate: d.Approximate(),
			Warnings:    d.Warnings,
		}
	}
	return v
}

func navError(op string, err error) error {
	switch {
	case errors.Is(err, navigator.ErrOutOfRange):
		return utils.E(utils.CodeInvalidArgument, op, "position out of range", err)
	case errors.Is(err, navigator.ErrEmpty):
		return utils.E(utils.CodeNotFound, op, "no interviews to select", err)
	case errors.Is(err, navigator.ErrNoPendingDelete):
		return utils.E(utils.CodeConflict, op, "no delete awaiting confirmation", err)
	default:
		return utils.E(utils.CodeInternal, op, "navigation failed", err)
	}
}
