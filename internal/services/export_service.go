package services

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoointerview/internal/models"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yoointerview/internal/repositories/postgres"
	"github.com/yoockh/yoointerview/internal/storage"
	"github.com/yoockh/yoointerview/internal/transcripts"
	"github.com/yoockh/yoointerview/internal/utils"
)

const DefaultExportPath = "downloaded_transcripts/all_transcripts.txt"

type ExportRequest struct {
	ExcludeUsernames []string
	// D/M/YYYY; an unparsable value is reported and leaves that bound open
	StartDate   string
	EndDate     string
	MinDuration float64
	OutputPath  string
	Upload      bool
	// Gzip compresses the uploaded copy; the local file stays plain text.
	Gzip bool
}

type ExportReport struct {
	transcripts.Result
	StartDate  *time.Time
	EndDate    *time.Time
	Written    bool
	OutputPath string
	UploadedTo string
}

type ExportService interface {
	Export(ctx context.Context, req ExportRequest) (*ExportReport, error)
	Diagnose(ctx context.Context, threshold float64) (*transcripts.Diagnosis, error)
	Runs(ctx context.Context, n int) ([]models.ExportRun, error)
}

type exportService struct {
	repo     mongorepo.InterviewRepository
	archives pgrepo.ArchiveRepository // optional
	uploader storage.Uploader         // optional
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewExportService(repo mongorepo.InterviewRepository, archives pgrepo.ArchiveRepository, uploader storage.Uploader, log logrus.FieldLogger) ExportService {
	return &exportService{repo: repo, archives: archives, uploader: uploader, log: log, now: time.Now}
}

func (s *exportService) Export(ctx context.Context, req ExportRequest) (*ExportReport, error) {
	const op = "ExportService.Export"

	if req.MinDuration < 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "min duration must not be negative", nil)
	}
	if req.Upload && s.uploader == nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "upload requested but EXPORT_BUCKET is not set", nil)
	}
	if req.OutputPath == "" {
		req.OutputPath = DefaultExportPath
	}

	report := &ExportReport{OutputPath: req.OutputPath}
	report.StartDate = s.bound("start", req.StartDate, &report.Warnings)
	report.EndDate = s.bound("end", req.EndDate, &report.Warnings)

	records, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to load interviews", err)
	}

	res := transcripts.Filter(records, transcripts.Options{
		ExcludeUsernames: cleanNames(req.ExcludeUsernames),
		StartDate:        report.StartDate,
		EndDate:          report.EndDate,
		MinDuration:      req.MinDuration,
	}, s.log)
	res.Warnings = append(report.Warnings, res.Warnings...)
	report.Result = res

	if len(res.Entries) == 0 {
		s.audit(ctx, req, report)
		return report, nil
	}

	if err := transcripts.WriteExportFile(req.OutputPath, res.Entries); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to write export file", err)
	}
	report.Written = true

	if req.Upload {
		name := fmt.Sprintf("exports/%s_%s", s.now().UTC().Format("20060102T150405Z"), filepath.Base(req.OutputPath))
		body, contentType, err := renderUpload(res.Entries, req.Gzip)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to render export", err)
		}
		if req.Gzip {
			name += ".gz"
		}
		stored, err := s.uploader.Upload(ctx, name, contentType, body)
		if err != nil {
			return nil, utils.E(utils.CodeUnavailable, op, "failed to upload export", err)
		}
		report.UploadedTo = stored
	}

	s.audit(ctx, req, report)
	return report, nil
}

func renderUpload(entries []transcripts.Entry, compress bool) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	if !compress {
		if err := transcripts.WriteExport(&buf, entries); err != nil {
			return nil, "", err
		}
		return &buf, "text/plain; charset=utf-8", nil
	}

	zw := gzip.NewWriter(&buf)
	if err := transcripts.WriteExport(zw, entries); err != nil {
		return nil, "", err
	}
	if err := zw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, "application/gzip", nil
}

func (s *exportService) Diagnose(ctx context.Context, threshold float64) (*transcripts.Diagnosis, error) {
	const op = "ExportService.Diagnose"

	records, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to load interviews", err)
	}
	d := transcripts.Diagnose(records, threshold)
	return &d, nil
}

func (s *exportService) Runs(ctx context.Context, n int) ([]models.ExportRun, error) {
	const op = "ExportService.Runs"

	if s.archives == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "POSTGRES_URI is not set", nil)
	}
	rows, err := s.archives.LatestExportRuns(ctx, n)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list export runs", err)
	}
	return rows, nil
}

func (s *exportService) bound(name, raw string, warnings *[]string) *time.Time {
	t, err := transcripts.ParseDate(raw)
	if err != nil {
		msg := fmt.Sprintf("invalid %s date %q, expected D/M/YYYY; ignoring it", name, raw)
		*warnings = append(*warnings, msg)
		s.log.WithField("date", raw).Warn(msg)
		return nil
	}
	return t
}

// audit records the run when the archive is configured. Failures are logged only.
func (s *exportService) audit(ctx context.Context, req ExportRequest, r *ExportReport) {
	if s.archives == nil {
		return
	}
	run := &models.ExportRun{
		ID:                 uuid.NewString(),
		ExcludeUsernames:   pq.StringArray(cleanNames(req.ExcludeUsernames)),
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		MinDuration:        req.MinDuration,
		Total:              r.Total,
		ExcludedByUsername: r.ExcludedByUsername,
		ExcludedByDate:     r.ExcludedByDate,
		ExcludedByDuration: r.ExcludedByDuration,
		Exported:           len(r.Entries),
		CreatedAt:          s.now().UTC(),
	}
	if r.Written {
		run.OutputPath = r.OutputPath
	}
	if err := s.archives.RecordExportRun(ctx, run); err != nil {
		s.log.WithError(err).Warn("failed to record export run")
	}
}

func cleanNames(in []string) []string {
	out := make([]string, 0, len(in))
	for _, u := range in {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
