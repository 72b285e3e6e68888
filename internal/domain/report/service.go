package report

import (
	"context"
	"fmt"
	"log/slog"

	"loan-forecast/internal/domain/amortization"
	"loan-forecast/internal/infrastructure/monitoring"
	"loan-forecast/internal/pkg/apperrors"
)

// ErrorText is shown in place of a report when generation fails.
const ErrorText = "Error generating report."

// Cache stores generated reports by key. Get reports a miss with ok == false
// and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

type Result struct {
	Text        string
	Available   bool
	Cached      bool
	Provider    string
	Fingerprint string
}

type Service struct {
	generator Generator
	cache     Cache
	logger    *slog.Logger
}

func NewService(g Generator, c Cache, logger *slog.Logger) *Service {
	if g == nil {
		g = TemplateGenerator{}
	}
	return &Service{
		generator: g,
		cache:     c,
		logger:    logger.With("component", "ReportService", "provider", g.Name()),
	}
}

func (s *Service) cacheKey(fingerprint string) string {
	return fmt.Sprintf("report:%s:%s", s.generator.Name(), fingerprint)
}

// Report returns the report for rows, generating it on a cache miss. When the
// generator fails the result carries ErrorText and the returned error wraps
// apperrors.ErrReportUnavailable.
func (s *Service) Report(ctx context.Context, rows []amortization.InstallmentRow) (*Result, error) {
	fp := amortization.Fingerprint(rows)
	res := &Result{Provider: s.generator.Name(), Fingerprint: fp}
	key := s.cacheKey(fp)

	if s.cache != nil {
		text, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.WarnContext(ctx, "Report cache lookup failed", "fingerprint", fp, "error", err)
		}
		monitoring.RecordReportCacheLookup(ok)
		if ok {
			res.Text, res.Available, res.Cached = text, true, true
			return res, nil
		}
	}

	text, err := s.generator.Generate(ctx, rows)
	if err != nil {
		monitoring.RecordReportGenerated(s.generator.Name(), "failure")
		s.logger.ErrorContext(ctx, "Report generation failed", "fingerprint", fp, "error", err)
		res.Text = ErrorText
		return res, apperrors.WrapReportError(err, "report generation failed")
	}
	monitoring.RecordReportGenerated(s.generator.Name(), "success")

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, text); err != nil {
			s.logger.WarnContext(ctx, "Failed to cache report", "fingerprint", fp, "error", err)
		}
	}

	res.Text, res.Available = text, true
	return res, nil
}
