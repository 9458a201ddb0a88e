package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/feanalyst/fe-analyst/internal/scores"
)

// ScoreExporter uploads a batch of score records somewhere durable.
// Satisfied by export.S3Exporter.
type ScoreExporter interface {
	Export(ctx context.Context, records []scores.Record) error
}

// ExportJob uploads the latest composite per ticker to the configured
// export target.
type ExportJob struct {
	scores   *scores.Repository
	exporter ScoreExporter
	log      zerolog.Logger
}

// NewExportJob creates a new score export job
func NewExportJob(scoreRepo *scores.Repository, exporter ScoreExporter, log zerolog.Logger) *ExportJob {
	return &ExportJob{
		scores:   scoreRepo,
		exporter: exporter,
		log:      log.With().Str("job", "score_export").Logger(),
	}
}

// Name implements Job
func (j *ExportJob) Name() string { return "score_export" }

// Run implements Job
func (j *ExportJob) Run() error {
	records, err := j.scores.Latest()
	if err != nil {
		return fmt.Errorf("failed to load latest scores: %w", err)
	}

	if len(records) == 0 {
		j.log.Debug().Msg("No scores to export")
		return nil
	}

	if err := j.exporter.Export(context.Background(), records); err != nil {
		return fmt.Errorf("failed to export scores: %w", err)
	}

	return nil
}

// QuotaResetJob resets the market-data provider's daily request budget.
// Scheduled at midnight UTC.
type QuotaResetJob struct {
	reset func()
}

// NewQuotaResetJob creates a quota reset job around the provider's
// reset function
func NewQuotaResetJob(reset func()) *QuotaResetJob {
	return &QuotaResetJob{reset: reset}
}

// Name implements Job
func (j *QuotaResetJob) Name() string { return "provider_quota_reset" }

// Run implements Job
func (j *QuotaResetJob) Run() error {
	j.reset()
	return nil
}
