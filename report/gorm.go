package report

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/hairizuan-noorazman/helpdesk-pilot/logger"
	"github.com/hairizuan-noorazman/helpdesk-pilot/testcase"
)

// runRecord maps to the runs table.
type runRecord struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	StartedAt    time.Time `gorm:"not null"`
	FinishedAt   time.Time `gorm:"not null"`
	TotalTests   int
	Passed       int
	Failed       int
	Skipped      int
	PassRate     float64
	DurationMs   int64
	InputTokens  int64
	OutputTokens int64
	Cost         float64
	CreatedAt    time.Time
	Cases        []caseRecord `gorm:"foreignKey:RunID;references:ID"`
}

func (runRecord) TableName() string { return "runs" }

// caseRecord maps to the run_cases table.
type caseRecord struct {
	RunID        string `gorm:"type:varchar(36);primaryKey"`
	Position     int    `gorm:"primaryKey;autoIncrement:false"`
	CaseID       string `gorm:"type:varchar(64);not null"`
	CaseKey      string `gorm:"type:varchar(255);not null"`
	Status       string `gorm:"type:varchar(20);not null"`
	DurationMs   int64
	InputTokens  int64
	OutputTokens int64
	Cost         float64
	Reason       string `gorm:"type:text"`
	Transcript   string `gorm:"type:varchar(512)"`
}

func (caseRecord) TableName() string { return "run_cases" }

func secondsToMs(s float64) int64  { return int64(s * 1000) }
func msToSeconds(ms int64) float64 { return float64(ms) / 1000 }

func toRecord(r *Report) *runRecord {
	rec := &runRecord{
		ID:           r.RunID,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		TotalTests:   r.Summary.TotalTests,
		Passed:       r.Summary.Passed,
		Failed:       r.Summary.Failed,
		Skipped:      r.Summary.Skipped,
		PassRate:     r.Summary.PassRate,
		DurationMs:   secondsToMs(r.Summary.TotalDuration),
		InputTokens:  r.Summary.InputTokens,
		OutputTokens: r.Summary.OutputTokens,
		Cost:         r.Summary.Cost,
	}
	for i, c := range r.Cases {
		rec.Cases = append(rec.Cases, caseRecord{
			RunID:        r.RunID,
			Position:     i,
			CaseID:       c.ID,
			CaseKey:      c.Key,
			Status:       string(c.Status),
			DurationMs:   secondsToMs(c.DurationSeconds),
			InputTokens:  c.InputTokens,
			OutputTokens: c.OutputTokens,
			Cost:         c.Cost,
			Reason:       c.Reason,
			Transcript:   c.Transcript,
		})
	}
	return rec
}

func fromRecord(rec *runRecord) *Report {
	r := &Report{
		RunID:      rec.ID,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
		Summary: Summary{
			TotalTests:    rec.TotalTests,
			Passed:        rec.Passed,
			Failed:        rec.Failed,
			Skipped:       rec.Skipped,
			PassRate:      rec.PassRate,
			TotalDuration: msToSeconds(rec.DurationMs),
			InputTokens:   rec.InputTokens,
			OutputTokens:  rec.OutputTokens,
			Cost:          rec.Cost,
		},
	}
	for _, c := range rec.Cases {
		r.Cases = append(r.Cases, CaseResult{
			ID:              c.CaseID,
			Key:             c.CaseKey,
			Status:          testcase.Status(c.Status),
			DurationSeconds: msToSeconds(c.DurationMs),
			InputTokens:     c.InputTokens,
			OutputTokens:    c.OutputTokens,
			Cost:            c.Cost,
			Reason:          c.Reason,
			Transcript:      c.Transcript,
		})
	}
	return r
}

// GormStore implements the Store interface using GORM. It works against
// both MySQL and SQLite.
type GormStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewGormStore creates a new gorm-backed run store.
func NewGormStore(db *gorm.DB, log logger.Logger) *GormStore {
	return &GormStore{
		db:     db,
		logger: log,
	}
}

// Save persists a report and its cases in one transaction.
func (s *GormStore) Save(ctx context.Context, r *Report) error {
	rec := toRecord(r)
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		s.logger.Error(ctx, "failed to save run", map[string]interface{}{
			"error":  err.Error(),
			"run_id": r.RunID,
		})
		return err
	}

	s.logger.Info(ctx, "run saved", map[string]interface{}{
		"run_id": r.RunID,
		"cases":  len(rec.Cases),
	})
	return nil
}

// Get retrieves a report with its cases by run ID.
func (s *GormStore) Get(ctx context.Context, runID string) (*Report, error) {
	var rec runRecord
	err := s.db.WithContext(ctx).
		Preload("Cases", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", runID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		s.logger.Error(ctx, "failed to get run", map[string]interface{}{
			"error":  err.Error(),
			"run_id": runID,
		})
		return nil, err
	}
	return fromRecord(&rec), nil
}

// List retrieves the most recent reports, newest first.
func (s *GormStore) List(ctx context.Context, limit int) ([]*Report, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []*runRecord
	err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		s.logger.Error(ctx, "failed to list runs", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	out := make([]*Report, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fromRecord(rec))
	}
	return out, nil
}
