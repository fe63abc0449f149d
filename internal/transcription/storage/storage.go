package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/talentview/transcription-worker/internal/transcription/domain"
)

// Storage is the record store adapter for the responses table
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// responseRow mirrors one row of the responses table before the jsonb
// document is decoded.
type responseRow struct {
	ID               string         `db:"id"`
	Data             []byte         `db:"data"`
	ProcessingStatus sql.NullString `db:"processing_status"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r *responseRow) toRecord() (*domain.Record, error) {
	rec := &domain.Record{
		ID:        r.ID,
		Data:      domain.RecordData{},
		UpdatedAt: r.UpdatedAt,
	}

	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &rec.Data); err != nil {
			return nil, fmt.Errorf("failed to decode record data: %w", err)
		}
	}

	if r.ProcessingStatus.Valid {
		status := r.ProcessingStatus.String
		rec.ProcessingStatus = &status
	}

	return rec, nil
}

// GetByID retrieves a response record by its ID
func (s *Storage) GetByID(ctx context.Context, id string) (*domain.Record, error) {
	query := `
		SELECT id, data, processing_status, updated_at
		FROM responses
		WHERE id = $1
	`

	var row responseRow
	err := s.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}

	return row.toRecord()
}

// ClaimPending attempts the pending -> processing transition as a single
// conditional update, so only one of two racing triggers can win. A NULL
// status counts as pending; records created before the status column was
// backfilled are still claimable. Losing the race returns ErrAlreadyClaimed.
func (s *Storage) ClaimPending(ctx context.Context, id string) error {
	query := `
		UPDATE responses
		SET processing_status = $1,
		    updated_at = NOW()
		WHERE id = $2
		  AND (processing_status = $3 OR processing_status IS NULL)
	`

	result, err := s.db.ExecContext(ctx, query, domain.StatusProcessing, id, domain.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to claim response: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.Warn("Failed to claim response - already claimed or not pending",
			slog.String("response_id", id),
		)
		return domain.ErrAlreadyClaimed
	}

	s.logger.Info("Response claimed for processing",
		slog.String("response_id", id),
	)

	return nil
}

// UpdateWithResult merges output fields into the record's data document and
// sets the terminal status in one statement. Merge keys are only ever added
// to the document, never removed.
func (s *Storage) UpdateWithResult(ctx context.Context, id string, merge map[string]any, status string) error {
	mergeJSON, err := json.Marshal(merge)
	if err != nil {
		return fmt.Errorf("failed to marshal result merge: %w", err)
	}

	query := `
		UPDATE responses
		SET data = COALESCE(data, '{}'::jsonb) || $1::jsonb,
		    processing_status = $2,
		    updated_at = NOW()
		WHERE id = $3
	`

	_, err = s.db.ExecContext(ctx, query, mergeJSON, status, id)
	if err != nil {
		return fmt.Errorf("failed to update response with result: %w", err)
	}

	s.logger.Info("Response status updated",
		slog.String("response_id", id),
		slog.String("status", status),
	)

	return nil
}

// QueryPending returns up to limit video responses still waiting for
// processing. The sweep path requires the literal pending status; NULL
// rows are only reachable through the webhook path.
func (s *Storage) QueryPending(ctx context.Context, limit int) ([]domain.Record, error) {
	query := `
		SELECT id, data, processing_status, updated_at
		FROM responses
		WHERE processing_status = $1
		  AND data->>'type' = $2
		ORDER BY updated_at ASC
		LIMIT $3
	`

	var rows []responseRow
	err := s.db.SelectContext(ctx, &rows, query, domain.StatusPending, domain.KindVideo, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending responses: %w", err)
	}

	records := make([]domain.Record, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	return records, nil
}
