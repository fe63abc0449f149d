package transcription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/talentview/transcription-worker/internal/transcription/domain"
	"github.com/talentview/transcription-worker/internal/transcription/media"
)

// Store is the record store surface the processor and sweeper depend on
type Store interface {
	GetByID(ctx context.Context, id string) (*domain.Record, error)
	ClaimPending(ctx context.Context, id string) error
	UpdateWithResult(ctx context.Context, id string, merge map[string]any, status string) error
	QueryPending(ctx context.Context, limit int) ([]domain.Record, error)
}

// MediaResolver materializes a record's video payload
type MediaResolver interface {
	Resolve(ctx context.Context, rec *domain.Record) (*media.File, error)
}

// Transcriber converts a local video file into a transcript
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (*domain.Transcript, error)
}

// Processor runs one record through its full lifecycle: claim, payload
// resolution, transcription, and result persistence.
type Processor struct {
	store       Store
	resolver    MediaResolver
	transcriber Transcriber
	logger      *slog.Logger
	now         func() time.Time
}

// NewProcessor creates a new Processor instance
func NewProcessor(store Store, resolver MediaResolver, transcriber Transcriber, logger *slog.Logger) *Processor {
	return &Processor{
		store:       store,
		resolver:    resolver,
		transcriber: transcriber,
		logger:      logger,
		now:         time.Now,
	}
}

// Process handles one response record end to end. Failures after the claim
// are persisted as a failed status before being returned, so a caller only
// ever needs to log them. A record that is not a video, or that a
// concurrent trigger already claimed, is not an error condition worth a
// status write: the first returns nil, the second ErrAlreadyClaimed.
func (p *Processor) Process(ctx context.Context, responseID string) error {
	p.logger.Info("Processing response",
		slog.String("response_id", responseID),
	)

	// Step 1: Fetch the record. A vanished record is propagated without any
	// status write; transient store errors are safe to redeliver.
	rec, err := p.store.GetByID(ctx, responseID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			p.logger.Error("Response not found",
				slog.String("response_id", responseID),
			)
			return err
		}
		return domain.NewRetryableError(fmt.Errorf("failed to fetch response: %w", err))
	}

	// Step 2: Only video responses are eligible; anything else is a no-op.
	if !rec.IsVideo() {
		p.logger.Info("Response is not a video, skipping",
			slog.String("response_id", responseID),
		)
		return nil
	}

	// Step 3: Atomically take the pending -> processing transition before
	// any slow work, so concurrent triggers see the record in flight.
	if err := p.store.ClaimPending(ctx, responseID); err != nil {
		if errors.Is(err, domain.ErrAlreadyClaimed) {
			p.logger.Info("Response already claimed by another trigger, skipping",
				slog.String("response_id", responseID),
			)
			return err
		}
		return domain.NewRetryableError(fmt.Errorf("failed to claim response: %w", err))
	}

	// Step 4: Materialize the video payload.
	file, err := p.resolver.Resolve(ctx, rec)
	if err != nil {
		p.markFailed(ctx, responseID, err)
		return fmt.Errorf("failed to resolve video payload: %w", err)
	}
	defer file.Close()

	// Step 5: Transcribe. Exhausted provider quota is a designed degraded
	// mode: substitute the deterministic synthetic transcript and still
	// complete the record, tagged with the fallback method.
	method := domain.MethodWhisper
	transcript, err := p.transcriber.Transcribe(ctx, file.Path)
	if err != nil {
		if !errors.Is(err, domain.ErrQuotaExhausted) {
			p.markFailed(ctx, responseID, err)
			return fmt.Errorf("transcription failed: %w", err)
		}

		p.logger.Warn("Using synthetic transcript - provider quota exhausted",
			slog.String("response_id", responseID),
		)
		transcript = domain.SyntheticTranscript()
		method = domain.MethodMockFallback
	}

	// Step 6: Merge the result into the record and mark it completed.
	merge := map[string]any{
		domain.DataKeyTranscript:        transcript.Text,
		domain.DataKeyTimedTranscript:   transcript.Segments,
		domain.DataKeyTranscriptionMeth: method,
		domain.DataKeyTranscribedAt:     p.now().UTC().Format(time.RFC3339),
	}

	if err := p.store.UpdateWithResult(ctx, responseID, merge, domain.StatusCompleted); err != nil {
		p.markFailed(ctx, responseID, err)
		return fmt.Errorf("failed to persist transcription result: %w", err)
	}

	p.logger.Info("Response processing completed",
		slog.String("response_id", responseID),
		slog.String("method", method),
		slog.Int("segments", len(transcript.Segments)),
	)

	return nil
}

// markFailed records the failure on the response. The write is best-effort:
// when it fails too, the error is swallowed after logging so the outer loop
// always regains control.
func (p *Processor) markFailed(ctx context.Context, responseID string, cause error) {
	merge := map[string]any{
		domain.DataKeyTranscriptionError: cause.Error(),
		domain.DataKeyFailedAt:           p.now().UTC().Format(time.RFC3339),
	}

	if err := p.store.UpdateWithResult(ctx, responseID, merge, domain.StatusFailed); err != nil {
		p.logger.Error("Failed to mark response as failed",
			slog.String("response_id", responseID),
			slog.String("error", err.Error()),
		)
	}
}
