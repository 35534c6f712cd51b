package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/rodrigolyusei/mynextflight/internal/usecase"
)

type ScanRunner interface {
	Run(ctx context.Context) (usecase.ScanReport, error)
}

// Scanner runs one alert scan per scheduled EventBridge invocation.
type Scanner struct {
	runner ScanRunner
}

func NewScanner(runner ScanRunner) (*Scanner, error) {
	if runner == nil {
		return nil, errors.New("handler: scan runner must not be nil")
	}
	return &Scanner{runner: runner}, nil
}

// Handle ignores the event content. A returned error marks the invocation as
// failed so the scheduler's retry policy applies.
func (s *Scanner) Handle(ctx context.Context, event events.CloudWatchEvent) (report usecase.ScanReport, err error) {
	log := slog.With("event_id", event.ID)

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "scan panicked", "panic", r)
			report, err = usecase.ScanReport{}, fmt.Errorf("handler: scan panicked: %v", r)
		}
	}()

	log.InfoContext(ctx, "scan started", "scheduled_at", event.Time)
	report, err = s.runner.Run(ctx)
	if err != nil {
		log.ErrorContext(ctx, "scan failed", "err", err)
		return usecase.ScanReport{}, err
	}
	return report, nil
}
