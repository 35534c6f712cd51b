package handler

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"github.com/rodrigolyusei/mynextflight/internal/domain"
	"github.com/rodrigolyusei/mynextflight/internal/usecase"
)

type stubRunner struct {
	report usecase.ScanReport
	err    error
	panics bool
	calls  int
}

func (s *stubRunner) Run(context.Context) (usecase.ScanReport, error) {
	s.calls++
	if s.panics {
		panic("nil pointer")
	}
	return s.report, s.err
}

func scheduledEvent() events.CloudWatchEvent {
	return events.CloudWatchEvent{
		ID:         "evt-1",
		DetailType: "Scheduled Event",
		Source:     "aws.events",
		Time:       time.Date(2025, 12, 1, 6, 0, 0, 0, time.UTC),
	}
}

func TestNewScanner_ValidatesDependency(t *testing.T) {
	_, err := NewScanner(nil)
	require.Error(t, err)
}

func TestScanner_ReturnsReport(t *testing.T) {
	want := usecase.ScanReport{Total: 3, Notified: 1, NoFares: 1, Failed: 1}
	runner := &stubRunner{report: want}
	s, err := NewScanner(runner)
	require.NoError(t, err)

	got, err := s.Handle(context.Background(), scheduledEvent())
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, 1, runner.calls)
}

func TestScanner_PropagatesScanFailure(t *testing.T) {
	s, err := NewScanner(&stubRunner{err: domain.ErrStoreUnavailable})
	require.NoError(t, err)

	_, err = s.Handle(context.Background(), scheduledEvent())
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestScanner_RecoversPanic(t *testing.T) {
	s, err := NewScanner(&stubRunner{panics: true})
	require.NoError(t, err)

	report, err := s.Handle(context.Background(), scheduledEvent())
	require.Error(t, err)
	require.Contains(t, err.Error(), "panicked")
	require.Equal(t, usecase.ScanReport{}, report)
}
