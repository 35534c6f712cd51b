package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/rodrigolyusei/mynextflight/internal/domain"
)

const maxScanConcurrency = 16

type AlertScanner interface {
	ScanAll(ctx context.Context) ([]domain.Alert, error)
}

// Oracle quotes the cheapest one-way fare for a route and date.
type Oracle interface {
	Quote(ctx context.Context, origin, destination, date string) (domain.Fare, error)
}

type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeNotified
	OutcomeAboveThreshold
	OutcomeNoFares
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotified:
		return "notified"
	case OutcomeAboveThreshold:
		return "above_threshold"
	case OutcomeNoFares:
		return "no_fares"
	default:
		return "failed"
	}
}

// Result is the evaluation of one alert in a scan. Price is zero unless a
// fare was quoted.
type Result struct {
	Alert   domain.Alert
	Outcome Outcome
	Price   decimal.Decimal
	Err     error
}

type ScanReport struct {
	Total          int `json:"total"`
	Notified       int `json:"notified"`
	AboveThreshold int `json:"aboveThreshold"`
	NoFares        int `json:"noFares"`
	Failed         int `json:"failed"`
}

func (r *ScanReport) add(res Result) {
	switch res.Outcome {
	case OutcomeNotified:
		r.Notified++
	case OutcomeAboveThreshold:
		r.AboveThreshold++
	case OutcomeNoFares:
		r.NoFares++
	default:
		r.Failed++
	}
}

// ScanService checks every stored alert against the oracle and notifies
// owners whose threshold is met. Alerts stay active after notifying.
type ScanService struct {
	alerts      AlertScanner
	oracle      Oracle
	notifier    Notifier
	concurrency int
	limiter     *rate.Limiter
}

type ScanOption func(*ScanService)

// WithConcurrency bounds how many alerts are evaluated at once. Values are
// clamped to [1, 16].
func WithConcurrency(n int) ScanOption {
	return func(s *ScanService) {
		s.concurrency = min(max(n, 1), maxScanConcurrency)
	}
}

// WithOracleRate paces oracle calls to perSecond. Zero or less disables pacing.
func WithOracleRate(perSecond float64) ScanOption {
	return func(s *ScanService) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

func NewScanService(alerts AlertScanner, oracle Oracle, notifier Notifier, opts ...ScanOption) (*ScanService, error) {
	if alerts == nil {
		return nil, errors.New("usecase: alert scanner must not be nil")
	}
	if oracle == nil {
		return nil, errors.New("usecase: oracle must not be nil")
	}
	if notifier == nil {
		return nil, errors.New("usecase: notifier must not be nil")
	}
	s := &ScanService{
		alerts:      alerts,
		oracle:      oracle,
		notifier:    notifier,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run evaluates every alert once. Only a failure to load the alerts is
// returned; per-alert failures are counted in the report.
func (s *ScanService) Run(ctx context.Context) (ScanReport, error) {
	alerts, err := s.alerts.ScanAll(ctx)
	if err != nil {
		return ScanReport{}, newError(ErrorStore, "dynamodb_scan_error", err)
	}

	results := make([]Result, len(alerts))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for i, alert := range alerts {
		// Once the deadline passes, remaining alerts fail without starting.
		if err := ctx.Err(); err != nil {
			results[i] = Result{Alert: alert, Outcome: OutcomeFailed, Err: newError(ErrorInternal, "scan_cancelled", err)}
			continue
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i] = Result{Alert: alert, Outcome: OutcomeFailed, Err: newError(ErrorInternal, "scan_cancelled", ctx.Err())}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = s.evaluate(ctx, alert)
		}()
	}
	wg.Wait()

	report := ScanReport{Total: len(alerts)}
	for _, res := range results {
		report.add(res)
	}
	slog.InfoContext(ctx, "scan finished",
		"total", report.Total,
		"notified", report.Notified,
		"above_threshold", report.AboveThreshold,
		"no_fares", report.NoFares,
		"failed", report.Failed,
	)
	return report, nil
}

func (s *ScanService) evaluate(ctx context.Context, alert domain.Alert) (res Result) {
	res.Alert = alert
	log := slog.With("owner_id", alert.OwnerID, "alert_id", alert.AlertID, "route", alert.Origin+"->"+alert.Destination)

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "alert evaluation panicked", "panic", r)
			res.Outcome = OutcomeFailed
			res.Err = newError(ErrorInternal, "alert_panic", fmt.Errorf("panic: %v", r))
		}
	}()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			log.WarnContext(ctx, "oracle pacing aborted", "err", err)
			res.Err = newError(ErrorInternal, "rate_wait_error", err)
			return res
		}
	}

	fare, err := s.oracle.Quote(ctx, alert.Origin, alert.Destination, alert.Date)
	switch {
	case errors.Is(err, domain.ErrNoFares):
		log.InfoContext(ctx, "no fares found", "date", alert.Date)
		res.Outcome = OutcomeNoFares
		return res
	case err != nil:
		log.ErrorContext(ctx, "oracle quote failed", "err", err)
		res.Err = newError(ErrorUpstream, "oracle_error", err)
		return res
	}

	res.Price = fare.Price
	if !alert.Matches(fare.Price) {
		log.DebugContext(ctx, "fare above threshold", "price", formatPrice(fare.Price), "max_price", alert.MaxPrice.String())
		res.Outcome = OutcomeAboveThreshold
		return res
	}

	if err := s.notifier.Send(ctx, alert.OwnerID, fareAlertText(alert, fare)); err != nil {
		log.ErrorContext(ctx, "fare notification failed", "err", err)
		res.Err = newError(ErrorUpstream, "notify_error", err)
		return res
	}
	log.InfoContext(ctx, "fare notification sent", "price", formatPrice(fare.Price))
	res.Outcome = OutcomeNotified
	return res
}
