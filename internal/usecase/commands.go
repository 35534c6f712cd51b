package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rodrigolyusei/mynextflight/internal/domain"
)

type AlertStore interface {
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Alert, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	Insert(ctx context.Context, alert domain.Alert) error
	Delete(ctx context.Context, ownerID, alertID string) (domain.Alert, error)
}

// Notifier delivers a text to an owner's chat.
type Notifier interface {
	Send(ctx context.Context, ownerID, text string) error
}

// CommandService answers chat commands. Every Execute sends exactly one reply.
type CommandService struct {
	store    AlertStore
	notifier Notifier
}

func NewCommandService(store AlertStore, notifier Notifier) (*CommandService, error) {
	if store == nil {
		return nil, errors.New("usecase: alert store must not be nil")
	}
	if notifier == nil {
		return nil, errors.New("usecase: notifier must not be nil")
	}
	return &CommandService{store: store, notifier: notifier}, nil
}

// Execute parses text, applies it to ownerID's alerts and replies in chat.
// Only dependency failures are returned; the reply itself is best effort.
func (s *CommandService) Execute(ctx context.Context, ownerID, text string) error {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return newError(ErrorInvalidInput, "empty_owner_id", nil)
	}

	cmd := ParseCommand(text)
	reply, err := s.reply(ctx, ownerID, cmd)
	if err != nil {
		return err
	}

	if err := s.notifier.Send(ctx, ownerID, reply); err != nil {
		slog.WarnContext(ctx, "reply delivery failed", "owner_id", ownerID, "intent", cmd.Intent.String(), "err", err)
	}
	return nil
}

func (s *CommandService) reply(ctx context.Context, ownerID string, cmd Command) (string, error) {
	switch cmd.Intent {
	case IntentHelp:
		return helpText, nil
	case IntentList:
		return s.list(ctx, ownerID)
	case IntentAdd:
		return s.add(ctx, ownerID, cmd.Args)
	case IntentRemove:
		return s.remove(ctx, ownerID, cmd.Args)
	default:
		return unknownCommandText, nil
	}
}

func (s *CommandService) list(ctx context.Context, ownerID string) (string, error) {
	alerts, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return "", newError(ErrorStore, "dynamodb_list_error", err)
	}
	if len(alerts) == 0 {
		return emptyListText, nil
	}
	return listText(alerts), nil
}

// add expects ORIGIN DESTINATION DATE PRICE.
func (s *CommandService) add(ctx context.Context, ownerID string, args []string) (string, error) {
	if len(args) != 4 {
		return addUsageText, nil
	}

	count, err := s.store.CountByOwner(ctx, ownerID)
	if err != nil {
		return "", newError(ErrorStore, "dynamodb_count_error", err)
	}
	if count >= domain.MaxAlertsPerOwner {
		return capReachedText(count), nil
	}

	rawPrice := args[3]
	price, err := decimal.NewFromString(rawPrice)
	if err != nil || domain.ValidatePrice(price) != nil {
		return invalidPriceText, nil
	}

	alert := domain.Alert{
		OwnerID:     ownerID,
		AlertID:     newAlertID(),
		Origin:      strings.ToUpper(args[0]),
		Destination: strings.ToUpper(args[1]),
		Date:        args[2],
		MaxPrice:    price,
	}
	if err := s.store.Insert(ctx, alert); err != nil {
		return "", newError(ErrorStore, "dynamodb_insert_error", err)
	}
	slog.InfoContext(ctx, "alert created", "owner_id", ownerID, "alert_id", alert.AlertID)
	return createdText(alert, rawPrice), nil
}

func (s *CommandService) remove(ctx context.Context, ownerID string, args []string) (string, error) {
	if len(args) != 1 {
		return removeUsageText, nil
	}
	alertID := args[0]

	prior, err := s.store.Delete(ctx, ownerID, alertID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return notFoundText(alertID), nil
	case err != nil:
		slog.ErrorContext(ctx, "alert removal failed", "owner_id", ownerID, "alert_id", alertID, "err", err)
		return removeFailedText, nil
	}
	slog.InfoContext(ctx, "alert removed", "owner_id", ownerID, "alert_id", alertID)
	return removedText(prior), nil
}

var newAlertID = func() string {
	return uuid.NewString()[:8]
}
