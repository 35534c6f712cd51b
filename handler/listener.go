package handler

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/rodrigolyusei/mynextflight/internal/usecase"
)

const webhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

type CommandExecutor interface {
	Execute(ctx context.Context, ownerID, text string) error
}

// telegramUpdate is the part of a Telegram Update the bot reacts to. Pointer
// fields distinguish absent values from zero values.
type telegramUpdate struct {
	Message *telegramMessage `json:"message"`
}

type telegramMessage struct {
	Chat *telegramChat `json:"chat"`
	Text *string       `json:"text"`
}

type telegramChat struct {
	ID *int64 `json:"id"`
}

// Listener receives Telegram webhook calls through API Gateway.
type Listener struct {
	exec          CommandExecutor
	webhookSecret string
}

// NewListener wires exec behind the webhook. An empty webhookSecret disables
// the secret header check.
func NewListener(exec CommandExecutor, webhookSecret string) (*Listener, error) {
	if exec == nil {
		return nil, errors.New("handler: command executor must not be nil")
	}
	return &Listener{exec: exec, webhookSecret: webhookSecret}, nil
}

// Handle always answers 200 for updates it chooses to ignore, so Telegram does
// not redeliver them. Only dependency failures yield 500.
func (l *Listener) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
	corrID := correlationID(req.Headers)
	log := slog.With("correlation_id", corrID)

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "listener panicked", "panic", r)
			resp, err = respondError(http.StatusInternalServerError, corrID, usecase.ErrorInternal), nil
		}
	}()

	if l.webhookSecret != "" {
		got := headerValue(req.Headers, webhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(l.webhookSecret)) != 1 {
			log.WarnContext(ctx, "webhook secret mismatch")
			return respondError(http.StatusUnauthorized, corrID, usecase.ErrorInvalidInput), nil
		}
	}

	update, err := decodeUpdate(req)
	if err != nil {
		log.WarnContext(ctx, "ignoring malformed update", "err", err)
		return respondOK(corrID), nil
	}
	msg := update.Message
	if msg == nil || msg.Text == nil || msg.Chat == nil || msg.Chat.ID == nil {
		log.DebugContext(ctx, "ignoring update without text message")
		return respondOK(corrID), nil
	}

	ownerID := strconv.FormatInt(*msg.Chat.ID, 10)
	if err := l.exec.Execute(ctx, ownerID, *msg.Text); err != nil {
		code := errorCode(err)
		log.ErrorContext(ctx, "command failed", "owner_id", ownerID, "code", string(code), "err", err)
		return respondError(http.StatusInternalServerError, corrID, code), nil
	}
	return respondOK(corrID), nil
}

func decodeUpdate(req events.APIGatewayProxyRequest) (telegramUpdate, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return telegramUpdate{}, fmt.Errorf("decode base64 body: %w", err)
		}
		body = decoded
	}
	var update telegramUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		return telegramUpdate{}, fmt.Errorf("unmarshal update: %w", err)
	}
	return update, nil
}
