package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"github.com/rodrigolyusei/mynextflight/internal/domain"
	"github.com/rodrigolyusei/mynextflight/internal/usecase"
)

type stubExecutor struct {
	err     error
	panics  bool
	calls   int
	ownerID string
	text    string
}

func (s *stubExecutor) Execute(_ context.Context, ownerID, text string) error {
	s.calls++
	s.ownerID = ownerID
	s.text = text
	if s.panics {
		panic("boom")
	}
	return s.err
}

func makeEvent(body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/webhook",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func parseBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

const listUpdate = `{"update_id":1,"message":{"message_id":7,"chat":{"id":987654321,"type":"private"},"text":"/lista"}}`

func TestNewListener_ValidatesDependency(t *testing.T) {
	_, err := NewListener(nil, "")
	require.Error(t, err)
}

func TestListener_HappyPath(t *testing.T) {
	exec := &stubExecutor{}
	h, err := NewListener(exec, "")
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(listUpdate))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, exec.calls)
	require.Equal(t, "987654321", exec.ownerID)
	require.Equal(t, "/lista", exec.text)
	require.True(t, parseBody[okResponse](t, resp.Body).OK)
	require.NotEmpty(t, resp.Headers["X-Correlation-Id"])
}

func TestListener_NegativeChatID(t *testing.T) {
	exec := &stubExecutor{}
	h, err := NewListener(exec, "")
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), makeEvent(`{"message":{"chat":{"id":-1001234},"text":"/ajuda"}}`))
	require.NoError(t, err)
	require.Equal(t, "-1001234", exec.ownerID)
}

func TestListener_Base64Body(t *testing.T) {
	exec := &stubExecutor{}
	h, err := NewListener(exec, "")
	require.NoError(t, err)

	event := makeEvent(base64.StdEncoding.EncodeToString([]byte(listUpdate)))
	event.IsBase64Encoded = true
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/lista", exec.text)
}

func TestListener_IgnoredUpdates(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "not json", body: `not-json`},
		{name: "empty body", body: ``},
		{name: "no message", body: `{"update_id":1,"edited_message":{"chat":{"id":1},"text":"/lista"}}`},
		{name: "no text", body: `{"message":{"chat":{"id":1},"sticker":{}}}`},
		{name: "no chat", body: `{"message":{"text":"/lista"}}`},
		{name: "no chat id", body: `{"message":{"chat":{},"text":"/lista"}}`},
		{name: "null message", body: `{"message":null}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exec := &stubExecutor{}
			h, err := NewListener(exec, "")
			require.NoError(t, err)

			resp, err := h.Handle(context.Background(), makeEvent(tc.body))
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Zero(t, exec.calls)
		})
	}
}

func TestListener_ExecuteErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{name: "store", err: &usecase.Error{Code: usecase.ErrorStore, Reason: "dynamodb_count_error", Err: domain.ErrStoreUnavailable}, code: string(usecase.ErrorStore)},
		{name: "invalid input", err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "empty_owner_id"}, code: string(usecase.ErrorInvalidInput)},
		{name: "unexpected", err: errors.New("boom"), code: string(usecase.ErrorInternal)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, err := NewListener(&stubExecutor{err: tc.err}, "")
			require.NoError(t, err)

			resp, err := h.Handle(context.Background(), makeEvent(listUpdate))
			require.NoError(t, err)
			require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
			require.Equal(t, tc.code, parseBody[errorResponse](t, resp.Body).Error)
		})
	}
}

func TestListener_RecoversPanic(t *testing.T) {
	h, err := NewListener(&stubExecutor{panics: true}, "")
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(listUpdate))
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, string(usecase.ErrorInternal), parseBody[errorResponse](t, resp.Body).Error)
	require.NotEmpty(t, resp.Headers["X-Correlation-Id"])
}

func TestListener_WebhookSecret(t *testing.T) {
	cases := []struct {
		name   string
		header map[string]string
		status int
		calls  int
	}{
		{name: "match", header: map[string]string{"X-Telegram-Bot-Api-Secret-Token": "s3cret"}, status: http.StatusOK, calls: 1},
		{name: "match lowercase header", header: map[string]string{"x-telegram-bot-api-secret-token": "s3cret"}, status: http.StatusOK, calls: 1},
		{name: "mismatch", header: map[string]string{"X-Telegram-Bot-Api-Secret-Token": "wrong"}, status: http.StatusUnauthorized},
		{name: "missing", header: map[string]string{}, status: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exec := &stubExecutor{}
			h, err := NewListener(exec, "s3cret")
			require.NoError(t, err)

			event := makeEvent(listUpdate)
			for k, v := range tc.header {
				event.Headers[k] = v
			}
			resp, err := h.Handle(context.Background(), event)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
			require.Equal(t, tc.calls, exec.calls)
		})
	}
}

func TestListener_UsesProvidedCorrelationID_CaseInsensitive(t *testing.T) {
	h, err := NewListener(&stubExecutor{}, "")
	require.NoError(t, err)

	event := makeEvent(listUpdate)
	event.Headers["x-correlation-id"] = "corr-123"
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Headers["X-Correlation-Id"])
}

func TestHeaderValue(t *testing.T) {
	headers := map[string]string{"X-Exact": " a ", "x-lower": "b"}
	require.Equal(t, "a", headerValue(headers, "X-Exact"))
	require.Equal(t, "b", headerValue(headers, "X-Lower"))
	require.Empty(t, headerValue(headers, "X-Missing"))
	require.Empty(t, headerValue(nil, "X-Missing"))
}
