package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/rodrigolyusei/mynextflight/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

type errorResponse struct {
	Error string `json:"error"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// headerValue looks up name case-insensitively; API Gateway passes headers
// through as the client sent them.
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func correlationID(headers map[string]string) string {
	if id := headerValue(headers, correlationHeader); id != "" {
		return id
	}
	return uuid.NewString()
}

func respond(status int, corrID string, body any) events.APIGatewayProxyResponse {
	buf, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		buf = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: corrID,
		},
		Body: string(buf),
	}
}

func respondOK(corrID string) events.APIGatewayProxyResponse {
	return respond(http.StatusOK, corrID, okResponse{OK: true})
}

func respondError(status int, corrID string, code usecase.ErrorCode) events.APIGatewayProxyResponse {
	return respond(status, corrID, errorResponse{Error: string(code)})
}

// errorCode extracts the usecase code from err, defaulting to INTERNAL_ERROR.
func errorCode(err error) usecase.ErrorCode {
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) && ucErr.Code != "" {
		return ucErr.Code
	}
	return usecase.ErrorInternal
}
