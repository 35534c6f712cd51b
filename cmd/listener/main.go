package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/rodrigolyusei/mynextflight/handler"
	"github.com/rodrigolyusei/mynextflight/internal/config"
	"github.com/rodrigolyusei/mynextflight/internal/integrations/paramstore"
	"github.com/rodrigolyusei/mynextflight/internal/integrations/telegram"
	"github.com/rodrigolyusei/mynextflight/internal/repository"
	"github.com/rodrigolyusei/mynextflight/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg, func(o *awsssm.Options) {
		if cfg.AWSEndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		}
	}))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	dynamoClient := awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.AWSEndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		}
	})
	alertStore, err := repository.New(dynamoClient, cfg.TableName)
	if err != nil {
		slog.Error("failed to create alert store", "err", err)
		os.Exit(1)
	}

	botToken, err := paramstore.NewCachedToken(ssmClient, cfg.TelegramTokenParam())
	if err != nil {
		slog.Error("failed to create bot token source", "err", err)
		os.Exit(1)
	}
	telegramClient, err := telegram.NewClient(botToken, telegram.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
	if err != nil {
		slog.Error("failed to create Telegram client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	commandService, err := usecase.NewCommandService(alertStore, telegramClient)
	if err != nil {
		slog.Error("failed to create command service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewListener(commandService, cfg.TelegramWebhookSecret)
	if err != nil {
		slog.Error("failed to create listener", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
