package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/dzeya/mensor-construction-4/internal/app"
	"github.com/dzeya/mensor-construction-4/internal/config"
	"github.com/dzeya/mensor-construction-4/internal/logging"
	"github.com/dzeya/mensor-construction-4/internal/serverless"
)

// The Lambda build serves the same routes as the server but never starts the
// notification workers; queued leads are picked up by a long-running server.
func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.Env)

	ctx := context.Background()

	if err := app.LoadSecrets(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("loading secrets failed")
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	adapter, err := serverless.New(a.Handler)
	if err != nil {
		log.Fatal().Err(err).Msg("lambda adapter failed")
	}
	lambda.Start(adapter.Handle)
}
