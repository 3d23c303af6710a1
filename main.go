package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/dmorgan81/webuibot/internal/handler"
	"github.com/dmorgan81/webuibot/internal/inject"
	"github.com/dmorgan81/webuibot/internal/log"
	"github.com/samber/do"
)

func main() {
	level, _ := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	ctx := log.NewContext(context.Background(), log.NewWithLevel(os.Stderr, level))
	injector := inject.Setup(ctx)
	handler := do.MustInvoke[*handler.Handler](injector)
	lambda.StartWithOptions(handler.Handle, lambda.WithContext(ctx), lambda.WithEnableSIGTERM(func() {
		_ = injector.Shutdown()
	}))
}
