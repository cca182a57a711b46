//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/chunkgpt/internal/bootstrap"
	"github.com/yanqian/chunkgpt/internal/domain/auth"
	"github.com/yanqian/chunkgpt/internal/domain/summarizer"
	"github.com/yanqian/chunkgpt/internal/infra/config"
	httpiface "github.com/yanqian/chunkgpt/internal/interface/http"
	"github.com/yanqian/chunkgpt/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideEngine,
		provideServiceConfig,
		provideResultCache,
		provideRepository,
		provideDocumentStore,
		provideAuthConfig,
		provideAuthRepository,
		summarizer.NewService,
		auth.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
