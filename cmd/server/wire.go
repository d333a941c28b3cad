// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"github.com/shuvam-shrestha/famnotify/internal/app"
	"github.com/shuvam-shrestha/famnotify/internal/config"
	"github.com/shuvam-shrestha/famnotify/internal/feed"
	"github.com/shuvam-shrestha/famnotify/internal/jobs"
	"github.com/shuvam-shrestha/famnotify/internal/platform/logger"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,

		// Feed core
		provideFeedStore,
		feed.NewLocalStore,
		provideEngine,
		feed.NewHandler,

		// Access gate and jobs
		provideFamilyGate,
		jobs.NewFeedRetentionJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
