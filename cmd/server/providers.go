// File: cmd/server/providers.go
package main

import (
	"github.com/shuvam-shrestha/famnotify/internal/config"
	"github.com/shuvam-shrestha/famnotify/internal/feed"
	"github.com/shuvam-shrestha/famnotify/internal/firebase"
	"github.com/shuvam-shrestha/famnotify/internal/middleware"
	"github.com/shuvam-shrestha/famnotify/internal/platform/database"

	"go.uber.org/zap"
)

// provideFeedStore selects the remote feed store adapter for the configured
// driver. Either source satisfies the same port, so the merge engine never
// knows which one it is talking to.
func provideFeedStore(cfg *config.Config, logger *zap.Logger) (feed.Store, func(), error) {
	switch cfg.FeedStoreDriver {
	case config.StoreDriverGORM:
		db, err := database.NewGORM(cfg)
		if err != nil {
			return nil, nil, err
		}
		store, err := feed.NewGORMStore(db, cfg.FeedPollInterval, logger)
		if err != nil {
			database.CloseGORMDB(db)
			return nil, nil, err
		}
		return store, func() { database.CloseGORMDB(db) }, nil
	default:
		svc, err := firebase.NewService(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		store := feed.NewFirebaseStore(svc.Database(), cfg.FeedPollInterval, logger)
		return store, func() {}, nil
	}
}

func provideEngine(store feed.Store, local *feed.LocalStore, cfg *config.Config, logger *zap.Logger) *feed.Engine {
	return feed.NewEngine(store, local, cfg.FeedRecordLimit, logger)
}

func provideFamilyGate(cfg *config.Config, logger *zap.Logger) *middleware.FamilyGate {
	return middleware.NewFamilyGate(cfg.FamilyCode, logger)
}
