package firebase

import (
	"context"
	"fmt"
	"path/filepath"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/shuvam-shrestha/famnotify/internal/config"
)

// Service wraps the Firebase Admin SDK and exposes the Realtime Database
// client the feed store adapter is built on.
type Service struct {
	dbClient *db.Client
	logger   *zap.Logger
}

// NewService initializes the Firebase Admin SDK and connects to the
// Realtime Database configured in FIREBASE_DATABASE_URL.
func NewService(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	if cfg.FirebaseServiceAccountKeyPath == "" {
		logger.Error("Firebase service account key path is not configured.")
		return nil, fmt.Errorf("firebase service account key path is required")
	}

	// Clean the path to prevent issues with relative paths or symlinks
	cleanPath := filepath.Clean(cfg.FirebaseServiceAccountKeyPath)

	opt := option.WithCredentialsFile(cleanPath)

	conf := &firebase.Config{
		DatabaseURL: cfg.FirebaseDatabaseURL,
	}
	if cfg.FirebaseProjectID != "" {
		conf.ProjectID = cfg.FirebaseProjectID
	}

	app, err := firebase.NewApp(context.Background(), conf, opt)
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err), zap.String("keyPath", cleanPath))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	dbClient, err := app.Database(context.Background())
	if err != nil {
		logger.Error("Failed to get Firebase Realtime Database client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firebase Realtime Database client: %w", err)
	}

	logger.Info("Firebase Admin SDK initialized successfully.",
		zap.String("databaseURL", cfg.FirebaseDatabaseURL),
	)
	return &Service{
		dbClient: dbClient,
		logger:   logger,
	}, nil
}

// Database returns the Realtime Database client.
func (s *Service) Database() *db.Client {
	return s.dbClient
}
