package feed

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FeedRecord is the GORM row shape of a persisted notification. It exists
// so a household that would rather self-host than depend on a hosted
// realtime database can swap the durable store without touching the merge
// engine.
type FeedRecord struct {
	ID        string    `gorm:"type:varchar(64);primary_key" json:"id"`
	Type      string    `gorm:"type:varchar(32);not null" json:"type"`
	Payload   string    `gorm:"type:text;not null" json:"payload"`
	Timestamp time.Time `gorm:"not null;index:idx_feed_records_timestamp" json:"timestamp"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
}

// TableName specifies the table name for GORM.
func (FeedRecord) TableName() string {
	return "feed_records"
}

func (r FeedRecord) toItem() (NotificationItem, error) {
	payload, err := decodePayload(NotificationType(r.Type), json.RawMessage(r.Payload))
	if err != nil {
		return NotificationItem{}, err
	}
	return NotificationItem{
		ID:        r.ID,
		Type:      NotificationType(r.Type),
		Timestamp: r.Timestamp.UTC(),
		Payload:   payload,
		Read:      r.Read,
	}, nil
}

// GORMStore implements Store on a relational database. Subscribe polls the
// table the same way the firebase adapter polls its page, so consumers see
// identical whole-snapshot semantics from either driver.
type GORMStore struct {
	db           *gorm.DB
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewGORMStore migrates the feed_records table and returns the adapter.
func NewGORMStore(db *gorm.DB, pollInterval time.Duration, logger *zap.Logger) (*GORMStore, error) {
	if err := db.AutoMigrate(&FeedRecord{}); err != nil {
		return nil, &PersistenceError{Op: "migrate", Err: err}
	}
	return &GORMStore{
		db:           db,
		pollInterval: pollInterval,
		logger:       logger.Named("GORMStore"),
	}, nil
}

// Append inserts a new record with a generated key, timestamp=now and
// read=false.
func (s *GORMStore) Append(ctx context.Context, typ NotificationType, payload Payload) error {
	raw, err := payload.encode(typ)
	if err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}
	rec := FeedRecord{
		ID:        uuid.NewString(),
		Type:      string(typ),
		Payload:   string(raw),
		Timestamp: time.Now().UTC(),
		Read:      false,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}
	s.logger.Debug("Notification appended",
		zap.String("id", rec.ID),
		zap.String("type", rec.Type),
	)
	return nil
}

// MarkRead sets read=true on the identified record.
func (s *GORMStore) MarkRead(ctx context.Context, id string) error {
	var rec FeedRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return &PersistenceError{Op: "mark-read", Err: err}
	}

	result := s.db.WithContext(ctx).Model(&FeedRecord{}).
		Where("id = ?", id).
		Update("read", true)
	if result.Error != nil {
		return &PersistenceError{Op: "mark-read", Err: result.Error}
	}
	return nil
}

// Subscribe opens the live page of the newest `limit` records.
func (s *GORMStore) Subscribe(ctx context.Context, limit int) (<-chan []NotificationItem, <-chan error, error) {
	items, errs := pollSubscription(ctx, s.pollInterval, limit, s.fetchPage)
	return items, errs, nil
}

func (s *GORMStore) fetchPage(ctx context.Context, limit int) ([]NotificationItem, error) {
	var records []FeedRecord
	err := s.db.WithContext(ctx).
		Order("timestamp DESC, id ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	items := make([]NotificationItem, 0, len(records))
	for _, rec := range records {
		item, err := rec.toItem()
		if err != nil {
			s.logger.Warn("Skipping undecodable notification record",
				zap.String("id", rec.ID),
				zap.Error(err),
			)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// TrimToLatest deletes every record beyond the newest `keep`.
func (s *GORMStore) TrimToLatest(ctx context.Context, keep int) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&FeedRecord{}).Count(&total).Error; err != nil {
		return 0, &PersistenceError{Op: "trim", Err: err}
	}
	surplus := int(total) - keep
	if surplus <= 0 {
		return 0, nil
	}

	var ids []string
	err := s.db.WithContext(ctx).Model(&FeedRecord{}).
		Order("timestamp ASC, id ASC").
		Limit(surplus).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, &PersistenceError{Op: "trim", Err: err}
	}

	result := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&FeedRecord{})
	if result.Error != nil {
		return 0, &PersistenceError{Op: "trim", Err: result.Error}
	}
	return result.RowsAffected, nil
}
