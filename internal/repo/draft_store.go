package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"qrmarket/internal/drafts"
	"qrmarket/internal/models"
)

var _ drafts.Store = (*DraftStore)(nil)

// DraftStore keeps drafts in the draft_records table.
type DraftStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDraftStore migrates the table and returns the store.
func NewDraftStore(db *gorm.DB) (*DraftStore, error) {
	if err := db.AutoMigrate(&models.DraftRecord{}); err != nil {
		return nil, err
	}
	return &DraftStore{db: db, now: time.Now}, nil
}

func (s *DraftStore) Put(ctx context.Context, k drafts.Key, payload []byte, expiresAt time.Time) error {
	rec := models.DraftRecord{
		BrowserID: k.BrowserID,
		Kind:      string(k.Kind),
		Payload:   datatypes.JSON(payload),
		ExpiresAt: expiresAt.UTC(),
	}
	// upsert on (browser_id, kind)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "browser_id"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "expires_at", "updated_at"}),
	}).Create(&rec).Error
}

func (s *DraftStore) Get(ctx context.Context, k drafts.Key) ([]byte, error) {
	var rec models.DraftRecord
	err := s.db.WithContext(ctx).
		Where("browser_id = ? AND kind = ? AND expires_at > ?", k.BrowserID, string(k.Kind), s.now().UTC()).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, drafts.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(rec.Payload), nil
}

func (s *DraftStore) Delete(ctx context.Context, k drafts.Key) error {
	return s.db.WithContext(ctx).
		Where("browser_id = ? AND kind = ?", k.BrowserID, string(k.Kind)).
		Delete(&models.DraftRecord{}).Error
}

func (s *DraftStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&models.DraftRecord{})
	return int(res.RowsAffected), res.Error
}

func (s *DraftStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *DraftStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
