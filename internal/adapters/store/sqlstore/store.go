// Package sqlstore keeps call history and presence in SQLite through gorm.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/core"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

var ErrNotFound = core.ErrNotFound

type Store struct {
	db *gorm.DB
}

var _ core.Store = (*Store)(nil)

// Open connects to the SQLite file at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := New(db)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "store.sql").Str("path", path).Msg("database ready")
	return s, nil
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&callRecordRow{}, &presenceRow{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveCallRecord inserts rec. A record already stored for the room is kept as is.
func (s *Store) SaveCallRecord(ctx context.Context, rec domain.CallRecord) error {
	row := rowFromRecord(rec)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save call record: %w", err)
	}
	return nil
}

// UpdatePresence upserts the status of uid. A write older than the stored
// one is ignored, so retried or reordered tasks cannot roll presence back.
func (s *Store) UpdatePresence(ctx context.Context, uid domain.UserID, status domain.PresenceStatus, at time.Time) error {
	// last_seen is compared as text, which orders correctly only in one zone.
	row := presenceRow{UserID: string(uid), Status: string(status), LastSeen: at.UTC()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "last_seen", "updated_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "user_presence.last_seen <= excluded.last_seen"},
			}},
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to update presence: %w", err)
	}
	return nil
}

func (s *Store) FindCallRecord(ctx context.Context, id domain.RoomID) (domain.CallRecord, error) {
	var row callRecordRow
	if err := s.db.WithContext(ctx).First(&row, "room_id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CallRecord{}, ErrNotFound
		}
		return domain.CallRecord{}, fmt.Errorf("failed to find call record: %w", err)
	}
	return row.record(), nil
}

// CallHistory returns the most recent calls uid took part in, newest first.
func (s *Store) CallHistory(ctx context.Context, uid domain.UserID, limit int) ([]domain.CallRecord, error) {
	var rows []callRecordRow
	err := s.db.WithContext(ctx).
		Where("caller_id = ? OR callee_id = ?", string(uid), string(uid)).
		Order("started_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list call history: %w", err)
	}
	out := make([]domain.CallRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}

func (s *Store) Presence(ctx context.Context, uid domain.UserID) (domain.PresenceStatus, time.Time, error) {
	var row presenceRow
	if err := s.db.WithContext(ctx).First(&row, "user_id = ?", string(uid)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", time.Time{}, ErrNotFound
		}
		return "", time.Time{}, fmt.Errorf("failed to find presence: %w", err)
	}
	return domain.PresenceStatus(row.Status), row.LastSeen, nil
}
