package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/adapters/store/sqlstore"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/core"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

func setupReader(t *testing.T) *Reader {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s := sqlstore.New(db)
	require.NoError(t, s.Migrate())
	return &Reader{SQL: s}
}

func TestReaderFallsBackToSQL(t *testing.T) {
	r := setupReader(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rec := domain.CallRecord{RoomID: "r1", CallerID: "u1", CalleeID: "u2", Kind: domain.CallAudio, Status: domain.StatusDeclined, StartedAt: at, EndedAt: at}
	require.NoError(t, r.SQL.SaveCallRecord(ctx, rec))
	require.NoError(t, r.SQL.UpdatePresence(ctx, "u1", domain.PresenceOnline, at))

	recent, err := r.RecentCalls(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, domain.RoomID("r1"), recent[0].RoomID)

	st, got, err := r.Presence(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.PresenceOnline, st)
	assert.True(t, got.Equal(at))

	_, err = r.FindCallRecord(ctx, "nope")
	require.ErrorIs(t, err, core.ErrNotFound)
}
