package sqlstore

import (
	"time"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

type callRecordRow struct {
	RoomID     string `gorm:"primarykey;size:36"`
	CallerID   string `gorm:"size:64;not null;index"`
	CalleeID   string `gorm:"size:64;not null;index"`
	CallType   string `gorm:"size:16;not null"`
	Status     string `gorm:"size:16;not null"`
	StartedAt  time.Time
	AcceptedAt *time.Time
	EndedAt    time.Time
	DurationMS int64
	EndReason  string `gorm:"size:32"`
	CreatedAt  time.Time
}

func (callRecordRow) TableName() string {
	return "call_records"
}

func rowFromRecord(rec domain.CallRecord) callRecordRow {
	return callRecordRow{
		RoomID:     string(rec.RoomID),
		CallerID:   string(rec.CallerID),
		CalleeID:   string(rec.CalleeID),
		CallType:   string(rec.Kind),
		Status:     string(rec.Status),
		StartedAt:  rec.StartedAt,
		AcceptedAt: rec.AcceptedAt,
		EndedAt:    rec.EndedAt,
		DurationMS: rec.Duration.Milliseconds(),
		EndReason:  string(rec.EndReason),
	}
}

func (r callRecordRow) record() domain.CallRecord {
	return domain.CallRecord{
		RoomID:     domain.RoomID(r.RoomID),
		CallerID:   domain.UserID(r.CallerID),
		CalleeID:   domain.UserID(r.CalleeID),
		Kind:       domain.CallKind(r.CallType),
		Status:     domain.RoomStatus(r.Status),
		StartedAt:  r.StartedAt,
		AcceptedAt: r.AcceptedAt,
		EndedAt:    r.EndedAt,
		Duration:   time.Duration(r.DurationMS) * time.Millisecond,
		EndReason:  domain.EndReason(r.EndReason),
	}
}

type presenceRow struct {
	UserID    string `gorm:"primarykey;size:64"`
	Status    string `gorm:"size:16;not null"`
	LastSeen  time.Time
	UpdatedAt time.Time
}

func (presenceRow) TableName() string {
	return "user_presence"
}
