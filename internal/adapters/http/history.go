package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/core"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// CallLog is the read side of call and presence persistence.
type CallLog interface {
	CallHistory(ctx context.Context, uid domain.UserID, limit int) ([]domain.CallRecord, error)
	RecentCalls(ctx context.Context, uid domain.UserID) ([]domain.CallRecord, error)
	FindCallRecord(ctx context.Context, id domain.RoomID) (domain.CallRecord, error)
	Presence(ctx context.Context, uid domain.UserID) (domain.PresenceStatus, time.Time, error)
}

type historyHandlers struct {
	calls    CallLog
	isOnline func(domain.UserID) bool
}

func (h *historyHandlers) history(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	uid := domain.UserID(c.GetString(userIDKey))
	calls, err := h.calls.CallHistory(c.Request.Context(), uid, limit)
	if err != nil {
		h.fail(c, err, "call history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls})
}

func (h *historyHandlers) recent(c *gin.Context) {
	uid := domain.UserID(c.GetString(userIDKey))
	calls, err := h.calls.RecentCalls(c.Request.Context(), uid)
	if err != nil {
		h.fail(c, err, "recent calls")
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls})
}

// call returns one record, visible only to its participants.
func (h *historyHandlers) call(c *gin.Context) {
	uid := domain.UserID(c.GetString(userIDKey))
	rec, err := h.calls.FindCallRecord(c.Request.Context(), domain.RoomID(c.Param("roomId")))
	if errors.Is(err, core.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	}
	if err != nil {
		h.fail(c, err, "find call")
		return
	}
	if rec.CallerID != uid && rec.CalleeID != uid {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *historyHandlers) presence(c *gin.Context) {
	uid, err := domain.ParseUserID(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	online := h.isOnline(uid)

	status, at, err := h.calls.Presence(c.Request.Context(), uid)
	switch {
	case errors.Is(err, core.ErrNotFound):
		if !online {
			c.JSON(http.StatusNotFound, gin.H{"error": "no presence recorded"})
			return
		}
		status = domain.PresenceOnline
	case err != nil:
		h.fail(c, err, "presence")
		return
	}
	// the live registry wins over a lagging store write
	if online && status == domain.PresenceOffline {
		status = domain.PresenceOnline
	}

	resp := gin.H{"userId": uid, "online": online, "status": status}
	if !at.IsZero() {
		resp["lastSeen"] = at
	}
	c.JSON(http.StatusOK, resp)
}

func (h *historyHandlers) fail(c *gin.Context, err error, what string) {
	log.Error().Err(err).Str("module", "adapters.http").Str("user", c.GetString(userIDKey)).Msg(what)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load " + what})
}
