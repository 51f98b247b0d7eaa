package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrNotParticipant = errors.New("not a participant")
	ErrUserBusy       = errors.New("user busy")
)

// RoomManager owns live rooms and the user → room index.
// Getters return copies; mutate only through the manager.
type RoomManager struct {
	mu     sync.RWMutex
	rooms  map[domain.RoomID]*domain.Room
	byUser map[domain.UserID]domain.RoomID
}

func NewRoomManager() *RoomManager {
	return &RoomManager{
		rooms:  make(map[domain.RoomID]*domain.Room),
		byUser: make(map[domain.UserID]domain.RoomID),
	}
}

func (m *RoomManager) Create(caller, callee domain.UserID, kind domain.CallKind, at time.Time) (domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, uid := range []domain.UserID{caller, callee} {
		if id, ok := m.byUser[uid]; ok {
			return domain.Room{}, fmt.Errorf("%w: %s in room %s", ErrUserBusy, uid, id)
		}
	}
	room := domain.NewRoom(domain.NewRoomID(), caller, callee, kind, at)
	m.rooms[room.ID] = room
	m.byUser[caller] = room.ID
	m.byUser[callee] = room.ID
	log.Info().Str("module", "app.rooms").Str("room", string(room.ID)).Str("caller", string(caller)).Str("callee", string(callee)).Msg("room created")
	return *room, nil
}

func (m *RoomManager) Get(id domain.RoomID) (domain.Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return domain.Room{}, false
	}
	return *r, true
}

func (m *RoomManager) RoomOf(uid domain.UserID) (domain.Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byUser[uid]
	if !ok {
		return domain.Room{}, false
	}
	return *m.rooms[id], true
}

// Accept moves a ringing room to active. Only the callee may accept.
func (m *RoomManager) Accept(id domain.RoomID, by domain.UserID, at time.Time) (domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, err := m.calleeRoom(id, by)
	if err != nil {
		return domain.Room{}, err
	}
	if err := r.Accept(at); err != nil {
		return domain.Room{}, err
	}
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room active")
	return *r, nil
}

// Decline terminates a ringing room and removes it.
func (m *RoomManager) Decline(id domain.RoomID, by domain.UserID, at time.Time) (domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, err := m.calleeRoom(id, by)
	if err != nil {
		return domain.Room{}, err
	}
	if err := r.Decline(at); err != nil {
		return domain.Room{}, err
	}
	m.removeLocked(r)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room declined")
	return *r, nil
}

// End terminates a live room and removes it. Reports false when the room is gone.
func (m *RoomManager) End(id domain.RoomID, reason domain.EndReason, at time.Time) (domain.Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return domain.Room{}, false
	}
	if err := r.End(at, reason); err != nil {
		return domain.Room{}, false
	}
	m.removeLocked(r)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("reason", string(reason)).Dur("duration", r.Duration).Msg("room ended")
	return *r, true
}

func (m *RoomManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

func (m *RoomManager) calleeRoom(id domain.RoomID, by domain.UserID) (*domain.Room, error) {
	r, ok := m.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}
	if r.Callee() != by {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotParticipant, by, id)
	}
	return r, nil
}

func (m *RoomManager) removeLocked(r *domain.Room) {
	delete(m.rooms, r.ID)
	for _, uid := range r.Participants() {
		if m.byUser[uid] == r.ID {
			delete(m.byUser, uid)
		}
	}
}
