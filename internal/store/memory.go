package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"odai-party/internal/api"
	"odai-party/internal/db"
	"odai-party/internal/game"

	"github.com/google/uuid"
)

// Memory is a process-local Repository. It enforces the same uniqueness rules as
// the Postgres schema.
type Memory struct {
	mu      sync.Mutex
	now     func() time.Time
	seq     int
	order   map[string]int
	rooms   map[string]db.Room
	players map[string]db.Player
	states  map[string]db.GameState
	answers map[string]db.Answer
	votes   map[string]db.Vote
	events  []db.Event
}

func NewMemory() *Memory {
	return &Memory{
		now:     func() time.Time { return time.Now().UTC() },
		order:   make(map[string]int),
		rooms:   make(map[string]db.Room),
		players: make(map[string]db.Player),
		states:  make(map[string]db.GameState),
		answers: make(map[string]db.Answer),
		votes:   make(map[string]db.Vote),
	}
}

func (m *Memory) track(id string) {
	m.seq++
	m.order[id] = m.seq
}

func (m *Memory) CreateRoom(_ context.Context, name, password string) (db.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, room := range m.rooms {
		if room.Password == password {
			return db.Room{}, ErrDuplicate
		}
	}
	now := m.now()
	room := db.Room{ID: uuid.NewString(), Name: name, Password: password, CreatedAt: now, UpdatedAt: now}
	m.rooms[room.ID] = room
	m.track(room.ID)
	return room, nil
}

func (m *Memory) GetRoom(_ context.Context, roomID string) (db.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return db.Room{}, ErrNotFound
	}
	return room, nil
}

func (m *Memory) FindRoomByPassword(_ context.Context, password string) (db.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, room := range m.rooms {
		if room.Password == password {
			return room, nil
		}
	}
	return db.Room{}, ErrNotFound
}

func (m *Memory) ListRooms(_ context.Context) ([]db.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rooms := make([]db.Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return m.order[rooms[i].ID] < m.order[rooms[j].ID] })
	return rooms, nil
}

func (m *Memory) UpsertPlayer(_ context.Context, roomID, userID, userName, role string) (db.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[roomID]; !ok {
		return db.Player{}, ErrNotFound
	}
	now := m.now()
	player, found := m.findPlayerLocked(roomID, userID)
	if role == api.RoleDealer && m.dealerTakenLocked(roomID, player.ID) {
		return db.Player{}, ErrDuplicate
	}
	if !found {
		player = db.Player{
			ID:        uuid.NewString(),
			RoomID:    roomID,
			UserID:    userID,
			CreatedAt: now,
		}
		m.track(player.ID)
	}
	player.UserName = userName
	player.Role = role
	player.IsActive = true
	player.LastSeenAt = now
	player.UpdatedAt = now
	m.players[player.ID] = player
	return player, nil
}

func (m *Memory) FindPlayer(_ context.Context, roomID, userID string) (db.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	player, ok := m.findPlayerLocked(roomID, userID)
	if !ok {
		return db.Player{}, ErrNotFound
	}
	return player, nil
}

func (m *Memory) ListActivePlayers(_ context.Context, roomID string) ([]db.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	players := make([]db.Player, 0)
	for _, player := range m.players {
		if player.RoomID == roomID && player.IsActive {
			players = append(players, player)
		}
	}
	sort.Slice(players, func(i, j int) bool { return m.order[players[i].ID] < m.order[players[j].ID] })
	return players, nil
}

func (m *Memory) SetPlayerRole(_ context.Context, roomID, userID, role string) (db.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	player, ok := m.findPlayerLocked(roomID, userID)
	if !ok || !player.IsActive {
		return db.Player{}, ErrNotFound
	}
	if role == api.RoleDealer && m.dealerTakenLocked(roomID, player.ID) {
		return db.Player{}, ErrDuplicate
	}
	player.Role = role
	player.UpdatedAt = m.now()
	m.players[player.ID] = player
	return player, nil
}

func (m *Memory) DeactivatePlayer(_ context.Context, roomID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	player, ok := m.findPlayerLocked(roomID, userID)
	if !ok {
		return ErrNotFound
	}
	player.IsActive = false
	player.UpdatedAt = m.now()
	m.players[player.ID] = player
	return nil
}

func (m *Memory) TouchPlayer(_ context.Context, roomID, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	player, ok := m.findPlayerLocked(roomID, userID)
	if !ok || !player.IsActive {
		return ErrNotFound
	}
	player.LastSeenAt = at
	m.players[player.ID] = player
	return nil
}

func (m *Memory) DeactivateIdlePlayers(_ context.Context, before time.Time) ([]db.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idle := make([]db.Player, 0)
	now := m.now()
	for id, player := range m.players {
		if !player.IsActive || !player.LastSeenAt.Before(before) {
			continue
		}
		player.IsActive = false
		player.UpdatedAt = now
		m.players[id] = player
		idle = append(idle, player)
	}
	sort.Slice(idle, func(i, j int) bool { return m.order[idle[i].ID] < m.order[idle[j].ID] })
	return idle, nil
}

func (m *Memory) GameState(_ context.Context, roomID string) (db.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[roomID]; !ok {
		return db.GameState{}, ErrNotFound
	}
	if state, ok := m.states[roomID]; ok {
		return state, nil
	}
	now := m.now()
	state := db.GameState{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		Phase:     string(game.PhaseLobby),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.states[roomID] = state
	return state, nil
}

func (m *Memory) SaveGameState(_ context.Context, state db.GameState, purge Purge) (db.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.states[state.RoomID]
	if !ok || current.ID != state.ID {
		return db.GameState{}, ErrNotFound
	}
	if purge.Votes {
		for id, vote := range m.votes {
			if vote.RoomID == state.RoomID {
				delete(m.votes, id)
			}
		}
	}
	if purge.Answers {
		for id, answer := range m.answers {
			if answer.GameStateID != state.ID {
				continue
			}
			delete(m.answers, id)
			for voteID, vote := range m.votes {
				if vote.AnswerID == id {
					delete(m.votes, voteID)
				}
			}
		}
	}
	if state.CurrentTopic != nil {
		topic := *state.CurrentTopic
		current.CurrentTopic = &topic
	} else {
		current.CurrentTopic = nil
	}
	current.Phase = state.Phase
	current.Round = state.Round
	current.UpdatedAt = m.now()
	m.states[state.RoomID] = current
	return current, nil
}

func (m *Memory) CreateAnswer(_ context.Context, answer db.Answer) (db.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.answers {
		if existing.GameStateID == answer.GameStateID && existing.UserID == answer.UserID {
			return db.Answer{}, ErrDuplicate
		}
	}
	now := m.now()
	answer.ID = uuid.NewString()
	answer.Votes = 0
	answer.IsRevealed = false
	answer.CreatedAt = now
	answer.UpdatedAt = now
	m.answers[answer.ID] = answer
	m.track(answer.ID)
	return answer, nil
}

func (m *Memory) GetAnswer(_ context.Context, answerID string) (db.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	answer, ok := m.answers[answerID]
	if !ok {
		return db.Answer{}, ErrNotFound
	}
	return answer, nil
}

func (m *Memory) ListAnswers(_ context.Context, gameStateID string) ([]db.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	answers := make([]db.Answer, 0)
	for _, answer := range m.answers {
		if answer.GameStateID == gameStateID {
			answers = append(answers, answer)
		}
	}
	sort.Slice(answers, func(i, j int) bool { return m.order[answers[i].ID] < m.order[answers[j].ID] })
	return answers, nil
}

func (m *Memory) RevealAnswer(_ context.Context, answerID string) (db.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	answer, ok := m.answers[answerID]
	if !ok {
		return db.Answer{}, ErrNotFound
	}
	answer.IsRevealed = true
	answer.UpdatedAt = m.now()
	m.answers[answerID] = answer
	return answer, nil
}

func (m *Memory) CastVote(_ context.Context, vote db.Vote) (db.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	answer, ok := m.answers[vote.AnswerID]
	if !ok {
		return db.Answer{}, ErrNotFound
	}
	for _, existing := range m.votes {
		if existing.RoomID == vote.RoomID && existing.UserID == vote.UserID {
			return db.Answer{}, ErrDuplicate
		}
	}
	vote.ID = uuid.NewString()
	vote.CreatedAt = m.now()
	m.votes[vote.ID] = vote
	m.track(vote.ID)
	answer.Votes++
	answer.UpdatedAt = vote.CreatedAt
	m.answers[answer.ID] = answer
	return answer, nil
}

func (m *Memory) ListVotes(_ context.Context, roomID string) ([]db.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	votes := make([]db.Vote, 0)
	for _, vote := range m.votes {
		if vote.RoomID == roomID {
			votes = append(votes, vote)
		}
	}
	sort.Slice(votes, func(i, j int) bool { return m.order[votes[i].ID] < m.order[votes[j].ID] })
	return votes, nil
}

func (m *Memory) RecordEvent(_ context.Context, event db.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.ID = uint(len(m.events) + 1)
	if event.CreatedAt.IsZero() {
		event.CreatedAt = m.now()
	}
	m.events = append(m.events, event)
	return nil
}

func (m *Memory) PruneEvents(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	var removed int64
	for _, event := range m.events {
		if event.CreatedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, event)
	}
	m.events = kept
	return removed, nil
}

// Events returns a copy of the event log.
func (m *Memory) Events() []db.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]db.Event(nil), m.events...)
}

func (m *Memory) findPlayerLocked(roomID, userID string) (db.Player, bool) {
	for _, player := range m.players {
		if player.RoomID == roomID && player.UserID == userID {
			return player, true
		}
	}
	return db.Player{}, false
}

func (m *Memory) dealerTakenLocked(roomID, exceptID string) bool {
	for _, player := range m.players {
		if player.RoomID == roomID && player.IsActive && player.Role == api.RoleDealer && player.ID != exceptID {
			return true
		}
	}
	return false
}

var _ Repository = (*Memory)(nil)
