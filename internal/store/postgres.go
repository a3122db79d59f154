package store

import (
	"context"
	"errors"
	"time"

	"odai-party/internal/db"
	"odai-party/internal/game"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgres is the gorm-backed Repository.
type Postgres struct {
	db *gorm.DB
}

func NewPostgres(conn *gorm.DB) *Postgres {
	return &Postgres{db: conn}
}

func (p *Postgres) CreateRoom(ctx context.Context, name, password string) (db.Room, error) {
	room := db.Room{ID: uuid.NewString(), Name: name, Password: password}
	if err := p.db.WithContext(ctx).Create(&room).Error; err != nil {
		return db.Room{}, translate(err)
	}
	return room, nil
}

func (p *Postgres) GetRoom(ctx context.Context, roomID string) (db.Room, error) {
	var room db.Room
	if err := p.db.WithContext(ctx).Where("id = ?", roomID).First(&room).Error; err != nil {
		return db.Room{}, translate(err)
	}
	return room, nil
}

func (p *Postgres) FindRoomByPassword(ctx context.Context, password string) (db.Room, error) {
	var room db.Room
	if err := p.db.WithContext(ctx).Where("password = ?", password).First(&room).Error; err != nil {
		return db.Room{}, translate(err)
	}
	return room, nil
}

func (p *Postgres) ListRooms(ctx context.Context) ([]db.Room, error) {
	var rooms []db.Room
	if err := p.db.WithContext(ctx).Order("created_at, id").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (p *Postgres) UpsertPlayer(ctx context.Context, roomID, userID, userName, role string) (db.Player, error) {
	now := time.Now().UTC()
	record := db.Player{
		ID:         uuid.NewString(),
		RoomID:     roomID,
		UserID:     userID,
		UserName:   userName,
		Role:       role,
		IsActive:   true,
		LastSeenAt: now,
	}
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"user_name":    userName,
			"role":         role,
			"is_active":    true,
			"last_seen_at": now,
			"updated_at":   now,
		}),
	}).Create(&record).Error
	if err != nil {
		return db.Player{}, translate(err)
	}
	return p.FindPlayer(ctx, roomID, userID)
}

func (p *Postgres) FindPlayer(ctx context.Context, roomID, userID string) (db.Player, error) {
	var player db.Player
	if err := p.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&player).Error; err != nil {
		return db.Player{}, translate(err)
	}
	return player, nil
}

func (p *Postgres) ListActivePlayers(ctx context.Context, roomID string) ([]db.Player, error) {
	var players []db.Player
	if err := p.db.WithContext(ctx).
		Where("room_id = ? AND is_active", roomID).
		Order("created_at, id").
		Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}

func (p *Postgres) SetPlayerRole(ctx context.Context, roomID, userID, role string) (db.Player, error) {
	result := p.db.WithContext(ctx).Model(&db.Player{}).
		Where("room_id = ? AND user_id = ? AND is_active", roomID, userID).
		Update("role", role)
	if result.Error != nil {
		return db.Player{}, translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return db.Player{}, ErrNotFound
	}
	return p.FindPlayer(ctx, roomID, userID)
}

func (p *Postgres) DeactivatePlayer(ctx context.Context, roomID, userID string) error {
	result := p.db.WithContext(ctx).Model(&db.Player{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) TouchPlayer(ctx context.Context, roomID, userID string, at time.Time) error {
	result := p.db.WithContext(ctx).Model(&db.Player{}).
		Where("room_id = ? AND user_id = ? AND is_active", roomID, userID).
		UpdateColumn("last_seen_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeactivateIdlePlayers(ctx context.Context, before time.Time) ([]db.Player, error) {
	var idle []db.Player
	err := p.db.WithContext(ctx).Model(&idle).
		Clauses(clause.Returning{}).
		Where("is_active AND last_seen_at < ?", before).
		Update("is_active", false).Error
	if err != nil {
		return nil, err
	}
	return idle, nil
}

func (p *Postgres) GameState(ctx context.Context, roomID string) (db.GameState, error) {
	conn := p.db.WithContext(ctx)
	record := db.GameState{
		ID:     uuid.NewString(),
		RoomID: roomID,
		Phase:  string(game.PhaseLobby),
	}
	if err := conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}},
		DoNothing: true,
	}).Create(&record).Error; err != nil {
		if isForeignKeyViolation(err) {
			return db.GameState{}, ErrNotFound
		}
		return db.GameState{}, translate(err)
	}
	var state db.GameState
	if err := conn.Where("room_id = ?", roomID).First(&state).Error; err != nil {
		return db.GameState{}, translate(err)
	}
	return state, nil
}

func (p *Postgres) SaveGameState(ctx context.Context, state db.GameState, purge Purge) (db.GameState, error) {
	var saved db.GameState
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if purge.Votes {
			if err := tx.Where("room_id = ?", state.RoomID).Delete(&db.Vote{}).Error; err != nil {
				return err
			}
		}
		if purge.Answers {
			if err := tx.Where("answer_id IN (?)", tx.Model(&db.Answer{}).Select("id").Where("game_state_id = ?", state.ID)).
				Delete(&db.Vote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("game_state_id = ?", state.ID).Delete(&db.Answer{}).Error; err != nil {
				return err
			}
		}
		// map updates so a nil topic is written as NULL
		result := tx.Model(&db.GameState{}).
			Where("id = ? AND room_id = ?", state.ID, state.RoomID).
			Updates(map[string]any{
				"current_topic": state.CurrentTopic,
				"phase":         state.Phase,
				"round":         state.Round,
				"updated_at":    time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("id = ?", state.ID).First(&saved).Error
	})
	if err != nil {
		return db.GameState{}, translate(err)
	}
	return saved, nil
}

func (p *Postgres) CreateAnswer(ctx context.Context, answer db.Answer) (db.Answer, error) {
	answer.ID = uuid.NewString()
	answer.Votes = 0
	answer.IsRevealed = false
	if err := p.db.WithContext(ctx).Create(&answer).Error; err != nil {
		return db.Answer{}, translate(err)
	}
	return answer, nil
}

func (p *Postgres) GetAnswer(ctx context.Context, answerID string) (db.Answer, error) {
	var answer db.Answer
	if err := p.db.WithContext(ctx).Where("id = ?", answerID).First(&answer).Error; err != nil {
		return db.Answer{}, translate(err)
	}
	return answer, nil
}

func (p *Postgres) ListAnswers(ctx context.Context, gameStateID string) ([]db.Answer, error) {
	var answers []db.Answer
	if err := p.db.WithContext(ctx).
		Where("game_state_id = ?", gameStateID).
		Order("created_at, id").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (p *Postgres) RevealAnswer(ctx context.Context, answerID string) (db.Answer, error) {
	result := p.db.WithContext(ctx).Model(&db.Answer{}).
		Where("id = ?", answerID).
		Update("is_revealed", true)
	if result.Error != nil {
		return db.Answer{}, result.Error
	}
	if result.RowsAffected == 0 {
		return db.Answer{}, ErrNotFound
	}
	return p.GetAnswer(ctx, answerID)
}

func (p *Postgres) CastVote(ctx context.Context, vote db.Vote) (db.Answer, error) {
	var answer db.Answer
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		vote.ID = uuid.NewString()
		if err := tx.Create(&vote).Error; err != nil {
			if isForeignKeyViolation(err) {
				return ErrNotFound
			}
			return err
		}
		if err := incrementVotes(tx, vote.AnswerID); err != nil {
			return err
		}
		return tx.Where("id = ?", vote.AnswerID).First(&answer).Error
	})
	if err != nil {
		return db.Answer{}, translate(err)
	}
	return answer, nil
}

// incrementVotes calls the schema's increment_answer_votes function. The vote row
// was inserted first, so the foreign key has already proved the answer exists.
func incrementVotes(tx *gorm.DB, answerID string) error {
	return tx.Exec("SELECT increment_answer_votes(?)", answerID).Error
}

func (p *Postgres) ListVotes(ctx context.Context, roomID string) ([]db.Vote, error) {
	var votes []db.Vote
	if err := p.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at, id").
		Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

func (p *Postgres) RecordEvent(ctx context.Context, event db.Event) error {
	return p.db.WithContext(ctx).Create(&event).Error
}

func (p *Postgres) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	result := p.db.WithContext(ctx).Where("created_at < ?", before).Delete(&db.Event{})
	return result.RowsAffected, result.Error
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound), isInvalidText(err):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return ErrDuplicate
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// isInvalidText reports a malformed literal such as a non-uuid identifier.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}

var _ Repository = (*Postgres)(nil)
