package server

import (
	"odai-party/internal/api"
	"odai-party/internal/db"
	"odai-party/internal/game"
)

func roomView(room db.Room) api.Room {
	return api.Room{ID: room.ID, Name: room.Name, CreatedAt: room.CreatedAt}
}

func playerView(player db.Player) api.Player {
	return api.Player{
		ID:       player.ID,
		RoomID:   player.RoomID,
		UserID:   player.UserID,
		UserName: player.UserName,
		Role:     player.Role,
		IsActive: player.IsActive,
		JoinedAt: player.CreatedAt,
	}
}

func playerViews(players []db.Player) []api.Player {
	out := make([]api.Player, 0, len(players))
	for _, player := range players {
		out = append(out, playerView(player))
	}
	return out
}

func (s *Server) stateView(state db.GameState) api.GameState {
	phase := game.Phase(state.Phase)
	allowed := s.machine.Allowed(phase)
	actions := make([]string, 0, len(allowed))
	for _, action := range allowed {
		actions = append(actions, string(action))
	}
	view := api.GameState{
		ID:            state.ID,
		RoomID:        state.RoomID,
		Phase:         state.Phase,
		Round:         state.Round,
		RevealEnabled: s.machine.Reveal,
		AdmissionOpen: phase == game.PhaseLobby,
		Actions:       actions,
	}
	if state.CurrentTopic != nil {
		topic := *state.CurrentTopic
		view.CurrentTopic = &topic
	}
	return view
}

// viewer is who an answer list is rendered for.
type viewer struct {
	userID   string
	isDealer bool
}

// answerViews masks unrevealed answers when the reveal phase is enabled. Authors
// and the dealer always see the text.
func (s *Server) answerViews(answers []db.Answer, who viewer) []api.Answer {
	out := make([]api.Answer, 0, len(answers))
	for _, answer := range answers {
		view := api.Answer{
			ID:          answer.ID,
			GameStateID: answer.GameStateID,
			UserID:      answer.UserID,
			UserName:    answer.UserName,
			AnswerText:  answer.AnswerText,
			Votes:       answer.Votes,
			IsRevealed:  answer.IsRevealed,
		}
		if s.machine.Reveal && !answer.IsRevealed && !who.isDealer && answer.UserID != who.userID {
			view.AnswerText = ""
			view.Hidden = true
		}
		out = append(out, view)
	}
	return out
}
