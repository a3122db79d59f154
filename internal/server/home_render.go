package server

import (
	"context"

	"odai-party/internal/content"
	"odai-party/internal/store"
	"odai-party/internal/web"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
)

const statusTitle = "お題ゲームメーカー"

func (s *Server) handleHome(c *gin.Context) {
	data, err := s.statusData(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	templ.Handler(web.Home(data)).ServeHTTP(c.Writer, c.Request)
}

func (s *Server) statusData(ctx context.Context) (web.StatusData, error) {
	data := web.StatusData{Title: statusTitle, Storage: "postgres"}
	if _, ok := s.repo.(*store.Memory); ok {
		data.Storage = "memory"
	}
	s.library.View(func(set *content.DataSet) {
		if set == nil {
			return
		}
		data.ContentReady = true
		data.Initials = len(set.Initial)
		data.Words = len(set.Words)
	})
	rooms, err := s.repo.ListRooms(ctx)
	if err != nil {
		return web.StatusData{}, err
	}
	for _, room := range rooms {
		state, err := s.repo.GameState(ctx, room.ID)
		if err != nil {
			return web.StatusData{}, err
		}
		players, err := s.repo.ListActivePlayers(ctx, room.ID)
		if err != nil {
			return web.StatusData{}, err
		}
		data.Rooms = append(data.Rooms, web.RoomSummary{
			ID:        room.ID,
			Name:      room.Name,
			Phase:     state.Phase,
			Round:     state.Round,
			Players:   len(players),
			CreatedAt: room.CreatedAt,
		})
	}
	return data, nil
}
