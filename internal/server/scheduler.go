package server

import (
	"context"
	"fmt"
	"time"

	"odai-party/internal/api"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const jobTimeout = 30 * time.Second

// scheduler runs the housekeeping jobs: the idle-seat sweep and event pruning.
type scheduler struct {
	server *Server
	cron   *cron.Cron
}

func newScheduler(s *Server) *scheduler {
	return &scheduler{server: s, cron: cron.New()}
}

func (sc *scheduler) Start() error {
	cfg := sc.server.cfg
	if cfg.PlayerIdleSeconds > 0 && cfg.SweepSchedule != "" {
		if _, err := sc.cron.AddFunc(cfg.SweepSchedule, sc.runSweep); err != nil {
			return fmt.Errorf("schedule idle sweep: %w", err)
		}
	}
	if cfg.EventRetentionDays > 0 && cfg.PruneSchedule != "" {
		if _, err := sc.cron.AddFunc(cfg.PruneSchedule, sc.runPrune); err != nil {
			return fmt.Errorf("schedule event prune: %w", err)
		}
	}
	sc.cron.Start()
	log.Info().Int("jobs", len(sc.cron.Entries())).Msg("scheduler started")
	return nil
}

func (sc *scheduler) Stop() {
	ctx := sc.cron.Stop()
	<-ctx.Done()
}

func (sc *scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if _, err := sc.server.sweepIdlePlayers(ctx); err != nil {
		log.Error().Err(err).Msg("idle sweep failed")
	}
}

func (sc *scheduler) runPrune() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if _, err := sc.server.pruneEvents(ctx); err != nil {
		log.Error().Err(err).Msg("event prune failed")
	}
}

// sweepIdlePlayers deactivates seats that have gone quiet, which also frees a
// dealer seat left behind by a closed tab.
func (s *Server) sweepIdlePlayers(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-time.Duration(s.cfg.PlayerIdleSeconds) * time.Second)
	rooms := make(map[string]int)
	idle, err := s.repo.DeactivateIdlePlayers(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	for _, player := range idle {
		rooms[player.RoomID]++
		s.recordEvent(ctx, player.RoomID, player.UserID, "player_left", EventPayload{UserName: player.UserName, Reason: "idle"})
	}
	for roomID, count := range rooms {
		log.Info().Str("room_id", roomID).Int("count", count).Msg("idle players deactivated")
		s.notify(roomID, api.TablePlayers, api.EventUpdate)
	}
	s.limiter.prune(s.now().Add(-limiterIdleTTL))
	return len(idle), nil
}

func (s *Server) pruneEvents(ctx context.Context) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -s.cfg.EventRetentionDays)
	removed, err := s.repo.PruneEvents(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	log.Info().Int64("removed", removed).Msg("events pruned")
	return removed, nil
}
