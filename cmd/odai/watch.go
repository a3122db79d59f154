package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"odai-party/internal/client"
	"odai-party/internal/livesync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var serverURL, roomID, userID string
	var interval, pingWait time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a live room and print its progress",
		Args:  cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindEnv(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if roomID == "" {
				return fmt.Errorf("--room is required")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return watchRoom(ctx, cmd, serverURL, roomID, userID, interval, pingWait)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&serverURL, "server", "s", "http://localhost:8080", "party server base URL (env: ODAI_SERVER)")
	fs.StringVarP(&roomID, "room", "r", "", "room id to follow (env: ODAI_ROOM)")
	fs.StringVarP(&userID, "user", "u", "", "your name in the room, keeps the seat alive (env: ODAI_USER)")
	fs.DurationVar(&interval, "interval", livesync.DefaultInterval, "poll interval while live updates are down (env: ODAI_INTERVAL)")
	fs.DurationVar(&pingWait, "ping-wait", client.DefaultPingWait, "drop live updates after this long without a server frame (env: ODAI_PING_WAIT)")
	return cmd
}

func watchRoom(ctx context.Context, cmd *cobra.Command, serverURL, roomID, userID string, interval, pingWait time.Duration) error {
	c := client.New(serverURL, nil)
	c.PingWait = pingWait
	view := client.NewView(c, roomID, userID)
	defer view.Close()

	out := cmd.OutOrStdout()
	last := ""
	view.OnChange(func(snap client.Snapshot) {
		if snap.State == nil {
			return
		}
		topic := "-"
		if snap.State.CurrentTopic != nil {
			topic = *snap.State.CurrentTopic
		}
		line := fmt.Sprintf("round %d  %-12s players %d  answers %d  topic %s",
			snap.State.Round, snap.State.Phase, len(snap.Players), len(snap.Answers), topic)
		if line != last {
			last = line
			fmt.Fprintln(out, line)
		}
	})

	r := livesync.New(livesync.Options{
		Interval:  interval,
		Subscribe: c.SubscribeFunc(roomID, userID),
		OnHealth: func(h livesync.Health) {
			log.Info().Str("room_id", roomID).Str("health", string(h)).Msg("sync health")
		},
	})
	view.Bind(r)
	if err := r.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
