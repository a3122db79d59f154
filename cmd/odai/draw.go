package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"odai-party/internal/content"
	"odai-party/internal/drawer"
	"odai-party/internal/game"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type drawOptions struct {
	data         string
	settings     string
	max          int
	count        int
	fill         bool
	share        bool
	logDir       string
	reverse      float64
	templateText string
}

func newDrawCmd() *cobra.Command {
	opts := &drawOptions{}
	cmd := &cobra.Command{
		Use:   "draw",
		Short: "Draw topics from a local content file",
		Args:  cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindEnv(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDraw(cmd, opts)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&opts.data, "data", "d", "data.json", "content file to draw from (env: ODAI_DATA)")
	fs.StringVar(&opts.settings, "settings", defaultSettingsPath(), "settings file (env: ODAI_SETTINGS)")
	fs.IntVarP(&opts.max, "max", "m", drawer.DefaultMaxDraw, "maximum topics held at once (env: ODAI_MAX)")
	fs.IntVarP(&opts.count, "count", "n", 1, "topics to draw (env: ODAI_COUNT)")
	fs.BoolVar(&opts.fill, "fill", false, "draw until max is reached (env: ODAI_FILL)")
	fs.BoolVar(&opts.share, "share", false, "print share text for the draws (env: ODAI_SHARE)")
	fs.StringVar(&opts.logDir, "log-dir", "", "write a draw log into this directory (env: ODAI_LOG_DIR)")
	fs.Float64Var(&opts.reverse, "reverse-probability", game.DefaultReverseProbability, "chance of forcing the inverted word (env: ODAI_REVERSE_PROBABILITY)")
	fs.StringVar(&opts.templateText, "template", game.DefaultTemplate, "topic template with two %s (env: ODAI_TEMPLATE)")
	return cmd
}

func runDraw(cmd *cobra.Command, opts *drawOptions) error {
	data, err := content.Load(opts.data)
	if err != nil {
		return fmt.Errorf("load %s: %w", opts.data, err)
	}
	settings, err := drawer.FileSettings{Path: opts.settings}.Load()
	if err != nil {
		return err
	}

	generator := game.NewGenerator()
	generator.ReverseProbability = opts.reverse
	if game.ValidTemplate(opts.templateText) {
		generator.Template = opts.templateText
	} else {
		log.Warn().Str("template", opts.templateText).Msg("invalid template; using default")
	}
	session := drawer.NewSession(data, generator)

	if opts.fill {
		if _, err := session.DrawMax(opts.max); err != nil {
			return err
		}
	} else {
		for i := 0; i < opts.count; i++ {
			if _, err := session.DrawOne(opts.max); err != nil {
				return err
			}
		}
	}

	out := cmd.OutOrStdout()
	results := session.Results()
	for i, result := range results {
		marker := ""
		if result.Reverse {
			marker = " (reverse)"
		}
		fmt.Fprintf(out, "%d. %s%s\n", i+1, result.Text, marker)
	}
	if opts.share {
		fmt.Fprintf(out, "\n%s\n", drawer.ShareAll(settings, results))
	}
	if opts.logDir != "" {
		now := time.Now()
		path := filepath.Join(opts.logDir, drawer.LogFileName(now))
		if err := os.WriteFile(path, []byte(drawer.LogText(settings, results, now)), 0o644); err != nil {
			return fmt.Errorf("write log: %w", err)
		}
		log.Info().Str("path", path).Int("topics", len(results)).Msg("draw log written")
	}
	return nil
}
