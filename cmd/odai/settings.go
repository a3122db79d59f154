package main

import (
	"fmt"

	"odai-party/internal/drawer"

	"github.com/spf13/cobra"
)

func newSettingsCmd() *cobra.Command {
	var path, title, streamURL, hashtag string
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or update the share settings",
		Args:  cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindEnv(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var store drawer.SettingsStore = drawer.FileSettings{Path: path}
			settings, err := store.Load()
			if err != nil {
				return err
			}
			fs := cmd.Flags()
			changed := false
			if fs.Changed("title") {
				settings.AppTitle, changed = title, true
			}
			if fs.Changed("stream-url") {
				settings.StreamURL, changed = streamURL, true
			}
			if fs.Changed("hashtag") {
				settings.Hashtag, changed = hashtag, true
			}
			if changed {
				if err := store.Save(settings); err != nil {
					return err
				}
				if settings, err = store.Load(); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "title:      %s\n", settings.AppTitle)
			fmt.Fprintf(out, "stream url: %s\n", settings.StreamURL)
			fmt.Fprintf(out, "hashtag:    %s\n", settings.Hashtag)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&path, "settings", defaultSettingsPath(), "settings file (env: ODAI_SETTINGS)")
	fs.StringVar(&title, "title", "", "app title used in share text")
	fs.StringVar(&streamURL, "stream-url", "", "stream link used in share text")
	fs.StringVar(&hashtag, "hashtag", "", "hashtag used in share text")
	return cmd
}
