package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func newCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "odai",
		Short:         "Draw party-game topics offline or follow a live room.",
		Args:          cobra.NoArgs,
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.AddCommand(newDrawCmd(), newSettingsCmd(), newWatchCmd())

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("odai v{{.Version}}\n")
	return cmd
}

// bindEnv lets every flag in fs be set from ODAI_<FLAG> unless given explicitly.
func bindEnv(fs *pflag.FlagSet) {
	v := viper.New()
	v.SetEnvPrefix("ODAI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "odai_settings.json"
	}
	return filepath.Join(dir, "odai", "settings.json")
}
