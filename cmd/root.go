package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trajlink/trajlink-go/cmd/kinematics"
	"github.com/trajlink/trajlink-go/cmd/merge"
	"github.com/trajlink/trajlink-go/cmd/run"
	"github.com/trajlink/trajlink-go/internal/conf"
	"github.com/trajlink/trajlink-go/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "trajlink",
		Short: "TrajLink CLI",
		Long:  "Link per-frame particle detections into movement trajectories with kinematic metrics.",
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		panic(err)
	}

	subcommands := []*cobra.Command{
		run.Command(settings),
		merge.Command(settings),
		kinematics.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	var closeFileLog func() error

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if settings.Debug {
			logging.SetLevel(slog.LevelDebug)
		}
		if settings.Main.Log.Enabled {
			fileLogger, closer, err := logging.NewFileLogger(settings.Main.Log.Path, settings.Main.Name, slog.LevelInfo)
			if err != nil {
				return fmt.Errorf("error opening pipeline log %s: %w", settings.Main.Log.Path, err)
			}
			slog.SetDefault(fileLogger)
			closeFileLog = closer
		}
		return nil
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if closeFileLog != nil {
			return closeFileLog()
		}
		return nil
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.Output.Dir, "output", "o", viper.GetString("output.dir"), "Directory for the merged CSV and retained worker logs")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
