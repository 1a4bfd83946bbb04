package merge

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trajlink/trajlink-go/internal/conf"
	"github.com/trajlink/trajlink-go/internal/pipeline"
)

// Command creates the merge command: combine existing linker output segments
// with their detection tables without rerunning the linker.
func Command(settings *conf.Settings) *cobra.Command {
	var segmentsDir string

	cmd := &cobra.Command{
		Use:   "merge [detections-dir]",
		Short: "Merge existing linker outputs into one dataset",
		Long: `Combine trajectory segments a previous run left behind with the detection
tables they came from, reassign global trajectory ids, join morphology and
derive kinematic metrics. The linker is not invoked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Input.Dir = args[0]
			if err := conf.ValidateSettings(settings); err != nil {
				return err
			}

			result, err := pipeline.New(settings).MergeExisting(segmentsDir)
			if err != nil {
				return err
			}
			fmt.Printf("merged %d trajectories from %d video(s) into %s\n",
				len(result.Dataset.Trajectories), len(result.Verdict.Linked), result.CSVPath)
			if n := len(result.Verdict.ToolErrors); n > 0 {
				fmt.Printf("warning: %d video(s) had no segment file\n", n)
			}
			return nil
		},
	}

	if err := setupFlags(cmd, settings, &segmentsDir); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the merge command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings, segmentsDir *string) error {
	cmd.Flags().StringVarP(segmentsDir, "segments", "s", "", "Directory containing per-video linker output segments")
	cmd.Flags().StringVar(&settings.Input.Pattern, "pattern", viper.GetString("input.pattern"), "Glob pattern matching detection table files")
	cmd.Flags().Float64Var(&settings.Kinematics.FrameRate, "framerate", viper.GetFloat64("kinematics.framerate"), "Video frame rate in frames per second")

	if err := cmd.MarkFlagRequired("segments"); err != nil {
		return err
	}

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
