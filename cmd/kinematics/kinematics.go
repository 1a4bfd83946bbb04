package kinematics

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trajlink/trajlink-go/internal/conf"
	"github.com/trajlink/trajlink-go/internal/pipeline"
)

// Command creates the kinematics command: recompute the derived metric columns
// of a merged dataset, for example after correcting the frame rate.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kinematics [trajectories.csv]",
		Short: "Recompute kinematic metrics on a merged dataset",
		Long: `Reload a merged trajectory CSV, recompute step lengths, speeds, displacements
and angles with the currently configured frame rate, and rewrite the file in
place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if settings.Kinematics.FrameRate <= 0 {
				return fmt.Errorf("kinematics frame rate must be greater than 0")
			}
			if err := pipeline.Recompute(settings, args[0]); err != nil {
				return err
			}
			fmt.Printf("recomputed kinematics at %.3f fps in %s\n", settings.Kinematics.FrameRate, args[0])
			return nil
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the kinematics command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().Float64Var(&settings.Kinematics.FrameRate, "framerate", viper.GetFloat64("kinematics.framerate"), "Video frame rate in frames per second")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
