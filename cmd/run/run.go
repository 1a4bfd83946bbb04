package run

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trajlink/trajlink-go/internal/conf"
	"github.com/trajlink/trajlink-go/internal/pipeline"
)

// Command creates the run command: the full pipeline over a directory of
// detection tables.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [detections-dir]",
		Short: "Link all detection tables in a directory",
		Long: `Run the full pipeline: load every detection table in the directory, link each
video's detections into trajectories with the external particle linker under a
bounded worker pool, merge the results and derive kinematic metrics.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Input.Dir = args[0]
			if err := conf.ValidateSettings(settings); err != nil {
				return err
			}

			result, err := pipeline.New(settings).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("merged %d trajectories from %d video(s) into %s\n",
				len(result.Dataset.Trajectories), len(result.Verdict.Linked), result.CSVPath)
			return nil
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the run command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Input.Pattern, "pattern", viper.GetString("input.pattern"), "Glob pattern matching detection table files")
	cmd.Flags().StringVar(&settings.Linker.JavaPath, "java", viper.GetString("linker.javapath"), "Path to the java executable")
	cmd.Flags().StringVar(&settings.Linker.JarPath, "jar", viper.GetString("linker.jarpath"), "Path to the particle linker jar")
	cmd.Flags().IntVar(&settings.Linker.LinkRange, "linkrange", viper.GetInt("linker.linkrange"), "Frames bridged across a missed detection")
	cmd.Flags().Float64Var(&settings.Linker.Displacement, "displacement", viper.GetFloat64("linker.displacement"), "Max per-frame displacement in pixels")
	cmd.Flags().DurationVar(&settings.Linker.Timeout, "timeout", viper.GetDuration("linker.timeout"), "Wall clock cap per linker invocation")
	cmd.Flags().BoolVar(&settings.Linker.CopyRuntime, "copyruntime", viper.GetBool("linker.copyruntime"), "Copy the jar into each workspace")
	cmd.Flags().IntVar(&settings.Pool.MemoryMB, "memory", viper.GetInt("pool.memorymb"), "Total memory budget in MB, 0 to discover from the system")
	cmd.Flags().IntVar(&settings.Pool.WorkerMemoryMB, "workermemory", viper.GetInt("pool.workermemorymb"), "Per-worker JVM memory in MB")
	cmd.Flags().IntVarP(&settings.Pool.MaxWorkers, "workers", "w", viper.GetInt("pool.maxworkers"), "Hard cap on concurrent workers")
	cmd.Flags().IntVar(&settings.Pool.Cores, "cores", viper.GetInt("pool.cores"), "Logical core count, 0 to discover from the system")
	cmd.Flags().Float64Var(&settings.Kinematics.FrameRate, "framerate", viper.GetFloat64("kinematics.framerate"), "Video frame rate in frames per second")
	cmd.Flags().StringVar(&settings.Workspace.BaseDir, "workdir", viper.GetString("workspace.basedir"), "Parent directory for worker workspaces")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
