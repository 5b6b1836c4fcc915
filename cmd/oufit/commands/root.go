package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// cliVersion is the version string reported to telemetry.
	cliVersion = "dev"
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	cliVersion = version
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "oufit",
		Short: "oufit - Bayesian Ornstein-Uhlenbeck process fitting",
		Long: `oufit fits Ornstein-Uhlenbeck process parameters to time series data
with MCMC, using a cached model graph so repeated fits on new data skip
graph reconstruction.

Model variants:
  - ou_da:                 uniform priors on damping rate D and amplitude A
  - ou_ba:                 uniform priors on lag-1 correlation B and amplitude A
  - langevin_plus_noise_ig: latent OU path with Gaussian measurement noise
  - langevin_ig2:          two paths sharing one damping rate`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(newFitCommand())
	rootCmd.AddCommand(newSimulateCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newRunsCommand())

	return rootCmd
}
