package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/conduit/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "conduit",
	Short: "Conduit symbolically executes Michelson contracts",
	Long: `Conduit compiles a contract into a graph of tubes and joints and pushes
symbolic stacks through it, listing every path that finishes or fails.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("dir", ".", "Directory of the Loam contract repository")
	rootCmd.PersistentFlags().String("config", "", "Path to conduit.yaml (default: <dir>/conduit.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// newApp builds a cli.App from the persistent flags plus the command's
// --max-steps and --store when present.
func newApp(cmd *cobra.Command) (*cli.App, error) {
	opts := cli.Options{}
	opts.Dir, _ = cmd.Flags().GetString("dir")
	opts.ConfigPath, _ = cmd.Flags().GetString("config")
	opts.Debug, _ = cmd.Flags().GetBool("debug")
	if f := cmd.Flags().Lookup("max-steps"); f != nil && f.Changed {
		n, _ := cmd.Flags().GetInt("max-steps")
		opts.MaxSteps = &n
	}
	if f := cmd.Flags().Lookup("store"); f != nil && f.Changed {
		opts.Store, _ = cmd.Flags().GetString("store")
	}
	return cli.NewApp(opts)
}
