package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/conduit/internal/presentation/graph"
	httpAdapter "github.com/aretw0/conduit/pkg/adapters/http"
)

var graphCmd = &cobra.Command{
	Use:   "graph [file or id]",
	Short: "Export the contract graph visualization",
	Long:  `Compiles a contract and outputs a Mermaid diagram (graph TD) of its tubes and joints.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		contracts, err := a.Contracts(cmd.Context(), args)
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if raw, _ := cmd.Flags().GetString("path"); raw != "" {
			path, err := httpAdapter.ParsePath(raw)
			if err != nil {
				return err
			}
			overlay = graph.NewOverlay(path)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(a.Engine.Compile(contracts[0].Code), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("path", "", "Comma separated node trail to highlight, e.g. 1,3,0")
}
