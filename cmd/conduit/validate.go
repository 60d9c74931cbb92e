package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [files or ids...]",
	Short: "Check contract graphs for consistency",
	Long: `Compiles each contract and crawls its graph from the root, reporting
dangling edges, malformed joints, unsupported instructions and unbalanced
cursor markers.`,
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

		failed := 0
		for _, c := range contracts {
			if err := a.Engine.Validate(a.Engine.Compile(c.Code)); err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", c.Name, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: graph is valid ✅\n", c.Name)
		}
		if failed > 0 {
			return fmt.Errorf("validation failed for %d of %d contracts", failed, len(contracts))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
