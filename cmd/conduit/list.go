package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/conduit/pkg/adapters/loam"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List contracts in the repository, or stored reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if reports, _ := cmd.Flags().GetBool("reports"); reports {
			ids, err := a.Manager.List(ctx)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		}

		l, err := a.Loader()
		if err != nil {
			return err
		}
		ids, err := l.ListContracts(ctx)
		if err != nil {
			return err
		}
		described, ok := l.(interface {
			Metadata(context.Context, string) (loam.ContractMetadata, error)
		})
		for _, id := range ids {
			if !ok {
				fmt.Fprintln(out, id)
				continue
			}
			meta, err := described.Metadata(ctx, id)
			if err != nil {
				return err
			}
			line := id
			if meta.Name != "" && meta.Name != id {
				line += "\t" + meta.Name
			}
			if len(meta.Tags) > 0 {
				line += "\t[" + strings.Join(meta.Tags, ", ") + "]"
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Bool("reports", false, "List stored report IDs instead of contracts")
	listCmd.Flags().String("store", "memory", "Report store: memory or redis")
}
