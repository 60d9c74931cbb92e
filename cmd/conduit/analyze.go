package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/conduit"
	"github.com/aretw0/conduit/internal/cli"
	"github.com/aretw0/conduit/internal/presentation/report"
	"github.com/aretw0/conduit/internal/presentation/tui"
	"github.com/aretw0/conduit/pkg/domain"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files or ids...]",
	Short: "Enumerate every path through one or more contracts",
	Long: `Parses each contract, compiles it into a graph and runs a valve until every
path has finished or failed (or the step limit is reached). Arguments are
Micheline JSON files or contract IDs in the --dir repository; with no
arguments every contract in the repository is analysed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		concurrency, _ := cmd.Flags().GetInt("concurrency")
		asJSON, _ := cmd.Flags().GetBool("json")
		out := cmd.OutOrStdout()
		show := func(reports []*domain.Report) error {
			if asJSON {
				return printJSON(out, reports)
			}
			return printReports(out, reports)
		}

		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			sigCtx := cli.NewSignalContext(cmd.Context())
			defer sigCtx.Cancel()
			err := a.Watch(sigCtx, args, concurrency, show)
			if sig := sigCtx.Signal(); sig != nil {
				a.Logger.Info("Watcher stopped", "signal", sig.String())
			}
			return err
		}

		contracts, err := a.Contracts(cmd.Context(), args)
		if err != nil {
			return err
		}
		reports, err := a.Analyze(cmd.Context(), contracts, concurrency)
		if err != nil {
			return err
		}
		return show(reports)
	},
}

func printJSON(out io.Writer, reports []*domain.Report) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if len(reports) == 1 {
		return enc.Encode(reports[0])
	}
	return enc.Encode(reports)
}

// printReports renders markdown through glamour on a terminal and as plain
// markdown otherwise.
func printReports(out io.Writer, reports []*domain.Report) error {
	render := func(md string) (string, error) { return md, nil }
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		width, _, err := term.GetSize(int(f.Fd()))
		if err != nil {
			width = 0
		}
		glam, err := tui.NewRenderer(width)
		if err != nil {
			return err
		}
		render = glam
		tui.PrintBanner(out, conduit.Version)
	}

	for _, r := range reports {
		text, err := render(report.Markdown(r))
		if err != nil {
			return err
		}
		fmt.Fprint(out, text)
		fmt.Fprintf(out, "\n%s %s: %d terminal, %d failing\n\n",
			tui.Outcome(out, len(r.Failures) > 0), r.Contract, len(r.Terminals), len(r.Failures))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().Bool("json", false, "Print reports as JSON")
	analyzeCmd.Flags().Int("max-steps", conduit.DefaultStepLimit, "Step limit per contract (0 disables it)")
	analyzeCmd.Flags().String("store", "memory", "Report store: memory or redis")
	analyzeCmd.Flags().Int("concurrency", 4, "Contracts analysed in parallel")
	analyzeCmd.Flags().BoolP("watch", "w", false, "Re-analyse whenever the repository changes")
}
