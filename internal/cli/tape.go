package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kraukis/substore/internal/config"
	"github.com/kraukis/substore/internal/journal"
)

var tapeCmd = &cobra.Command{
	Use:   "tape",
	Short: "Inspect the execution journal",
}

var tapeLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recorded invocations",
	Run:   runTapeLog,
}

var tapeExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the tape as JSON for replay verification",
	Args:  cobra.MaximumNArgs(1),
	Run:   runTapeExport,
}

var tapeLogLimit int

func init() {
	tapeLogCmd.Flags().IntVarP(&tapeLogLimit, "limit", "n", 0, "Limit the number of invocations to show")
	tapeCmd.AddCommand(tapeLogCmd)
	tapeCmd.AddCommand(tapeExportCmd)
}

// openJournal opens the execution journal of the current store directory.
func openJournal() *journal.Journal {
	cfg, err := config.Load()
	if err != nil {
		exitError("%v", err)
	}
	j, err := journal.Open(cfg.JournalPath())
	if err != nil {
		exitError("failed to open journal: %v", err)
	}
	if err := j.Initialize(); err != nil {
		j.Close()
		exitError("failed to initialize journal: %v", err)
	}
	return j
}

func runTapeLog(cmd *cobra.Command, args []string) {
	j := openJournal()
	defer j.Close()

	invocations, err := j.Invocations(tapeLogLimit)
	if err != nil {
		exitError("failed to read journal: %v", err)
	}

	if len(invocations) == 0 {
		fmt.Println("No invocations recorded")
		return
	}

	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)
	for _, inv := range invocations {
		yellow.Printf("#%d ", inv.ID)
		fmt.Printf("%s.%s ", inv.Program[:8], inv.Function)
		if inv.Status == "ok" {
			color.New(color.FgGreen).Println("ok")
		} else {
			red.Printf("%s", inv.Status)
			if inv.Error != "" {
				fmt.Printf(" (%s)", inv.Error)
			}
			fmt.Println()
		}
	}
}

func runTapeExport(cmd *cobra.Command, args []string) {
	j := openJournal()
	defer j.Close()

	out := os.Stdout
	if len(args) == 1 {
		f, err := os.Create(args[0])
		if err != nil {
			exitError("failed to create tape file: %v", err)
		}
		defer f.Close()
		out = f
	}

	if err := j.Export(out); err != nil {
		exitError("failed to export tape: %v", err)
	}
}
