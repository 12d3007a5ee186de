package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kraukis/substore/internal/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Export and import snapshot archives",
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the store as a compressed archive",
	Args:  cobra.ExactArgs(1),
	Run:   runSnapshotExport,
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the store contents from a compressed archive",
	Args:  cobra.ExactArgs(1),
	Run:   runSnapshotImport,
}

func init() {
	snapshotCmd.AddCommand(snapshotExportCmd)
	snapshotCmd.AddCommand(snapshotImportCmd)
}

func runSnapshotExport(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	f, err := os.Create(args[0])
	if err != nil {
		exitError("failed to create archive: %v", err)
	}
	defer f.Close()

	blobs := c.Store.Snapshot()
	if err := snapshot.Export(f, blobs); err != nil {
		exitError("failed to export archive: %v", err)
	}

	color.New(color.FgGreen).Printf("Exported %d blob(s) to %s\n", len(blobs), args[0])
}

func runSnapshotImport(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	f, err := os.Open(args[0])
	if err != nil {
		exitError("failed to open archive: %v", err)
	}
	defer f.Close()

	blobs, err := snapshot.Import(f)
	if err != nil {
		exitError("failed to read archive: %v", err)
	}

	if err := c.Store.Restore(blobs); err != nil {
		exitError("failed to restore store: %v", err)
	}
	c.saveStore()

	fmt.Printf("Imported %d blob(s)\n", len(blobs))
}
