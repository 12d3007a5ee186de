// Package cli implements the command-line interface for substore.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kraukis/substore/internal/config"
	"github.com/kraukis/substore/internal/snapshot"
	"github.com/kraukis/substore/internal/store"
)

// cmdContext holds common resources for CLI commands.
type cmdContext struct {
	Config *config.Config
	Snap   *snapshot.DB
	Store  *store.Store
}

// Close releases resources held by cmdContext.
func (c *cmdContext) Close() {
	if c.Snap != nil {
		c.Snap.Close()
	}
}

// initContext loads config, opens the snapshot database, and restores the
// in-memory store from it.
func initContext() *cmdContext {
	cfg, err := config.Load()
	if err != nil {
		exitError("%v", err)
	}

	snap, err := snapshot.Open(cfg.SnapshotPath())
	if err != nil {
		exitError("failed to open snapshot database: %v", err)
	}

	blobs, err := snap.Load()
	if err != nil {
		snap.Close()
		exitError("failed to load snapshot: %v", err)
	}

	st := store.New()
	if err := st.Restore(blobs); err != nil {
		snap.Close()
		exitError("failed to restore store: %v", err)
	}

	return &cmdContext{Config: cfg, Snap: snap, Store: st}
}

// saveStore persists the current in-memory store back to the snapshot
// database.
func (c *cmdContext) saveStore() {
	if err := c.Snap.Save(c.Store.Snapshot()); err != nil {
		exitError("failed to save snapshot: %v", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "substore",
	Short: "Content-addressed blob substrate",
	Long: `Substore is a content-addressed object store with an ownership
hierarchy and a sandboxed execution model. All state is blobs; all state
transitions are program executions that create, read, write, or delete
blobs under deterministic identifier rules.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(tapeCmd)
}

// exitError prints an error and exits.
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
