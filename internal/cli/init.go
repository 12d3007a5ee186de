package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kraukis/substore/internal/config"
	"github.com/kraukis/substore/internal/core"
	"github.com/kraukis/substore/internal/models"
	"github.com/kraukis/substore/internal/snapshot"
	"github.com/kraukis/substore/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new substore directory",
	Long: `Create a .substore directory in the current directory with an empty
store. With --program, a genesis master program is installed from the given
JSON function-set file.`,
	Run: runInit,
}

var (
	initProgramFile string
	initGenesisName string
	initMutable     bool
)

func init() {
	initCmd.Flags().StringVar(&initProgramFile, "program", "", "JSON file with the genesis program's function set")
	initCmd.Flags().StringVar(&initGenesisName, "name", "genesis", "Derivation name of the genesis master")
	initCmd.Flags().BoolVar(&initMutable, "mutable", false, "Make the genesis program mutable")
}

func runInit(cmd *cobra.Command, args []string) {
	cfg, err := config.Initialize()
	if err != nil {
		exitError("%v", err)
	}

	snap, err := snapshot.Open(cfg.SnapshotPath())
	if err != nil {
		exitError("failed to create snapshot database: %v", err)
	}
	defer snap.Close()

	st := store.New()

	if initProgramFile != "" {
		data, err := os.ReadFile(initProgramFile)
		if err != nil {
			exitError("failed to read program file: %v", err)
		}
		var prog models.Program
		if err := json.Unmarshal(data, &prog); err != nil {
			exitError("failed to parse program file: %v", err)
		}

		mut := models.Immutable
		if initMutable {
			mut = models.Mutable
		}

		id, err := core.CreateGenesis(st, initGenesisName, &prog, mut)
		if err != nil {
			exitError("%v", err)
		}

		cfg.GenesisID = id.String()
		if err := cfg.Save(); err != nil {
			exitError("failed to save config: %v", err)
		}

		if err := snap.Save(st.Snapshot()); err != nil {
			exitError("failed to save snapshot: %v", err)
		}

		green := color.New(color.FgGreen)
		green.Printf("Initialized substore in %s\n", cfg.Path())
		fmt.Printf("genesis master: %s\n", id)
		return
	}

	color.New(color.FgGreen).Printf("Initialized empty substore in %s\n", cfg.Path())
}
