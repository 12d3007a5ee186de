package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kraukis/substore/internal/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store summary",
	Run:   runStatus,
}

func runStatus(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	var data, programs, masters int
	for _, blob := range c.Store.Snapshot() {
		switch blob.Kind {
		case models.KindData:
			data++
		case models.KindProgram:
			programs++
		}
		if blob.IsMaster() {
			masters++
		}
	}

	color.New(color.FgCyan).Printf("substore at %s\n", c.Config.Path())
	fmt.Printf("blobs:    %d (%d data, %d program)\n", c.Store.Len(), data, programs)
	fmt.Printf("masters:  %d\n", masters)
	if c.Config.GenesisID != "" {
		fmt.Printf("genesis:  %s\n", c.Config.GenesisID)
	}
}
