package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kraukis/substore/internal/models"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all live blobs",
	Run:   runList,
}

var (
	listKind    string
	listMasters bool
)

func init() {
	listCmd.Flags().StringVar(&listKind, "kind", "", "Filter by kind (data, program)")
	listCmd.Flags().BoolVar(&listMasters, "masters", false, "Show only master blobs")
}

func runList(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	var kindFilter models.Kind
	if listKind != "" {
		if err := kindFilter.UnmarshalText([]byte(listKind)); err != nil {
			exitError("%v", err)
		}
	}

	yellow := color.New(color.FgYellow)
	shown := 0
	for _, blob := range c.Store.Snapshot() {
		if listKind != "" && blob.Kind != kindFilter {
			continue
		}
		if listMasters && !blob.IsMaster() {
			continue
		}

		yellow.Printf("%s", blob.ID.Short())
		owner := blob.Owner.Short()
		if blob.IsMaster() {
			owner = "self"
		}
		fmt.Printf("  %-7s %-9s owner=%-8s %d bytes\n", blob.Kind, blob.Mutability, owner, len(blob.Contents))
		shown++
	}

	if shown == 0 {
		fmt.Println("No blobs")
	}
}
