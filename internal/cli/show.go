package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kraukis/substore/internal/models"
)

var showCmd = &cobra.Command{
	Use:   "show <blob-id>",
	Short: "Show a blob's metadata and ownership chain",
	Args:  cobra.ExactArgs(1),
	Run:   runShow,
}

var showContents bool

func init() {
	showCmd.Flags().BoolVar(&showContents, "contents", false, "Write raw contents to stdout")
}

func runShow(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	id, err := models.ParseBlobID(args[0])
	if err != nil {
		exitError("%v", err)
	}

	blob, err := c.Store.Get(id)
	if err != nil {
		exitError("blob %s: %v", args[0], err)
	}

	if showContents {
		os.Stdout.Write(blob.Contents)
		return
	}

	yellow := color.New(color.FgYellow)
	yellow.Printf("blob %s\n", blob.ID)
	fmt.Printf("kind:       %s\n", blob.Kind)
	fmt.Printf("mutability: %s\n", blob.Mutability)
	if blob.IsMaster() {
		fmt.Printf("owner:      %s (master)\n", blob.Owner.Short())
	} else {
		fmt.Printf("owner:      %s\n", blob.Owner.Short())
	}
	fmt.Printf("size:       %d bytes\n", len(blob.Contents))

	chain, err := c.Store.Chain(id)
	if err != nil {
		exitError("ownership chain: %v", err)
	}
	if len(chain) > 1 {
		fmt.Printf("chain:      ")
		for i, link := range chain {
			if i > 0 {
				fmt.Printf(" <- ")
			}
			fmt.Printf("%s", link.Short())
		}
		fmt.Println()
	}

	if blob.Kind == models.KindProgram {
		prog, err := models.DecodeProgram(blob.Contents)
		if err != nil {
			exitError("decode program: %v", err)
		}
		fmt.Printf("functions:  %d\n", len(prog.Functions))
		for name, fn := range prog.Functions {
			fmt.Printf("  %s(%d args) -> %s\n", name, len(fn.Params), fn.Returns)
		}
	}
}
