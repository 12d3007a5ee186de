package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kraukis/substore/internal/core"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify store integrity",
	Long: `Walk the ownership chain of every live blob and check that each
terminates at a master within the store-size bound.`,
	Run: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	report, err := core.Verify(context.Background(), c.Store)
	if err != nil {
		exitError("integrity fault: %v", err)
	}

	color.New(color.FgGreen).Println("store integrity ok")
	fmt.Printf("blobs:     %d\n", report.Blobs)
	fmt.Printf("masters:   %d\n", report.Masters)
	fmt.Printf("max depth: %d\n", report.MaxDepth)
}
