package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Run one pipeline cycle and print the snapshot",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the full snapshot as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	p, cleanup, err := buildPipeline()
	if err != nil {
		return err
	}
	defer cleanup()

	snapshot := p.RunOnce(context.Background())

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot)
	}

	fmt.Println(snapshot.TopLine)
	return nil
}
