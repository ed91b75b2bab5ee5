// Package file implements the one-shot file detection subcommand.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wildwatch/wildwatch-go/internal/conf"
	"github.com/wildwatch/wildwatch-go/internal/detection"
)

// Command creates the file subcommand. It runs the detection capability on a
// local image and prints the outcome as JSON, without touching the recipient
// store or sending notifications.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "file [image]",
		Short: "Analyze an image file for wildlife",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return analyzeFile(cmd.Context(), settings, args[0])
		},
	}
}

func analyzeFile(ctx context.Context, settings *conf.Settings, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading image file: %w", err)
	}

	capability := detection.NewClient(settings)
	result, err := capability.Detect(ctx, image)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}
	result.ImageID = path

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
