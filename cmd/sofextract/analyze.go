package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/maritime-assistant/sof-extractor/internal/common"
	"github.com/maritime-assistant/sof-extractor/internal/ocr"
)

func newAnalyzeCmd(logger *slog.Logger) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "analyze <file.pdf>",
		Short: "Analyze document structure and recommend a processing mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := common.LoadConfig()
			engine := ocr.NewEngine(cfg.OCR, logger)
			analyzer := ocr.NewStructureAnalyzer(engine, logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			structure, rec, err := analyzer.Analyze(ctx, args[0])
			if err != nil {
				return err
			}

			report := struct {
				Filename        string             `json:"filename"`
				Structure       ocr.Structure      `json:"structure"`
				Recommendations ocr.Recommendation `json:"recommendations"`
			}{
				Filename:        filepath.Base(args[0]),
				Structure:       structure,
				Recommendations: rec,
			}
			b, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("encode report: %w", err)
			}
			return writeOrPrint(output, b)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report JSON to a file instead of stdout")
	return cmd
}
