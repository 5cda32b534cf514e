package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/maritime-assistant/sof-extractor/internal/common"
	"github.com/maritime-assistant/sof-extractor/internal/events"
	"github.com/maritime-assistant/sof-extractor/internal/extract"
	"github.com/maritime-assistant/sof-extractor/internal/history"
	"github.com/maritime-assistant/sof-extractor/internal/llm/openrouter"
	"github.com/maritime-assistant/sof-extractor/internal/ocr"
	"github.com/maritime-assistant/sof-extractor/internal/pipeline"
)

func newProcessCmd(logger *slog.Logger) *cobra.Command {
	var (
		mode     string
		timezone string
		useOCR   bool
		output   string
	)

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Process a SoF document and print the extracted events as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := common.LoadConfig()
			if mode == pipeline.ModeAccuracy {
				if err := cfg.ValidateForAccuracyMode(); err != nil {
					return err
				}
			}

			proc := buildProcessor(cfg, logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			result, err := proc.Process(ctx, args[0], pipeline.Options{
				Mode:         mode,
				PortTimezone: timezone,
				EnableOCR:    useOCR,
			})
			if err != nil {
				return err
			}

			if cfg.History.Path != "" {
				recordRun(ctx, cfg.History.Path, result, logger)
			}

			b, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			return writeOrPrint(output, b)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", pipeline.ModeAccuracy, "processing mode: accuracy | cost-saving")
	cmd.Flags().StringVar(&timezone, "timezone", "UTC", "port timezone identifier")
	cmd.Flags().BoolVar(&useOCR, "ocr", true, "enable OCR fallback for scanned PDFs")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result JSON to a file instead of stdout")
	return cmd
}

func buildProcessor(cfg *common.Config, logger *slog.Logger) *pipeline.Processor {
	engine := ocr.NewEngine(cfg.OCR, logger)
	pdfOCR := ocr.NewPDFOCR(cfg.OCR, engine, logger)
	pdf := extract.NewPDFExtractor(extract.FitzReader{}, pdfOCR, logger)
	docx := extract.NewDocxExtractor(logger)
	proposer := openrouter.NewClient(openrouter.Config{
		APIKey:      cfg.Proposer.APIKey,
		BaseURL:     cfg.Proposer.BaseURL,
		Model:       cfg.Proposer.Model,
		MaxTokens:   cfg.Proposer.MaxTokens,
		Temperature: cfg.Proposer.Temperature,
		Timeout:     cfg.Proposer.Timeout,
	}, logger)
	return pipeline.NewProcessor(
		pdf, docx, proposer,
		events.NewHeuristicExtractor(),
		events.NewNormalizer(logger),
		logger,
	)
}

// recordRun appends the run to the history store. History is best-effort:
// a failure here is logged, never surfaced to the caller.
func recordRun(ctx context.Context, path string, result *pipeline.Result, logger *slog.Logger) {
	store, err := history.Open(path, logger)
	if err != nil {
		logger.Warn("history.open_failed", "path", path, "error", err)
		return
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Warn("history.close_failed", "error", cerr)
		}
	}()

	err = store.Record(ctx, history.Run{
		ID:                 result.ProcessingID,
		Filename:           result.Filename,
		Mode:               result.Stats.Mode,
		TotalEvents:        result.Stats.TotalEvents,
		LowConfidenceCount: result.Stats.LowConfidenceCount,
		TextLength:         result.Stats.TextLength,
		ProcessedAt:        time.Now(),
	})
	if err != nil {
		logger.Warn("history.record_failed", "error", err)
	}
}
