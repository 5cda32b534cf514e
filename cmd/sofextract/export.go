package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/maritime-assistant/sof-extractor/internal/common"
	"github.com/maritime-assistant/sof-extractor/internal/events"
	"github.com/maritime-assistant/sof-extractor/internal/export"
)

func newExportCmd(logger *slog.Logger) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export <result.json>",
		Short: "Re-serialize a processed event list as csv, json or xlsx",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			evs, err := readEvents(args[0])
			if err != nil {
				return err
			}

			cfg := common.LoadConfig()
			svc := export.NewService(logger)

			data, err := svc.Export(evs, format)
			if err != nil {
				return err
			}

			if output == "" {
				if err := os.MkdirAll(cfg.Export.Dir, 0o755); err != nil {
					return fmt.Errorf("create export dir: %w", err)
				}
				output = filepath.Join(cfg.Export.Dir, svc.Filename("", format))
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			logger.Info("export.written", "path", output, "format", format, "events", len(evs))
			fmt.Println(output)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", export.FormatCSV, "export format: csv | json | xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination path (default: EXPORT_DIR/sof_events_<timestamp>.<format>)")
	return cmd
}

// readEvents accepts either a full processing-result JSON (with an events
// field) or a bare event array.
func readEvents(path string) ([]events.CandidateEvent, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var wrapped struct {
		Events []events.CandidateEvent `json:"events"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Events != nil {
		return wrapped.Events, nil
	}

	var list []events.CandidateEvent
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("input is neither a processing result nor an event array: %w", err)
	}
	return list, nil
}
