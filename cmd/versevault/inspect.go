package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/VerseVault/internal/app"
	"github.com/dharsanguruparan/VerseVault/internal/chunk"
	"github.com/dharsanguruparan/VerseVault/internal/config"
	"github.com/dharsanguruparan/VerseVault/internal/model"
	pdfutil "github.com/dharsanguruparan/VerseVault/internal/pdf"
	"github.com/dharsanguruparan/VerseVault/internal/status"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <document-id>",
		Short: "Show the derived processing status of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := loadStatus(cmd, args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), payload)
			}
			printStatus(cmd.OutOrStdout(), payload)
			return nil
		},
	}
}

func newLogsCmd() *cobra.Command {
	var level string
	cmd := &cobra.Command{
		Use:   "logs <document-id>",
		Short: "Print the processing log of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := loadStatus(cmd, args[0])
			if err != nil {
				return err
			}
			logs := filterLogs(payload.Logs, model.LogLevel(level))
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), logs)
			}
			for _, e := range logs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
					e.CreatedAt.Format("15:04:05.000"), levelTag(e.Level), e.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "Only show entries at this level or above (debug, info, warn, error)")
	return cmd
}

func newChunksCmd() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "chunks <file>",
		Short: "Show how a local file would be split into extraction units",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			text := string(data)
			if strings.EqualFold(filepath.Ext(args[0]), ".pdf") {
				if text, err = pdfutil.ExtractText(data, nil); err != nil {
					return err
				}
			}
			if size <= 0 {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				size = cfg.ChunkSize
			}
			return printChunks(cmd.OutOrStdout(), text, size)
		},
	}
	cmd.Flags().IntVar(&size, "size", 0, "Maximum characters per chunk (defaults to CHUNK_SIZE)")
	return cmd
}

func loadStatus(cmd *cobra.Command, id string) (*status.Payload, error) {
	cfg, logger, err := loadEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(config.NeedDatabase); err != nil {
		return nil, err
	}
	store, closeStore, err := app.OpenStore(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}
	defer closeStore()
	return status.NewService(store).Get(cmd.Context(), id)
}

func printStatus(w io.Writer, p *status.Payload) {
	fmt.Fprintf(w, "document  %s\n", p.DocumentID)
	fmt.Fprintf(w, "status    %s\n", statusColour(p.Status))
	if p.Book != nil {
		fmt.Fprintf(w, "title     %s\n", p.Book.Title)
		fmt.Fprintf(w, "language  %s\n", p.Book.Language)
		fmt.Fprintf(w, "chapters  %d\n", len(p.Chapters))
		fmt.Fprintf(w, "verses    %d (%d analyzed)\n", p.Analyses.Total, p.Analyses.Completed)
	}
	if p.Error != nil {
		fmt.Fprintf(w, "error     %s\n", color.RedString(*p.Error))
	}
}

func printChunks(w io.Writer, text string, size int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHUNK\tSTART\tEND\tCHARS")
	for c := range chunk.Chunks(text, size) {
		fmt.Fprintf(tw, "%d/%d\t%d\t%d\t%d\n", c.Index+1, c.Total, c.Start, c.End, c.End-c.Start)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d chunks of up to %d characters\n", chunk.Count(text, size), size)
	return nil
}

var levelRank = map[model.LogLevel]int{
	model.LevelDebug: 0,
	model.LevelInfo:  1,
	model.LevelWarn:  2,
	model.LevelError: 3,
}

func filterLogs(logs []model.LogEntry, min model.LogLevel) []model.LogEntry {
	floor, ok := levelRank[min]
	if !ok {
		return logs
	}
	out := make([]model.LogEntry, 0, len(logs))
	for _, e := range logs {
		if levelRank[e.Level] >= floor {
			out = append(out, e)
		}
	}
	return out
}

func levelTag(l model.LogLevel) string {
	tag := fmt.Sprintf("%-5s", strings.ToUpper(string(l)))
	switch l {
	case model.LevelError:
		return color.RedString(tag)
	case model.LevelWarn:
		return color.YellowString(tag)
	case model.LevelDebug:
		return color.HiBlackString(tag)
	default:
		return color.BlueString(tag)
	}
}

func statusColour(s model.ProcessingStatus) string {
	switch s {
	case model.ProcessingCompleted:
		return color.GreenString(string(s))
	case model.ProcessingFailed:
		return color.RedString(string(s))
	case model.ProcessingActive:
		return color.YellowString(string(s))
	default:
		return string(s)
	}
}
