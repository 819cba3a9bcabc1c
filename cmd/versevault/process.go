package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/VerseVault/internal/app"
	"github.com/dharsanguruparan/VerseVault/internal/config"
	"github.com/dharsanguruparan/VerseVault/internal/model"
	"github.com/dharsanguruparan/VerseVault/internal/queue"
	"github.com/dharsanguruparan/VerseVault/internal/s3storage"
	"github.com/dharsanguruparan/VerseVault/internal/status"
)

func newProcessCmd() *cobra.Command {
	var (
		file   string
		bucket string
	)
	cmd := &cobra.Command{
		Use:   "process [document-id]",
		Short: "Run the structuring pipeline in this process",
		Long: `Runs the pipeline for an existing document, or registers a local file first with --file.
Without DATABASE_URL the records live in memory and are printed when the run ends.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if (file == "") == (len(args) == 0) {
				return errors.New("pass either a document id or --file")
			}
			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}
			if err := cfg.Validate(config.NeedLLM); err != nil {
				return err
			}
			store, closeStore, err := app.OpenStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			docID := ""
			if len(args) == 1 {
				docID = args[0]
			} else {
				doc, err := registerFile(ctx, cfg, store, file, bucket)
				if err != nil {
					return err
				}
				docID = doc.ID
				fmt.Fprintf(cmd.ErrOrStderr(), "registered %s as %s\n", filepath.Base(file), color.CyanString(docID))
			}

			p, err := app.NewPipeline(cfg, store, app.SharedLLM(cfg), logger)
			if err != nil {
				return err
			}
			prog := newChunkProgress(cmd.ErrOrStderr(), verbose)
			res, runErr := p.Run(ctx, docID, prog.observe)
			prog.finish()

			payload, err := status.NewService(store).Get(context.WithoutCancel(ctx), docID)
			if err != nil {
				return errors.Join(runErr, err)
			}
			if jsonOut {
				if err := printJSON(cmd.OutOrStdout(), payload); err != nil {
					return err
				}
			} else {
				printStatus(cmd.OutOrStdout(), payload)
				if res != nil && len(res.FailedChunks) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s chunks without a result: %v\n", color.YellowString("warning:"), res.FailedChunks)
				}
			}
			return runErr
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Local .txt, .json or .pdf file to register and process")
	cmd.Flags().StringVar(&bucket, "bucket", "", "Upload --file to this S3 bucket instead of storing it inline")
	return cmd
}

// registerFile creates a document for a local file, storing its bytes either
// in object storage or inline as base64.
func registerFile(ctx context.Context, cfg *config.Config, store app.Store, path, bucket string) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	name := filepath.Base(path)
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	ref := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	if bucket != "" {
		if !cfg.ObjectStorageEnabled() {
			return nil, errors.New("--bucket needs S3_ENDPOINT")
		}
		objects, err := s3storage.New(cfg)
		if err != nil {
			return nil, err
		}
		if err := objects.EnsureBucket(ctx, bucket); err != nil {
			return nil, err
		}
		key := fmt.Sprintf("sources/%s/%s", uuid.NewString(), name)
		ref, err = objects.Upload(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), contentType)
		if err != nil {
			return nil, err
		}
	}

	doc := &model.Document{
		FileName:    name,
		ContentType: contentType,
		Size:        int64(len(data)),
		StorageRef:  ref,
	}
	if err := store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func newEnqueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <document-id>...",
		Short: "Queue documents for the worker",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadEnv()
			if err != nil {
				return err
			}
			if err := cfg.Validate(config.NeedRedis); err != nil {
				return err
			}
			client := asynq.NewClient(app.RedisOpt(cfg))
			defer client.Close()
			sub := queue.NewSubmitter(client, cfg.TaskUniqueTTL)

			var errs []error
			for _, id := range args {
				err := sub.Submit(cmd.Context(), id)
				switch {
				case err == nil:
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("queued"), id)
				case errors.Is(err, queue.ErrAlreadyQueued):
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.YellowString("already queued"), id)
				default:
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		},
	}
}

// chunkProgress drives a progress bar from the run's log entries.
type chunkProgress struct {
	out     io.Writer
	verbose bool
	bar     *progressbar.ProgressBar
}

func newChunkProgress(out io.Writer, verbose bool) *chunkProgress {
	return &chunkProgress{out: out, verbose: verbose}
}

func (c *chunkProgress) observe(e model.LogEntry) {
	chunk, hasChunk := e.Metadata["chunk"].(int)
	if total, ok := e.Metadata["total"].(int); ok && hasChunk && c.bar == nil {
		c.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(c.out),
			progressbar.OptionSetDescription("chunks"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	if c.verbose || e.Level == model.LevelWarn || e.Level == model.LevelError {
		if c.bar != nil {
			_ = c.bar.Clear()
		}
		fmt.Fprintf(c.out, "%s %s\n", levelTag(e.Level), e.Message)
	}

	if c.bar == nil {
		return
	}
	unit, _ := e.Metadata["unit"].(string)
	switch {
	case strings.HasPrefix(unit, "chunk") && e.Level == model.LevelInfo:
		_ = c.bar.Add(1)
	case hasChunk && e.Level == model.LevelError:
		_ = c.bar.Add(1)
	case hasChunk:
		c.bar.Describe(fmt.Sprintf("chunk %d", chunk))
	}
}

func (c *chunkProgress) finish() {
	if c.bar != nil {
		_ = c.bar.Finish()
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
