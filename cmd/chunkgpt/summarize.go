package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yanqian/chunkgpt/internal/bootstrap"
	"github.com/yanqian/chunkgpt/internal/domain/summarizer"
	"github.com/yanqian/chunkgpt/internal/infra/config"
	"github.com/yanqian/chunkgpt/pkg/logger"
)

var errEmptyInput = errors.New("input text is empty")

type summarizeOptions struct {
	finalStep string
	jsonOut   bool
	steps     bool
	logLevel  string
	offline   bool
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file]",
	Short: "Summarize a file, or stdin when no file is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := applySummaryFlags(cmd, cfg); err != nil {
			return err
		}
		text, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		opts := loadSummarizeOptions(cmd)
		opts.offline = bootstrap.Offline(cfg)
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := logger.NewText(cmd.ErrOrStderr(), logger.ParseLevel(opts.logLevel))
		engine, err := bootstrap.NewEngine(cfg, log)
		if err != nil {
			return err
		}
		return runSummarize(ctx, engine, text, opts, cmd.OutOrStdout())
	},
}

func init() {
	registerSummaryFlags(summarizeCmd)
	rootCmd.AddCommand(summarizeCmd)
}

func registerSummaryFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("model", "", "Chat completion model id")
	flags.Int("max-chunk-length", 0, "Upper bound on tokens per chunk")
	flags.Int("chunk-overlap", -1, "Tokens shared by consecutive chunks")
	flags.Int("summary-length", 0, "Tokens reserved for each completion")
	flags.Float32("temperature", 0, "Sampling temperature")
	flags.String("system-prompt", "", "System prompt sent with every chunk")
	flags.Int("concurrency", 0, "Chunks completed in parallel")
	flags.String("final-step", string(summarizer.FinalStepSummarize), "How chunk summaries are finished: summarize or combine")
	flags.Bool("json", false, "Print the full result as JSON")
	flags.Bool("steps", false, "Print each intermediate step")
	flags.String("log-level", "warn", "Log level for diagnostics on stderr")
	flags.Bool("offline", false, "Without an API key, print excerpts instead of failing")
}

func loadSummarizeOptions(cmd *cobra.Command) summarizeOptions {
	finalStep, _ := cmd.Flags().GetString("final-step")
	jsonOut, _ := cmd.Flags().GetBool("json")
	steps, _ := cmd.Flags().GetBool("steps")
	logLevel, _ := cmd.Flags().GetString("log-level")
	return summarizeOptions{
		finalStep: finalStep,
		jsonOut:   jsonOut,
		steps:     steps,
		logLevel:  logLevel,
	}
}

// applySummaryFlags overrides configuration with flags set on the command line.
func applySummaryFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.LLM.Model, _ = flags.GetString("model")
	}
	if flags.Changed("temperature") {
		cfg.LLM.Temperature, _ = flags.GetFloat32("temperature")
	}
	if flags.Changed("max-chunk-length") {
		cfg.Summary.MaxChunkLength, _ = flags.GetInt("max-chunk-length")
	}
	if flags.Changed("chunk-overlap") {
		cfg.Summary.ChunkOverlap, _ = flags.GetInt("chunk-overlap")
	}
	if flags.Changed("summary-length") {
		cfg.Summary.SummaryLength, _ = flags.GetInt("summary-length")
	}
	if flags.Changed("system-prompt") {
		cfg.Summary.SystemPrompt, _ = flags.GetString("system-prompt")
	}
	if flags.Changed("concurrency") {
		cfg.Summary.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("offline") {
		cfg.LLM.AllowOffline, _ = flags.GetBool("offline")
	}
	return cfg.Validate()
}

func readInput(stdin io.Reader, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errEmptyInput
	}
	return string(data), nil
}

func runSummarize(ctx context.Context, engine *summarizer.Engine, text string, opts summarizeOptions, out io.Writer) error {
	step := summarizer.FinalStep(strings.ToLower(strings.TrimSpace(opts.finalStep)))
	var progress summarizer.ProgressFunc
	if opts.steps && !opts.jsonOut {
		progress = func(s string) { fmt.Fprintln(out, "-", s) }
	}

	result, err := engine.SummarizeWithProgress(ctx, text, step, progress)
	if err != nil {
		return err
	}

	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintln(out, strings.TrimSpace(result.Result))
	fmt.Fprintln(out)
	if opts.offline {
		fmt.Fprintf(out, "model: %s (no API key, leading words only)\n", summarizer.OfflineModel)
		result.Cost = 0
	}
	fmt.Fprintf(out, "chunks: %d  attempts: %d  tokens: %s  cost: %s¢\n",
		len(result.Chunks),
		result.Attempts,
		humanize.Comma(int64(result.TotalTokens)),
		humanize.CommafWithDigits(result.Cost, 4),
	)
	return nil
}
