package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/chunkgpt/internal/domain/summarizer"
	"github.com/yanqian/chunkgpt/internal/infra/config"
	"github.com/yanqian/chunkgpt/pkg/metrics"
)

type runeTokenizer struct{}

func (runeTokenizer) Encode(text string) []int {
	runes := []rune(text)
	out := make([]int, len(runes))
	for i, r := range runes {
		out[i] = int(r)
	}
	return out
}

func (runeTokenizer) Decode(tokens []int) string {
	runes := make([]rune, len(tokens))
	for i, t := range tokens {
		runes[i] = rune(t)
	}
	return string(runes)
}

func (runeTokenizer) Count(text string) int { return utf8.RuneCountInString(text) }

type echoClient struct{ reply string }

func (c echoClient) Complete(context.Context, summarizer.CompletionRequest) (summarizer.Completion, error) {
	return summarizer.Completion{Text: c.reply, Usage: metrics.TokenUsage{TotalTokens: 3}}, nil
}

func newTestEngine(t *testing.T) *summarizer.Engine {
	t.Helper()
	engine, err := summarizer.NewEngine(summarizer.Config{
		Model:          "gpt-3.5-turbo",
		MaxChunkLength: 10,
		ChunkOverlap:   2,
		SummaryLength:  5,
		SystemPrompt:   "sys",
		TokenLimit:     50,
	}, runeTokenizer{}, echoClient{reply: "out"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return engine
}

func TestRunSummarizePrintsResultAndTotals(t *testing.T) {
	var out bytes.Buffer
	err := runSummarize(context.Background(), newTestEngine(t), "hello", summarizeOptions{finalStep: "COMBINE", steps: true}, &out)
	require.NoError(t, err)

	text := out.String()
	require.Contains(t, text, "- Got completion for chunk 1.")
	require.Contains(t, text, "\nout\n")
	require.Contains(t, text, "chunks: 1")
	require.Contains(t, text, "tokens:")
}

func TestRunSummarizeJSON(t *testing.T) {
	var out bytes.Buffer
	err := runSummarize(context.Background(), newTestEngine(t), "hello", summarizeOptions{finalStep: "combine", jsonOut: true, steps: true}, &out)
	require.NoError(t, err)

	var result summarizer.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	require.Equal(t, "hello", result.Original)
	require.Equal(t, "out\n", result.Result)
	require.NotEmpty(t, result.Steps)
}

func TestRunSummarizeTrimsDisplayedSummary(t *testing.T) {
	engine, err := summarizer.NewEngine(summarizer.Config{
		Model:          "gpt-3.5-turbo",
		MaxChunkLength: 10,
		ChunkOverlap:   2,
		SummaryLength:  5,
		SystemPrompt:   "sys",
		TokenLimit:     50,
	}, runeTokenizer{}, echoClient{reply: "\n  short  \n"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runSummarize(context.Background(), engine, "hello", summarizeOptions{finalStep: "summarize"}, &out))
	require.True(t, strings.HasPrefix(out.String(), "short\n\n"), out.String())
}

func TestRunSummarizeMarksOfflineOutput(t *testing.T) {
	var out bytes.Buffer
	err := runSummarize(context.Background(), newTestEngine(t), "hello", summarizeOptions{finalStep: "combine", offline: true}, &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "model: offline-excerpt")
	require.Contains(t, out.String(), "cost: 0¢")
}

func TestRunSummarizeRejectsUnknownFinalStep(t *testing.T) {
	err := runSummarize(context.Background(), newTestEngine(t), "hello", summarizeOptions{finalStep: "shorten"}, io.Discard)
	require.ErrorIs(t, err, summarizer.ErrInvalidFinalStep)
}

func TestReadInput(t *testing.T) {
	text, err := readInput(strings.NewReader("  from stdin \n"), nil)
	require.NoError(t, err)
	require.Equal(t, "  from stdin \n", text)

	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file\n"), 0o600))
	text, err = readInput(strings.NewReader("ignored"), []string{path})
	require.NoError(t, err)
	require.Equal(t, "from file\n", text)

	_, err = readInput(strings.NewReader(" \n\t"), []string{"-"})
	require.ErrorIs(t, err, errEmptyInput)

	_, err = readInput(nil, []string{filepath.Join(t.TempDir(), "missing.txt")})
	require.ErrorContains(t, err, "read input")
}

func TestApplySummaryFlagsOverridesOnlyChangedFlags(t *testing.T) {
	cmd := &cobra.Command{}
	registerSummaryFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--model", "gpt-4", "--chunk-overlap", "0", "--concurrency", "3", "--offline"}))

	cfg := config.Default()
	require.NoError(t, applySummaryFlags(cmd, cfg))
	require.Equal(t, "gpt-4", cfg.LLM.Model)
	require.Equal(t, 0, cfg.Summary.ChunkOverlap)
	require.Equal(t, 3, cfg.Summary.Concurrency)
	require.True(t, cfg.LLM.AllowOffline)
	require.Equal(t, config.Default().Summary.MaxChunkLength, cfg.Summary.MaxChunkLength)
}

func TestApplySummaryFlagsValidates(t *testing.T) {
	cmd := &cobra.Command{}
	registerSummaryFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--max-chunk-length", "10", "--chunk-overlap", "10"}))

	require.ErrorContains(t, applySummaryFlags(cmd, config.Default()), "chunkOverlap")
}

func TestPrintProfiles(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printProfiles(&out, summarizer.Profiles()))
	require.Contains(t, out.String(), "FAMILY")
	require.Contains(t, out.String(), "gpt-4o-mini")
	require.Contains(t, out.String(), "128,000")
}

func TestHashSecretCommand(t *testing.T) {
	var out bytes.Buffer
	hashSecretCmd.SetIn(strings.NewReader("0123456789abcdef-secret\n"))
	hashSecretCmd.SetOut(&out)
	t.Cleanup(func() {
		hashSecretCmd.SetIn(nil)
		hashSecretCmd.SetOut(nil)
	})

	require.NoError(t, hashSecretCmd.RunE(hashSecretCmd, nil))
	require.True(t, strings.HasPrefix(out.String(), "$2a$"))
}
