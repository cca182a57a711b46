package summarizer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheKeyDependsOnInputs(t *testing.T) {
	t.Parallel()

	base := &Engine{cfg: Config{Model: "gpt-3.5-turbo", SystemPrompt: "sys", MaxChunkLength: 10, ChunkOverlap: 2, SummaryLength: 5}}
	other := &Engine{cfg: Config{Model: "gpt-3.5-turbo", SystemPrompt: "other", MaxChunkLength: 10, ChunkOverlap: 2, SummaryLength: 5}}

	key := cacheKey(job{text: "hello", step: FinalStepSummarize, engine: base}, false)
	require.Len(t, key, 64)
	require.Equal(t, key, cacheKey(job{text: "hello", step: FinalStepSummarize, engine: base}, false))
	require.NotEqual(t, key, cacheKey(job{text: "hello", step: FinalStepCombine, engine: base}, false))
	require.NotEqual(t, key, cacheKey(job{text: "hello!", step: FinalStepSummarize, engine: base}, false))
	require.NotEqual(t, key, cacheKey(job{text: "hello", step: FinalStepSummarize, engine: other}, false))
	require.NotEqual(t, key, cacheKey(job{text: "hello", step: FinalStepSummarize, engine: base}, true))
	require.NotEqual(t, key, cacheKey(job{text: " hello", step: FinalStepSummarize, engine: base}, false))
}

func TestResolveProfile(t *testing.T) {
	tests := []struct {
		model     string
		wantLimit int
		wantPrice float64
	}{
		{model: "gpt-3.5-turbo", wantLimit: 4096, wantPrice: 0.00015},
		{model: "gpt-3.5-turbo-0613", wantLimit: 4096, wantPrice: 0.00015},
		{model: "gpt-3.5-turbo-16k-0613", wantLimit: 16384, wantPrice: 0.0003},
		{model: "gpt-4", wantLimit: 8192, wantPrice: 0.003},
		{model: "gpt-4-32k", wantLimit: 32768, wantPrice: 0.006},
		{model: "gpt-4o-mini", wantLimit: 128000, wantPrice: 0.000015},
		{model: "  gpt-4o ", wantLimit: 128000, wantPrice: 0.00025},
		{model: "llama-3", wantLimit: 4096, wantPrice: 0.00015},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.model, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.wantLimit, TokenLimit(tt.model))
			require.InDelta(t, tt.wantPrice, PricePerToken(tt.model), 1e-12)
		})
	}
}

func TestProfilesReturnsCopy(t *testing.T) {
	t.Parallel()
	profiles := Profiles()
	require.Len(t, profiles, len(knownProfiles))
	profiles[0].TokenLimit = 1
	require.Equal(t, 4096, knownProfiles[0].TokenLimit)
}
