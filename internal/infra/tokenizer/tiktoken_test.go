package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func loadOrSkip(t *testing.T, model string) *Tiktoken {
	t.Helper()
	tk, err := NewTiktoken(model)
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}
	return tk
}

func TestTiktokenRoundTrip(t *testing.T) {
	tk := loadOrSkip(t, "gpt-3.5-turbo")

	text := "Long documents are split into overlapping windows of tokens."
	tokens := tk.Encode(text)
	require.NotEmpty(t, tokens)
	require.Equal(t, len(tokens), tk.Count(text))
	require.Equal(t, text, tk.Decode(tokens))
	require.Zero(t, tk.Count(""))
}

func TestTiktokenRejectsUnknownModel(t *testing.T) {
	for _, model := range []string{"not-a-real-model", "", "  "} {
		_, err := NewTiktoken(model)
		require.ErrorIs(t, err, ErrUnsupportedModel)
	}
}

func TestEncodingNameResolvesKnownModels(t *testing.T) {
	name, ok := encodingName("gpt-3.5-turbo")
	require.True(t, ok)
	require.Equal(t, "cl100k_base", name)

	name, ok = encodingName("gpt-4-0613")
	require.True(t, ok)
	require.Equal(t, "cl100k_base", name)

	_, ok = encodingName("not-a-real-model")
	require.False(t, ok)
}

func TestTiktokenForFallbackEncoding(t *testing.T) {
	tk, err := NewTiktokenForEncoding(FallbackEncoding)
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}
	require.Equal(t, FallbackEncoding, tk.Name())
	require.Positive(t, tk.Count("hello world"))
}
