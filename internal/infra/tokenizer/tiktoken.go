package tokenizer

import (
	"errors"
	"fmt"
	"strings"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/yanqian/chunkgpt/internal/domain/summarizer"
)

// FallbackEncoding is the encoding used for unknown models when the
// fallback is explicitly enabled.
const FallbackEncoding = "cl100k_base"

// ErrUnsupportedModel is returned when tiktoken has no encoding for a model.
var ErrUnsupportedModel = errors.New("no tiktoken encoding for model")

// Tiktoken counts tokens with the BPE encoding of a model.
type Tiktoken struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTiktoken loads the encoding for model. Unknown models fail with
// ErrUnsupportedModel. The first call per encoding downloads its rank file
// unless a cache is configured through TIKTOKEN_CACHE_DIR.
func NewTiktoken(model string) (*Tiktoken, error) {
	name, ok := encodingName(strings.TrimSpace(model))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, model)
	}
	return NewTiktokenForEncoding(name)
}

// NewTiktokenForEncoding loads an encoding by name.
func NewTiktokenForEncoding(name string) (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", name, err)
	}
	return &Tiktoken{encoding: enc, name: name}, nil
}

// encodingName resolves model by exact id, then by the longest known prefix.
func encodingName(model string) (string, bool) {
	if model == "" {
		return "", false
	}
	if name, ok := tiktoken.MODEL_TO_ENCODING[model]; ok {
		return name, true
	}
	var best, bestPrefix string
	for prefix, name := range tiktoken.MODEL_PREFIX_TO_ENCODING {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(bestPrefix) {
			best, bestPrefix = name, prefix
		}
	}
	return best, best != ""
}

// Name is the encoding the tokenizer uses.
func (t *Tiktoken) Name() string {
	return t.name
}

// Encode implements summarizer.Tokenizer.
func (t *Tiktoken) Encode(text string) []int {
	return t.encoding.Encode(text, nil, nil)
}

// Decode implements summarizer.Tokenizer.
func (t *Tiktoken) Decode(tokens []int) string {
	return t.encoding.Decode(tokens)
}

// Count implements summarizer.Tokenizer.
func (t *Tiktoken) Count(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

var _ summarizer.Tokenizer = (*Tiktoken)(nil)
