package summarizer

import "fmt"

// Budget computes how many tokens a request needs against a context window.
type Budget struct {
	tokenizer     Tokenizer
	summaryLength int
	tokenLimit    int
	systemTokens  int
	baseOverhead  int
}

// NewBudget counts the fixed prompt scaffolding once.
func NewBudget(tokenizer Tokenizer, systemPrompt string, summaryLength, tokenLimit int) Budget {
	systemTokens := tokenizer.Count(systemPrompt)
	return Budget{
		tokenizer:     tokenizer,
		summaryLength: summaryLength,
		tokenLimit:    tokenLimit,
		systemTokens:  systemTokens,
		baseOverhead:  systemTokens + tokenizer.Count(FormatUserPrompt("")),
	}
}

// TokenLimit is the context window of the model.
func (b Budget) TokenLimit() int {
	return b.tokenLimit
}

// BaseOverhead is the token count of the system prompt and the empty user template.
func (b Budget) BaseOverhead() int {
	return b.baseOverhead
}

// CompleteCount is the number of tokens a request over text needs, response included.
func (b Budget) CompleteCount(text string) int {
	return b.systemTokens + b.tokenizer.Count(FormatUserPrompt(text)) + b.summaryLength
}

// Fits reports whether text can be summarized in a single request.
func (b Budget) Fits(text string) bool {
	return b.CompleteCount(text) < b.tokenLimit
}

// CheckChunkAllowance rejects a chunk length that cannot fit next to the overhead and response.
func (b Budget) CheckChunkAllowance(maxChunkLength int) error {
	allowed := b.baseOverhead + b.summaryLength + maxChunkLength
	if allowed <= b.tokenLimit {
		return nil
	}
	exceededBy := allowed - b.tokenLimit
	return &ConfigError{
		Reason: fmt.Sprintf("combined summaryLength and maxChunkLength exceed the token limit %d by %d tokens; reduce one or more of these parameters or switch models",
			b.tokenLimit, exceededBy),
		ExceededBy: exceededBy,
	}
}
