package summarizer

// Window is a half-open range of token indices.
type Window struct {
	Start int
	End   int
}

// Windows returns the overlapping token windows covering total tokens.
// The last window ends at total; no window starts at or past total.
func Windows(total, maxLength, overlap int) []Window {
	if total <= 0 || maxLength <= 0 || overlap < 0 || overlap >= maxLength {
		return nil
	}
	stride := maxLength - overlap
	windows := make([]Window, 0, total/stride+1)
	for start := 0; start < total; start += stride {
		end := min(start+maxLength, total)
		windows = append(windows, Window{Start: start, End: end})
		if end == total {
			break
		}
	}
	return windows
}

// Chunker splits text into windows sized for one completion request.
type Chunker struct {
	tokenizer Tokenizer
	budget    Budget
	maxLength int
	overlap   int
}

// NewChunker constructs a chunker; the lengths must satisfy Config.Validate.
func NewChunker(tokenizer Tokenizer, budget Budget, maxLength, overlap int) Chunker {
	return Chunker{tokenizer: tokenizer, budget: budget, maxLength: maxLength, overlap: overlap}
}

// Chunk returns text unchanged when it fits one request, otherwise the decoded windows.
func (c Chunker) Chunk(text string) []string {
	if c.budget.Fits(text) {
		return []string{text}
	}
	tokens := c.tokenizer.Encode(text)
	windows := Windows(len(tokens), c.maxLength, c.overlap)
	chunks := make([]string, 0, len(windows))
	for _, w := range windows {
		chunks = append(chunks, c.tokenizer.Decode(tokens[w.Start:w.End]))
	}
	return chunks
}
