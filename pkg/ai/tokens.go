package ai

import (
	"strings"
	"sync"

	"github.com/OFFIS-RIT/papergraph/pkg/logger"

	"github.com/pkoukk/tiktoken-go"
)

const embeddingEncoding = "cl100k_base"

// Tokenizer is the subset of *tiktoken.Tiktoken used for truncation.
type Tokenizer interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
	Decode(tokens []int) string
}

var loadEncoding = sync.OnceValues(func() (*tiktoken.Tiktoken, error) {
	return tiktoken.GetEncoding(embeddingEncoding)
})

// TruncateTokens cuts text to at most maxTokens tokens of enc. maxTokens <= 0
// disables truncation.
func TruncateTokens(enc Tokenizer, text string, maxTokens int) string {
	if maxTokens <= 0 || enc == nil {
		return text
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return enc.Decode(tokens[:maxTokens])
}

// PrepareInput trims the input and truncates it to the model's token window.
// When the encoding cannot be loaded the text is passed through unchanged.
func PrepareInput(input []byte, maxTokens int) (string, error) {
	text := strings.TrimSpace(string(input))
	if text == "" {
		return "", ErrEmptyInput
	}
	if maxTokens <= 0 {
		return text, nil
	}
	enc, err := loadEncoding()
	if err != nil {
		logger.Debug("[AI] Token encoding unavailable, skipping truncation", "err", err)
		return text, nil
	}
	return TruncateTokens(enc, text, maxTokens), nil
}
