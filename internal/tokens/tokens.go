// Package tokens estimates how many model tokens a composed prompt uses.
package tokens

import (
	"sync"

	"github.com/kayz/facet/internal/logger"
	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// Encoding is the tokenizer used for estimates.
const Encoding = "cl100k_base"

var (
	tkm     *tiktoken.Tiktoken
	tkmOnce sync.Once
)

func getTokenizer() *tiktoken.Tiktoken {
	tkmOnce.Do(func() {
		// embedded BPE ranks; the default loader downloads them
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
		var err error
		tkm, err = tiktoken.GetEncoding(Encoding)
		if err != nil {
			logger.Warn("Failed to load tiktoken encoding %s: %v. Falling back to heuristic.", Encoding, err)
		}
	})
	return tkm
}

// Estimate returns the token count of text. Without a tokenizer it falls back
// to one token per four bytes.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	if tokenizer := getTokenizer(); tokenizer != nil {
		return len(tokenizer.Encode(text, nil, nil))
	}
	return Heuristic(text)
}

// Heuristic is the tokenizer-free estimate.
func Heuristic(text string) int {
	n := len(text) / 4
	if n == 0 && text != "" {
		return 1
	}
	return n
}

// Stats summarizes a composed prompt.
type Stats struct {
	SystemChars  int `json:"system_chars"`
	UserChars    int `json:"user_chars"`
	SystemTokens int `json:"system_tokens"`
	UserTokens   int `json:"user_tokens"`
}

// Total returns the combined token estimate.
func (s Stats) Total() int {
	return s.SystemTokens + s.UserTokens
}

// Measure computes Stats for a system prompt and user message.
func Measure(systemPrompt, userMessage string) Stats {
	return Stats{
		SystemChars:  len([]rune(systemPrompt)),
		UserChars:    len([]rune(userMessage)),
		SystemTokens: Estimate(systemPrompt),
		UserTokens:   Estimate(userMessage),
	}
}
