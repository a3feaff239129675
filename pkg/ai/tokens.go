package ai

import (
	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// CountTokens returns the number of tokens the prompt occupies under the
// given tiktoken encoding. An empty or unknown encoding falls back to
// cl100k_base; counting failures yield 0 rather than an error since token
// counts are only used for metering.
func CountTokens(encoding string, prompt string) int {
	if encoding == "" {
		encoding = defaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		enc, err = tiktoken.GetEncoding(defaultEncoding)
		if err != nil {
			return 0
		}
	}
	return len(enc.Encode(prompt, nil, nil))
}
