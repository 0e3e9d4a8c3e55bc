package tokenizer

import (
	"errors"
)

// CountResult captures the token estimate of a rendered tree.
type CountResult struct {
	Tokens int
	Model  string
}

// CountText estimates the tokens in text using counter.
func CountText(counter Counter, text string) (CountResult, error) {
	if counter == nil {
		return CountResult{}, errors.New("nil tokenizer counter")
	}
	tokens, err := counter.CountString(text)
	if err != nil {
		return CountResult{}, err
	}
	return CountResult{Tokens: tokens, Model: counter.Name()}, nil
}
