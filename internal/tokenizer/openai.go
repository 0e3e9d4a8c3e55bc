package tokenizer

import (
	"errors"

	"github.com/pkoukk/tiktoken-go"
)

// openAICounter counts tokens with a tiktoken byte-pair encoding.
type openAICounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func (counter openAICounter) Name() string {
	return counter.name
}

// CountString treats special-token text in the diagram as ordinary text.
func (counter openAICounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, errors.New("nil tiktoken encoder")
	}
	return len(counter.encoding.EncodeOrdinary(input)), nil
}
