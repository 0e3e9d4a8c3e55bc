package tokenizer

import (
	"errors"
	"testing"
)

type testCounter struct {
	failure error
}

func (testCounter) Name() string { return "stub" }

func (counter testCounter) CountString(input string) (int, error) {
	if counter.failure != nil {
		return 0, counter.failure
	}
	return len([]rune(input)), nil
}

func TestCountText(t *testing.T) {
	testCases := []struct {
		name         string
		counter      Counter
		input        string
		expectTokens int
		expectError  bool
	}{
		{name: "counts runes with stub", counter: testCounter{}, input: "🗂️ root/\n", expectTokens: len([]rune("🗂️ root/\n"))},
		{name: "empty text", counter: testCounter{}, input: "", expectTokens: 0},
		{name: "nil counter", counter: nil, input: "x", expectError: true},
		{name: "counter failure", counter: testCounter{failure: errors.New("boom")}, input: "x", expectError: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result, err := CountText(testCase.counter, testCase.input)
			if testCase.expectError {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("CountText error: %v", err)
			}
			if result.Tokens != testCase.expectTokens || result.Model != "stub" {
				t.Fatalf("unexpected result %+v", result)
			}
		})
	}
}

func TestIsOpenAIModel(t *testing.T) {
	testCases := map[string]bool{
		"gpt-4o":           true,
		"text-embedding-3": true,
		"claude-3-opus":    false,
		"llama-3":          false,
	}
	for model, expected := range testCases {
		if isOpenAIModel(model) != expected {
			t.Fatalf("isOpenAIModel(%q) = %t, want %t", model, !expected, expected)
		}
	}
}

func TestNewCounterDefault(t *testing.T) {
	counter, model, err := NewCounter("")
	if err != nil {
		t.Skipf("tokenizer encodings unavailable: %v", err)
	}
	if model != "gpt-4o" {
		t.Fatalf("expected model gpt-4o, got %q", model)
	}
	tokens, err := counter.CountString("hello world")
	if err != nil {
		t.Fatalf("CountString error: %v", err)
	}
	if tokens <= 0 {
		t.Fatalf("expected positive token count, got %d", tokens)
	}
}
