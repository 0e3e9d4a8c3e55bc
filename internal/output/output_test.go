package output_test

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/temirov/foldertree/internal/output"
	"github.com/temirov/foldertree/internal/types"
)

const (
	firstDiagram  = "🗂️ alpha/\n└── 📄 a.txt\n"
	secondDiagram = "🗂️ beta/\n├── 📁 b\n└── 📄 c.txt\n"
)

func sampleOutputs() []types.TreeOutput {
	return []types.TreeOutput{
		{Root: "/tmp/alpha", Tree: firstDiagram, Tokens: 7, Model: "stub"},
		{Root: "/tmp/beta", Tree: secondDiagram, Skipped: []string{"/tmp/beta/locked"}},
	}
}

func TestRenderRaw(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		outputs  []types.TreeOutput
		expected string
	}{
		{name: "single root verbatim", outputs: sampleOutputs()[:1], expected: firstDiagram},
		{name: "roots separated by blank line", outputs: sampleOutputs(), expected: firstDiagram + "\n" + secondDiagram},
		{name: "no roots", outputs: nil, expected: ""},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			rendered, err := output.Render(types.FormatRaw, testCase.outputs)
			if err != nil {
				t.Fatalf("Render error: %v", err)
			}
			if rendered != testCase.expected {
				t.Fatalf("unexpected raw output:\n%q\nwant:\n%q", rendered, testCase.expected)
			}
		})
	}
}

func TestRenderJSON(t *testing.T) {
	t.Parallel()

	single, err := output.RenderJSON(sampleOutputs()[:1])
	if err != nil {
		t.Fatalf("RenderJSON error: %v", err)
	}
	var decodedSingle types.TreeOutput
	if err := json.Unmarshal([]byte(single), &decodedSingle); err != nil {
		t.Fatalf("single root is not a JSON object: %v", err)
	}
	if decodedSingle.Tree != firstDiagram || decodedSingle.Tokens != 7 || decodedSingle.Model != "stub" {
		t.Fatalf("unexpected decoded output %+v", decodedSingle)
	}
	if strings.Contains(single, "skipped") {
		t.Fatalf("empty skipped list must be omitted: %s", single)
	}

	multiple, err := output.RenderJSON(sampleOutputs())
	if err != nil {
		t.Fatalf("RenderJSON error: %v", err)
	}
	var decodedMultiple []types.TreeOutput
	if err := json.Unmarshal([]byte(multiple), &decodedMultiple); err != nil {
		t.Fatalf("several roots are not a JSON array: %v", err)
	}
	if len(decodedMultiple) != 2 || decodedMultiple[1].Skipped[0] != "/tmp/beta/locked" {
		t.Fatalf("unexpected decoded outputs %+v", decodedMultiple)
	}

	empty, err := output.RenderJSON(nil)
	if err != nil || empty != "[]" {
		t.Fatalf("expected empty array, got %q (%v)", empty, err)
	}
}

func TestRenderXML(t *testing.T) {
	t.Parallel()

	rendered, err := output.RenderXML(sampleOutputs())
	if err != nil {
		t.Fatalf("RenderXML error: %v", err)
	}
	if !strings.HasPrefix(rendered, xml.Header) {
		t.Fatalf("missing XML header: %s", rendered)
	}
	var decoded struct {
		Trees []types.TreeOutput `xml:"tree"`
	}
	if err := xml.Unmarshal([]byte(rendered), &decoded); err != nil {
		t.Fatalf("decode XML: %v", err)
	}
	if len(decoded.Trees) != 2 {
		t.Fatalf("expected 2 trees, got %d", len(decoded.Trees))
	}
	if decoded.Trees[0].Root != "/tmp/alpha" || decoded.Trees[0].Tree != firstDiagram {
		t.Fatalf("unexpected first tree %+v", decoded.Trees[0])
	}
	if len(decoded.Trees[1].Skipped) != 1 || decoded.Trees[1].Skipped[0] != "/tmp/beta/locked" {
		t.Fatalf("unexpected skipped paths %v", decoded.Trees[1].Skipped)
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	if _, err := output.Render("yaml", sampleOutputs()); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
	if output.IsSupportedFormat("yaml") || !output.IsSupportedFormat(types.FormatXML) {
		t.Fatalf("unexpected format support")
	}
}

func TestWriteTerminatesOutput(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	written, err := output.Write(&buffer, types.FormatJSON, sampleOutputs()[:1])
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !strings.HasSuffix(buffer.String(), "}\n") {
		t.Fatalf("expected trailing newline after JSON, got %q", buffer.String())
	}
	if written != buffer.String() {
		t.Fatalf("returned text %q differs from written %q", written, buffer.String())
	}

	buffer.Reset()
	written, err = output.Write(&buffer, types.FormatRaw, sampleOutputs()[:1])
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if buffer.String() != firstDiagram || written != firstDiagram {
		t.Fatalf("raw output must be written verbatim, got %q", buffer.String())
	}

	buffer.Reset()
	if _, err := output.Write(&buffer, "yaml", sampleOutputs()); err == nil || buffer.Len() != 0 {
		t.Fatalf("unsupported format must fail without writing, got %q (%v)", buffer.String(), err)
	}
}
