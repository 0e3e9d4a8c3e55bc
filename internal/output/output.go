// Package output encodes rendered trees as raw text, JSON, or XML.
package output

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/temirov/foldertree/internal/types"
	"github.com/temirov/foldertree/internal/utils"
)

var supportedFormats = []string{types.FormatRaw, types.FormatJSON, types.FormatXML}

const (
	indentPrefix = ""
	indentSpacer = "  "

	xmlHeader = xml.Header

	rootSeparator = "\n"

	invalidFormatMessageFormat = "Invalid format value '%s'"
)

// IsSupportedFormat reports whether the provided format is recognized.
func IsSupportedFormat(format string) bool {
	return utils.ContainsString(supportedFormats, format)
}

// Render encodes outputs in format.
func Render(format string, outputs []types.TreeOutput) (string, error) {
	switch strings.ToLower(format) {
	case types.FormatRaw:
		return RenderRaw(outputs), nil
	case types.FormatJSON:
		return RenderJSON(outputs)
	case types.FormatXML:
		return RenderXML(outputs)
	default:
		return "", fmt.Errorf(invalidFormatMessageFormat, format)
	}
}

// Write renders outputs in format, writes the newline-terminated result to writer, and returns what was written.
func Write(writer io.Writer, format string, outputs []types.TreeOutput) (string, error) {
	rendered, renderError := Render(format, outputs)
	if renderError != nil {
		return "", renderError
	}
	if !strings.HasSuffix(rendered, "\n") {
		rendered += "\n"
	}
	if _, writeError := io.WriteString(writer, rendered); writeError != nil {
		return "", writeError
	}
	return rendered, nil
}

// RenderRaw returns the diagrams verbatim, separated by a blank line when there are several roots.
func RenderRaw(outputs []types.TreeOutput) string {
	diagrams := make([]string, 0, len(outputs))
	for _, treeOutput := range outputs {
		diagrams = append(diagrams, treeOutput.Tree)
	}
	return strings.Join(diagrams, rootSeparator)
}

// RenderJSON marshals a single root as an object and several roots as an array.
func RenderJSON(outputs []types.TreeOutput) (string, error) {
	if len(outputs) == 0 {
		return "[]", nil
	}
	var payload interface{} = outputs
	if len(outputs) == 1 {
		payload = outputs[0]
	}
	encoded, jsonEncodeError := json.MarshalIndent(payload, indentPrefix, indentSpacer)
	return string(encoded), jsonEncodeError
}

// RenderXML marshals the outputs inside a result document.
func RenderXML(outputs []types.TreeOutput) (string, error) {
	wrapper := struct {
		XMLName xml.Name           `xml:"result"`
		Trees   []types.TreeOutput `xml:"tree"`
	}{Trees: outputs}
	encoded, xmlMarshalError := xml.MarshalIndent(wrapper, indentPrefix, indentSpacer)
	if xmlMarshalError != nil {
		return "", xmlMarshalError
	}
	return xmlHeader + string(encoded), nil
}
