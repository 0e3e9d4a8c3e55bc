// Package types defines the data structures shared between foldertree packages.
package types

import "encoding/xml"

const (
	CommandTree     = "tree"
	CommandDefaults = "defaults"

	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatXML  = "xml"
)

// TreeOutput is one rendered root as delivered to output encoders and HTTP clients.
type TreeOutput struct {
	XMLName xml.Name `json:"-" xml:"tree"`
	Root    string   `json:"root" xml:"root,attr"`
	Tree    string   `json:"tree" xml:"text"`
	Skipped []string `json:"skipped,omitempty" xml:"skipped>path,omitempty"`
	Tokens  int      `json:"tokens,omitempty" xml:"tokens,omitempty"`
	Model   string   `json:"model,omitempty" xml:"model,omitempty"`
}
