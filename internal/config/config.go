// Package config loads foldertree configuration files and resolves them into effective settings.
package config

import (
	"github.com/temirov/foldertree/internal/ignore"
	"github.com/temirov/foldertree/internal/types"
)

const (
	// DefaultTokenizerModel is used for token estimates when no model is configured.
	DefaultTokenizerModel = "gpt-4o"
	// DefaultServeAddress is the listen address of the serve command.
	DefaultServeAddress = "127.0.0.1:7420"
)

// TreeSettings are the effective tree command options once configuration defaults are applied.
type TreeSettings struct {
	Format        string
	Clipboard     bool
	ReportSkipped bool
	Ignore        ignore.Options
	TokensEnabled bool
	TokenModel    string
}

// Resolve fills every unset tree option with its default.
func (configuration TreeConfiguration) Resolve() TreeSettings {
	settings := TreeSettings{
		Format:        types.FormatRaw,
		Clipboard:     boolValue(configuration.Clipboard, false),
		ReportSkipped: boolValue(configuration.ReportSkipped, false),
		Ignore: ignore.Options{
			UseDefaults: boolValue(configuration.Ignore.UseDefaults, true),
			Names:       append([]string(nil), configuration.Ignore.Names...),
			Files:       append([]string(nil), configuration.Ignore.Files...),
		},
		TokensEnabled: boolValue(configuration.Tokens.Enabled, false),
		TokenModel:    DefaultTokenizerModel,
	}
	if configuration.Format != "" {
		settings.Format = configuration.Format
	}
	if configuration.Tokens.Model != "" {
		settings.TokenModel = configuration.Tokens.Model
	}
	return settings
}

// ResolveAddress returns the configured listen address or DefaultServeAddress.
func (configuration ServeConfiguration) ResolveAddress() string {
	if configuration.Address == "" {
		return DefaultServeAddress
	}
	return configuration.Address
}

func boolValue(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
