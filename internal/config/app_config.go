package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/temirov/foldertree/internal/utils"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds command-specific configuration defaults.
type ApplicationConfiguration struct {
	Tree  TreeConfiguration  `mapstructure:"tree"`
	Serve ServeConfiguration `mapstructure:"serve"`
}

// TreeConfiguration defines options of the tree command.
type TreeConfiguration struct {
	Format        string              `mapstructure:"format"`
	Clipboard     *bool               `mapstructure:"clipboard"`
	ReportSkipped *bool               `mapstructure:"report_skipped"`
	Ignore        IgnoreConfiguration `mapstructure:"ignore"`
	Tokens        TokenConfiguration  `mapstructure:"tokens"`
}

// IgnoreConfiguration configures which entry names are excluded from the tree.
type IgnoreConfiguration struct {
	Names       []string `mapstructure:"names"`
	Files       []string `mapstructure:"files"`
	UseDefaults *bool    `mapstructure:"use_defaults"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// ServeConfiguration defines defaults for the serve command.
type ServeConfiguration struct {
	Address string `mapstructure:"address"`
}

// LoadApplicationConfiguration loads configuration from global and local files.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if options.ExplicitFilePath != "" {
		if _, statErr := os.Stat(localPath); statErr != nil {
			return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", localPath, statErr)
		}
	}
	localConfig, loadErr := loadConfigurationFromPath(localPath)
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)

	merged.Tree.Ignore.Names = utils.DeduplicatePatterns(merged.Tree.Ignore.Names)
	merged.Tree.Ignore.Files = utils.DeduplicatePatterns(merged.Tree.Ignore.Files)

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	return filepath.Join(workingDirectory, utils.LocalConfigFileName), nil
}

// loadConfigurationFromPath decodes the file at path. Relative ignore file paths are anchored at the
// directory holding the configuration file.
func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}

	anchorDirectory := filepath.Dir(path)
	for index, ignoreFilePath := range config.Tree.Ignore.Files {
		if ignoreFilePath != "" && !filepath.IsAbs(ignoreFilePath) {
			config.Tree.Ignore.Files[index] = filepath.Join(anchorDirectory, ignoreFilePath)
		}
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Tree = result.Tree.merge(override.Tree)
	result.Serve = result.Serve.merge(override.Serve)
	return result
}

func (config TreeConfiguration) merge(override TreeConfiguration) TreeConfiguration {
	result := config
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	if override.ReportSkipped != nil {
		result.ReportSkipped = cloneBool(override.ReportSkipped)
	}
	result.Ignore = result.Ignore.merge(override.Ignore)
	result.Tokens = result.Tokens.merge(override.Tokens)
	return result
}

func (config IgnoreConfiguration) merge(override IgnoreConfiguration) IgnoreConfiguration {
	result := config
	if len(override.Names) > 0 {
		result.Names = append([]string{}, utils.DeduplicatePatterns(override.Names)...)
	}
	if len(override.Files) > 0 {
		result.Files = append([]string{}, utils.DeduplicatePatterns(override.Files)...)
	}
	if override.UseDefaults != nil {
		result.UseDefaults = cloneBool(override.UseDefaults)
	}
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

func (config ServeConfiguration) merge(override ServeConfiguration) ServeConfiguration {
	result := config
	if override.Address != "" {
		result.Address = override.Address
	}
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
