package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/temirov/foldertree/internal/utils"
)

type configTestCase struct {
	name              string
	globalContent     string
	localContent      string
	explicitPath      string
	explicitContent   string
	expectFormat      string
	expectClipboard   *bool
	expectUseDefaults *bool
	expectTokens      *bool
	expectModel       string
	expectNames       []string
	expectAddress     string
}

func boolPointer(value bool) *bool {
	pointer := value
	return &pointer
}

func TestLoadApplicationConfigurationMergesSources(t *testing.T) {
	testCases := []configTestCase{
		{
			name:              "local_overrides_global",
			globalContent:     "tree:\n  format: json\n  clipboard: true\n  ignore:\n    names: [vendor]\n",
			localContent:      "tree:\n  format: xml\n  ignore:\n    names: [tmp, tmp, coverage]\n    use_defaults: false\n  tokens:\n    enabled: true\n    model: custom\n",
			expectFormat:      "xml",
			expectClipboard:   boolPointer(true),
			expectUseDefaults: boolPointer(false),
			expectTokens:      boolPointer(true),
			expectModel:       "custom",
			expectNames:       []string{"tmp", "coverage"},
		},
		{
			name:            "explicit_path_replaces_local",
			globalContent:   "serve:\n  address: 127.0.0.1:9999\n",
			localContent:    "tree:\n  format: json\n",
			explicitPath:    "custom.yaml",
			explicitContent: "tree:\n  format: raw\n",
			expectFormat:    "raw",
			expectNames:     []string{},
			expectAddress:   "127.0.0.1:9999",
		},
		{
			name:        "no_files",
			expectNames: []string{},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			homeDir := t.TempDir()
			workingDir := t.TempDir()
			configDir := filepath.Join(homeDir, utils.GlobalConfigDirectoryName)
			if err := os.MkdirAll(configDir, 0o755); err != nil {
				t.Fatalf("create config dir: %v", err)
			}
			if testCase.globalContent != "" {
				globalPath := filepath.Join(configDir, utils.ConfigFileName)
				if err := os.WriteFile(globalPath, []byte(testCase.globalContent), 0o600); err != nil {
					t.Fatalf("write global config: %v", err)
				}
			}
			if testCase.localContent != "" {
				localPath := filepath.Join(workingDir, utils.LocalConfigFileName)
				if err := os.WriteFile(localPath, []byte(testCase.localContent), 0o600); err != nil {
					t.Fatalf("write local config: %v", err)
				}
			}
			if testCase.explicitPath != "" {
				target := filepath.Join(workingDir, testCase.explicitPath)
				if err := os.WriteFile(target, []byte(testCase.explicitContent), 0o600); err != nil {
					t.Fatalf("write explicit config: %v", err)
				}
			}

			t.Setenv("HOME", homeDir)
			t.Setenv("USERPROFILE", homeDir)

			loadedConfig, err := LoadApplicationConfiguration(LoadOptions{
				WorkingDirectory: workingDir,
				ExplicitFilePath: testCase.explicitPath,
			})
			if err != nil {
				t.Fatalf("LoadApplicationConfiguration error: %v", err)
			}

			if loadedConfig.Tree.Format != testCase.expectFormat {
				t.Fatalf("expected format %q, got %q", testCase.expectFormat, loadedConfig.Tree.Format)
			}
			assertBoolPointer(t, "clipboard", loadedConfig.Tree.Clipboard, testCase.expectClipboard)
			assertBoolPointer(t, "use_defaults", loadedConfig.Tree.Ignore.UseDefaults, testCase.expectUseDefaults)
			assertBoolPointer(t, "tokens.enabled", loadedConfig.Tree.Tokens.Enabled, testCase.expectTokens)
			if loadedConfig.Tree.Tokens.Model != testCase.expectModel {
				t.Fatalf("expected model %q, got %q", testCase.expectModel, loadedConfig.Tree.Tokens.Model)
			}
			if !reflect.DeepEqual(loadedConfig.Tree.Ignore.Names, testCase.expectNames) {
				t.Fatalf("expected names %v, got %v", testCase.expectNames, loadedConfig.Tree.Ignore.Names)
			}
			if loadedConfig.Serve.Address != testCase.expectAddress {
				t.Fatalf("expected address %q, got %q", testCase.expectAddress, loadedConfig.Serve.Address)
			}
		})
	}
}

func TestLoadApplicationConfigurationAnchorsIgnoreFiles(t *testing.T) {
	homeDir := t.TempDir()
	workingDir := t.TempDir()
	t.Setenv("HOME", homeDir)
	t.Setenv("USERPROFILE", homeDir)

	localContent := "tree:\n  ignore:\n    files: [.treeignore, /etc/absolute-names]\n"
	if err := os.WriteFile(filepath.Join(workingDir, utils.LocalConfigFileName), []byte(localContent), 0o600); err != nil {
		t.Fatalf("write local config: %v", err)
	}

	loadedConfig, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDir})
	if err != nil {
		t.Fatalf("LoadApplicationConfiguration error: %v", err)
	}
	expectedFiles := []string{filepath.Join(workingDir, ".treeignore"), "/etc/absolute-names"}
	if !reflect.DeepEqual(loadedConfig.Tree.Ignore.Files, expectedFiles) {
		t.Fatalf("expected files %v, got %v", expectedFiles, loadedConfig.Tree.Ignore.Files)
	}
}

func TestLoadApplicationConfigurationRejectsMissingExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USERPROFILE", t.TempDir())
	_, err := LoadApplicationConfiguration(LoadOptions{
		WorkingDirectory: t.TempDir(),
		ExplicitFilePath: "missing.yaml",
	})
	if err == nil {
		t.Fatalf("expected error for missing explicit configuration")
	}
}

func TestLoadApplicationConfigurationRejectsMalformedFile(t *testing.T) {
	homeDir := t.TempDir()
	workingDir := t.TempDir()
	t.Setenv("HOME", homeDir)
	t.Setenv("USERPROFILE", homeDir)
	if err := os.WriteFile(filepath.Join(workingDir, utils.LocalConfigFileName), []byte("tree: [unterminated\n"), 0o600); err != nil {
		t.Fatalf("write local config: %v", err)
	}
	if _, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDir}); err == nil {
		t.Fatalf("expected error for malformed configuration")
	}
}

func assertBoolPointer(t *testing.T, field string, actual *bool, expected *bool) {
	t.Helper()
	if expected == nil {
		if actual != nil {
			t.Fatalf("expected no %s override, got %t", field, *actual)
		}
		return
	}
	if actual == nil || *actual != *expected {
		t.Fatalf("unexpected %s value", field)
	}
}
