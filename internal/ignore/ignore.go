// Package ignore builds the set of base names excluded from a rendered tree.
package ignore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

const (
	commentPrefix = "#"

	errorOpenIgnoreFileFormat = "opening ignore file %s: %w"
	errorReadIgnoreFileFormat = "reading ignore file %s: %w"
	warningCloseFileFormat    = "Warning: failed to close %s: %v\n"
)

// defaultNames are the conventional version-control, editor, cache, and build output names.
var defaultNames = []string{
	".git",
	".vscode",
	"__pycache__",
	"node_modules",
	"venv",
	".DS_Store",
	"target",
	"dist",
	"build",
}

// Set is a set of entry base names. Matching is exact and case-sensitive.
// A nil Set contains nothing.
type Set map[string]struct{}

// NewSet returns a Set containing names.
func NewSet(names ...string) Set {
	set := make(Set, len(names))
	set.Add(names...)
	return set
}

// Add inserts names into the set, skipping empty strings.
func (set Set) Add(names ...string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
}

// Contains reports whether name is in the set.
func (set Set) Contains(name string) bool {
	_, found := set[name]
	return found
}

// Names returns the members in sorted order.
func (set Set) Names() []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultNames returns the default ignore list, sorted.
func DefaultNames() []string {
	names := append([]string(nil), defaultNames...)
	sort.Strings(names)
	return names
}

// ParseList splits text into one name per line, trimming whitespace and dropping blank lines.
func ParseList(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if trimmedLine == "" {
			continue
		}
		names = append(names, trimmedLine)
	}
	return names
}

// ReadNames reads one name per line from reader. Blank lines and lines starting with # are skipped.
func ReadNames(reader io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		names = append(names, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return names, nil
}

// LoadFile reads the names listed in the ignore file at ignoreFilePath.
//
// #nosec G304
func LoadFile(ignoreFilePath string) ([]string, error) {
	fileHandle, openFileError := os.Open(ignoreFilePath)
	if openFileError != nil {
		return nil, fmt.Errorf(errorOpenIgnoreFileFormat, ignoreFilePath, openFileError)
	}
	defer func() {
		if closeError := fileHandle.Close(); closeError != nil {
			fmt.Fprintf(os.Stderr, warningCloseFileFormat, ignoreFilePath, closeError)
		}
	}()

	names, readError := ReadNames(fileHandle)
	if readError != nil {
		return nil, fmt.Errorf(errorReadIgnoreFileFormat, ignoreFilePath, readError)
	}
	return names, nil
}

// Options describes where the names of an ignore set come from.
type Options struct {
	UseDefaults bool
	Names       []string
	Files       []string
}

// Build assembles a Set from the default list, explicit names, and ignore files.
func Build(options Options) (Set, error) {
	set := NewSet()
	if options.UseDefaults {
		set.Add(defaultNames...)
	}
	for _, name := range options.Names {
		set.Add(strings.TrimSpace(name))
	}
	for _, ignoreFilePath := range options.Files {
		fileNames, loadError := LoadFile(ignoreFilePath)
		if loadError != nil {
			return nil, loadError
		}
		set.Add(fileNames...)
	}
	return set, nil
}
