// Package tree renders a directory subtree as a Unicode tree diagram.
package tree

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/foldertree/internal/ignore"
)

const (
	rootMarker          = "🗂️ "
	directoryMarker     = "📁"
	fileMarker          = "📄"
	branchConnector     = "├── "
	lastConnector       = "└── "
	branchPadding       = "│   "
	lastPadding         = "    "
	rootLabelTerminator = "/"
	lineTerminator      = "\n"
	walkRootName        = "."

	skippedEntryMessage = "skipping unreadable entry"
)

// Entry is one filesystem node discovered below the root.
type Entry struct {
	Depth int
	Path  string
	Name  string
	IsDir bool
}

// Result holds a rendered diagram and the paths that could not be read while producing it.
type Result struct {
	Text    string
	Skipped []string
}

// Renderer produces tree diagrams. The zero value is ready to use.
type Renderer struct {
	Logger *zap.Logger
	// FileSystem opens the resolved root for walking. Nil uses os.DirFS.
	FileSystem func(walkRoot string) fs.FS
}

// NewRenderer constructs a Renderer that reports skipped entries to logger.
func NewRenderer(logger *zap.Logger) *Renderer {
	return &Renderer{Logger: logger}
}

// Render returns the diagram for rootPath, excluding every entry whose base name is in ignoreNames.
func Render(rootPath string, ignoreNames ignore.Set) (string, error) {
	result, generateError := (&Renderer{}).Generate(rootPath, ignoreNames)
	if generateError != nil {
		return "", generateError
	}
	return result.Text, nil
}

// Generate renders rootPath and also reports the entries skipped because they could not be read.
func (renderer *Renderer) Generate(rootPath string, ignoreNames ignore.Set) (Result, error) {
	walkRoot, resolveError := resolveRoot(rootPath)
	if resolveError != nil {
		return Result{}, resolveError
	}

	entries, skippedPaths, walkError := renderer.collectEntries(rootPath, walkRoot, ignoreNames)
	if walkError != nil {
		return Result{}, walkError
	}
	lastEntryAtDepth := lastPathAtEachDepth(entries)

	var builder strings.Builder
	builder.WriteString(rootMarker + rootLabel(rootPath) + rootLabelTerminator + lineTerminator)
	for _, entry := range entries {
		builder.WriteString(renderLine(entry, lastEntryAtDepth))
	}
	return Result{Text: builder.String(), Skipped: skippedPaths}, nil
}

// resolveRoot validates rootPath and returns the directory to walk. A symbolic link at the root is followed.
func resolveRoot(rootPath string) (string, error) {
	rootInfo, statError := os.Stat(rootPath)
	if statError != nil {
		return "", &InvalidRootError{Path: rootPath, Err: statError}
	}
	if !rootInfo.IsDir() {
		return "", &InvalidRootError{Path: rootPath}
	}
	resolvedRoot, evalError := filepath.EvalSymlinks(rootPath)
	if evalError != nil {
		return "", &InvalidRootError{Path: rootPath, Err: evalError}
	}
	return resolvedRoot, nil
}

// collectEntries walks walkRoot depth first with siblings in lexical order.
// Ignored directories are pruned without being read. A root that cannot be listed is an InvalidRootError;
// any other unreadable entry is recorded and the walk continues.
func (renderer *Renderer) collectEntries(rootPath string, walkRoot string, ignoreNames ignore.Set) ([]Entry, []string, error) {
	var entries []Entry
	var skippedPaths []string

	walkFunction := func(relativePath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			if relativePath == walkRootName {
				return &InvalidRootError{Path: rootPath, Err: walkError}
			}
			skippedPath := filepath.Join(walkRoot, filepath.FromSlash(relativePath))
			skippedPaths = append(skippedPaths, skippedPath)
			renderer.logger().Debug(skippedEntryMessage, zap.String("path", skippedPath), zap.Error(walkError))
			return nil
		}
		if relativePath == walkRootName {
			return nil
		}
		if ignoreNames.Contains(directoryEntry.Name()) {
			if directoryEntry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		entries = append(entries, Entry{
			Depth: strings.Count(relativePath, "/") + 1,
			Path:  filepath.Join(walkRoot, filepath.FromSlash(relativePath)),
			Name:  directoryEntry.Name(),
			IsDir: directoryEntry.IsDir(),
		})
		return nil
	}

	if walkError := fs.WalkDir(renderer.fileSystem(walkRoot), walkRootName, walkFunction); walkError != nil {
		return nil, nil, walkError
	}
	return entries, skippedPaths, nil
}

// lastPathAtEachDepth maps each depth to the path of the final entry at that depth in traversal order.
func lastPathAtEachDepth(entries []Entry) map[int]string {
	lastEntryAtDepth := make(map[int]string)
	for _, entry := range entries {
		lastEntryAtDepth[entry.Depth] = entry.Path
	}
	return lastEntryAtDepth
}

func renderLine(entry Entry, lastEntryAtDepth map[int]string) string {
	var builder strings.Builder
	for ancestorDepth := 1; ancestorDepth < entry.Depth; ancestorDepth++ {
		ancestorPath := ancestorAtDepth(entry, ancestorDepth)
		if lastEntryAtDepth[ancestorDepth] == ancestorPath {
			builder.WriteString(lastPadding)
		} else {
			builder.WriteString(branchPadding)
		}
	}

	if lastEntryAtDepth[entry.Depth] == entry.Path {
		builder.WriteString(lastConnector)
	} else {
		builder.WriteString(branchConnector)
	}

	marker := fileMarker
	if entry.IsDir {
		marker = directoryMarker
	}
	builder.WriteString(marker + " " + entry.Name + lineTerminator)
	return builder.String()
}

// ancestorAtDepth returns the path of the entry's ancestor that sits at ancestorDepth.
func ancestorAtDepth(entry Entry, ancestorDepth int) string {
	ancestorPath := entry.Path
	for level := entry.Depth; level > ancestorDepth; level-- {
		ancestorPath = filepath.Dir(ancestorPath)
	}
	return ancestorPath
}

// rootLabel returns the base name of rootPath, or rootPath itself when it has no usable base name.
func rootLabel(rootPath string) string {
	cleanPath := filepath.Clean(rootPath)
	baseName := filepath.Base(cleanPath)
	switch baseName {
	case ".", "..", string(filepath.Separator), "":
		return rootPath
	}
	return baseName
}

func (renderer *Renderer) logger() *zap.Logger {
	if renderer == nil || renderer.Logger == nil {
		return zap.NewNop()
	}
	return renderer.Logger
}

func (renderer *Renderer) fileSystem(walkRoot string) fs.FS {
	if renderer == nil || renderer.FileSystem == nil {
		return os.DirFS(walkRoot)
	}
	return renderer.FileSystem(walkRoot)
}
