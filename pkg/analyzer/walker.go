package analyzer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/stackvity/log-analyzer/pkg/util"
)

// PathWalker streams candidate file paths into a channel and closes it when done.
type PathWalker interface {
	StartWalk(ctx context.Context) error
}

// WalkerFactory defines a function type for creating the run's PathWalker.
type WalkerFactory func(opts *Options, pathChan chan<- string, loggerHandler slog.Handler) (PathWalker, error)

// Walker traverses the input directory recursively, applies ignore rules, and
// dispatches every non-directory entry to the path channel in walk order.
type Walker struct {
	opts          *Options
	root          string // InputPath with a symlinked root resolved
	pathChan      chan<- string
	hooks         Hooks
	logger        *slog.Logger
	ignoreMatcher *ignoreMatcher
}

// NewWalker creates a new Walker instance. It satisfies WalkerFactory.
func NewWalker(opts *Options, pathChan chan<- string, loggerHandler slog.Handler) (PathWalker, error) {
	logger := slog.New(loggerHandler).With(slog.String("component", "walker"))
	root := opts.InputPath
	// WalkDir does not descend into a root that is itself a symlink.
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	ignoreMatcher, err := newIgnoreMatcher(root, opts.IgnorePatterns, logger)
	if err != nil {
		logger.Error("Failed to initialize ignore pattern matcher", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to initialize ignore patterns: %w", err)
	}
	if ignoreMatcher.ignoreFilePath != "" {
		logger.Debug("Using ignore file", slog.String("path", ignoreMatcher.ignoreFilePath))
	}
	logger.Debug("Ignore patterns loaded", slog.Int("count", ignoreMatcher.patternCount()))
	hooks := opts.EventHooks
	if hooks == nil {
		hooks = &NoOpHooks{}
	}
	return &Walker{
		opts:          opts,
		root:          root,
		pathChan:      pathChan,
		hooks:         hooks,
		logger:        logger,
		ignoreMatcher: ignoreMatcher,
	}, nil
}

// StartWalk begins the directory traversal. The path channel is always closed on return.
func (w *Walker) StartWalk(ctx context.Context) error {
	defer close(w.pathChan)
	w.logger.Debug("Starting directory walk", slog.String("path", w.root))
	walkErr := filepath.WalkDir(w.root, w.walkFunc(ctx))
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			w.logger.Info("Directory walk cancelled", slog.String("reason", walkErr.Error()))
			return walkErr
		}
		w.logger.Error("Directory walk failed", slog.String("error", walkErr.Error()))
		return fmt.Errorf("directory walk failed: %w", walkErr)
	}
	w.logger.Debug("Directory walk completed")
	return nil
}

// walkFunc returns the WalkDirFunc used by filepath.WalkDir.
func (w *Walker) walkFunc(ctx context.Context) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == w.root {
				return fmt.Errorf("cannot read input directory %q: %w", path, err)
			}
			// Unreadable sub-directories are skipped, like an os.walk without onerror.
			w.logger.Warn("Error accessing path during walk", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		relativePath, err := filepath.Rel(w.root, path)
		if err != nil {
			w.logger.Warn("Could not calculate relative path", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		relativePath = filepath.ToSlash(relativePath)
		if relativePath == "." {
			return nil
		}

		isDir := d.IsDir()
		if w.ignoreMatcher.Match(relativePath, isDir) {
			matchedPattern := w.ignoreMatcher.LastMatchPattern(relativePath, isDir)
			w.logger.Debug("Path ignored", slog.String("path", relativePath), slog.Bool("isDir", isDir), slog.String("pattern", matchedPattern))
			if isDir {
				return filepath.SkipDir
			}
			if hookErr := w.hooks.OnFileStatusUpdate(relativePath, StatusSkipped, "ignored by pattern: "+matchedPattern); hookErr != nil {
				w.logger.Warn("Event hook OnFileStatusUpdate (ignored) failed", slog.String("path", relativePath), slog.String("error", hookErr.Error()))
			}
			return nil
		}
		if isDir || w.ignoreMatcher.isIgnoreFile(relativePath) {
			return nil
		}

		// Symlinks are dispatched too; the processor skips ones that resolve to directories.
		if hookErr := w.hooks.OnFileDiscovered(relativePath); hookErr != nil {
			w.logger.Warn("Event hook OnFileDiscovered failed", slog.String("path", relativePath), slog.String("error", hookErr.Error()))
		}
		// Paths are reported under InputPath as given, not the resolved root.
		select {
		case w.pathChan <- filepath.Join(w.opts.InputPath, filepath.FromSlash(relativePath)):
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	}
}

// --- ignoreMatcher ---

type ignoreMatcher struct {
	patterns       []ignorePattern
	basePath       string // Absolute path to the input directory
	ignoreFilePath string // Absolute path of the loaded ignore file, "" if none
	logger         *slog.Logger
}

type ignorePattern struct {
	pattern     string // Cleaned pattern using '/' separators
	origPattern string // Original pattern string for reporting
	negated     bool
	isDirOnly   bool
	isRooted    bool
	baseAbsPath string // Directory the pattern is relative to
}

// newIgnoreMatcher creates an ignoreMatcher from the ignore file and config patterns.
// An ignore file that cannot be read is logged and left out.
func newIgnoreMatcher(inputPath string, configPatterns []string, logger *slog.Logger) (*ignoreMatcher, error) {
	absInputPath, err := filepath.Abs(inputPath)
	if err != nil {
		return nil, fmt.Errorf("could not get absolute path for input: %w", err)
	}
	matcher := &ignoreMatcher{
		patterns: make([]ignorePattern, 0),
		basePath: absInputPath,
		logger:   logger.With(slog.String("component", "ignoreMatcher")),
	}
	ignoreFilePath, err := findIgnoreFile(absInputPath)
	if err != nil {
		matcher.logger.Warn("Error searching for "+IgnoreFileName, slog.String("error", err.Error()))
	}
	if ignoreFilePath != "" {
		filePatterns, err := loadPatternsFromFile(ignoreFilePath)
		if err != nil {
			matcher.logger.Warn("Ignoring unreadable "+IgnoreFileName, slog.String("path", ignoreFilePath), slog.String("error", err.Error()))
		} else {
			matcher.ignoreFilePath = ignoreFilePath
			matcher.addPatterns(filePatterns, filepath.Dir(ignoreFilePath))
			matcher.logger.Debug("Loaded patterns from ignore file", slog.String("path", ignoreFilePath), slog.Int("count", len(filePatterns)))
		}
	}
	matcher.addPatterns(configPatterns, absInputPath)
	return matcher, nil
}

// findIgnoreFile walks up from absStartPath looking for IgnoreFileName.
func findIgnoreFile(absStartPath string) (string, error) {
	currentPath := absStartPath
	for {
		potentialPath := filepath.Join(currentPath, IgnoreFileName)
		if info, err := os.Stat(potentialPath); err == nil {
			if !info.IsDir() {
				return potentialPath, nil
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("error checking for ignore file at %s: %w", potentialPath, err)
		}
		parent := filepath.Dir(currentPath)
		if parent == currentPath || parent == "" {
			return "", nil
		}
		currentPath = parent
	}
}

// loadPatternsFromFile reads an ignore file, dropping blank lines and comments.
func loadPatternsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open ignore file %s: %w", filePath, err)
	}
	defer file.Close()
	var patterns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ignore file %s: %w", filePath, err)
	}
	return patterns, nil
}

// addPatterns processes raw string patterns into ignorePattern values.
func (m *ignoreMatcher) addPatterns(rawPatterns []string, baseAbsPath string) {
	for _, rawPattern := range rawPatterns {
		p := ignorePattern{origPattern: rawPattern, baseAbsPath: baseAbsPath}
		trimmed := strings.TrimSpace(rawPattern)
		if strings.HasPrefix(trimmed, "!") {
			p.negated = true
			trimmed = strings.TrimSpace(trimmed[1:])
		}
		if strings.HasPrefix(trimmed, "/") {
			p.isRooted = true
			trimmed = strings.TrimPrefix(trimmed, "/")
		}
		if strings.HasSuffix(trimmed, "/") {
			p.isDirOnly = true
			trimmed = strings.TrimSuffix(trimmed, "/")
		}
		p.pattern = filepath.ToSlash(trimmed)
		if p.pattern == "" {
			continue
		}
		m.patterns = append(m.patterns, p)
	}
}

// Match reports whether relativePath is ignored; the last matching pattern wins.
func (m *ignoreMatcher) Match(relativePath string, isDir bool) bool {
	ignored, _ := m.evaluate(relativePath, isDir)
	return ignored
}

// LastMatchPattern returns the original pattern that caused relativePath to be ignored, or "".
func (m *ignoreMatcher) LastMatchPattern(relativePath string, isDir bool) string {
	ignored, pattern := m.evaluate(relativePath, isDir)
	if !ignored {
		return ""
	}
	return pattern
}

func (m *ignoreMatcher) evaluate(relativePath string, isDir bool) (ignored bool, pattern string) {
	for _, p := range m.patterns {
		if p.isDirOnly && !isDir {
			continue
		}
		if util.MatchesGitignore(p.pattern, p.baseAbsPath, m.basePath, relativePath, p.isRooted) {
			ignored = !p.negated
			pattern = p.origPattern
		}
	}
	return ignored, pattern
}

// isIgnoreFile reports whether relativePath is the ignore file the patterns were loaded from.
func (m *ignoreMatcher) isIgnoreFile(relativePath string) bool {
	if m.ignoreFilePath == "" {
		return false
	}
	return filepath.Join(m.basePath, filepath.FromSlash(relativePath)) == m.ignoreFilePath
}

// patternCount returns the number of processed patterns.
func (m *ignoreMatcher) patternCount() int {
	return len(m.patterns)
}
