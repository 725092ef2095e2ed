// Package javasrc loads a metadata model from Java source trees using
// tree-sitter. Files are parsed concurrently and linked sequentially.
package javasrc

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"golang.org/x/sync/errgroup"

	"github.com/toyz/annoscope/internal/errors"
	"github.com/toyz/annoscope/internal/metadata"
)

// skippedDirs are build output and tooling directories never holding sources
var skippedDirs = map[string]bool{
	"target": true, "build": true, "out": true, "bin": true, "classes": true,
	"node_modules": true, "vendor": true, "test-output": true,
}

// Loader builds a model from Java sources
type Loader struct {
	logger   *slog.Logger
	workers  int
	excludes []string
	platform bool
}

// Option configures a Loader
type Option func(*Loader)

// WithLogger sets the debug logger
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithWorkers limits the number of files parsed concurrently
func WithWorkers(workers int) Option {
	return func(l *Loader) {
		if workers > 0 {
			l.workers = workers
		}
	}
}

// WithExcludes skips files and directories matching any doublestar pattern,
// relative to the walked root
func WithExcludes(patterns ...string) Option {
	return func(l *Loader) { l.excludes = append(l.excludes, patterns...) }
}

// WithPlatformKinds controls whether well-known JUnit annotation kinds are
// added when the sources do not declare them. Enabled by default.
func WithPlatformKinds(enabled bool) Option {
	return func(l *Loader) { l.platform = enabled }
}

// NewLoader creates a Java source loader
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		logger:   slog.New(slog.DiscardHandler),
		workers:  runtime.NumCPU(),
		platform: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load parses every Java file below the given roots. Roots may be
// directories, files or doublestar patterns. All syntax errors are reported
// together.
func (l *Loader) Load(ctx context.Context, roots ...string) (*metadata.Model, error) {
	files, err := l.Discover(roots...)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("discovered java sources", "roots", roots, "files", len(files))

	parsed, err := l.parseAll(ctx, files)
	if err != nil {
		return nil, err
	}
	return newLinker(l.logger, l.platform).link(parsed)
}

// Discover lists the Java files below the roots in a stable order
func (l *Loader) Discover(roots ...string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range roots {
		expanded := []string{root}
		if strings.ContainsAny(root, "*?[{") {
			matches, err := doublestar.FilepathGlob(root)
			if err != nil {
				return nil, errors.WrapFileSystemError("expand pattern", root, err)
			}
			expanded = matches
		}
		for _, path := range expanded {
			if err := l.walk(path, add); err != nil {
				return nil, err
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func (l *Loader) walk(root string, add func(string)) error {
	info, err := os.Stat(root)
	if err != nil {
		return errors.WrapFileSystemError("stat", root, err)
	}
	if !info.IsDir() {
		if strings.HasSuffix(root, ".java") {
			add(root)
		}
		return nil
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.WrapFileSystemError("walk", path, err)
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || skippedDirs[d.Name()] || l.excluded(rel)) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".java") && !l.excluded(rel) {
			add(path)
		}
		return nil
	})
}

func (l *Loader) excluded(rel string) bool {
	for _, pattern := range l.excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// parseAll parses the files concurrently; results keep the file order
func (l *Loader) parseAll(ctx context.Context, files []string) ([]*sourceFile, error) {
	parsed := make([]*sourceFile, len(files))
	syntaxErrors := make([]*errors.BaseError, len(files))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(l.workers)
	for i, path := range files {
		group.Go(func() error {
			file, syntaxErr, err := l.parseFile(groupCtx, path)
			if err != nil {
				return err
			}
			parsed[i], syntaxErrors[i] = file, syntaxErr
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var multiple *errors.MultipleErrors
	for _, syntaxErr := range syntaxErrors {
		if syntaxErr != nil {
			errors.AddToMultiple(&multiple, syntaxErr)
		}
	}
	if err := multiple.ErrOrNil(); err != nil {
		return nil, err
	}
	return parsed, nil
}

// parseFile parses one file with its own tree-sitter parser
func (l *Loader) parseFile(ctx context.Context, path string) (*sourceFile, *errors.BaseError, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.WrapFileSystemError("read", path, err)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, nil, errors.WrapParseError(path, err)
	}
	defer tree.Close()

	x := &extractor{file: &sourceFile{path: path}, content: content}
	root := tree.RootNode()
	if bad := firstError(root); bad != nil {
		snippet := clip(strings.Join(strings.Fields(x.text(bad)), " "), 40)
		return nil, errors.SyntaxAt(x.location(bad), "syntax error in Java source near '%s'", snippet).
			WithContext("file", path), nil
	}

	x.compilationUnit(root)
	l.logger.Debug("parsed java source", "file", path, "package", x.file.pkg, "types", len(x.file.types))
	return x.file, nil, nil
}

// clip shortens s to at most n runes, marking the cut with "..."
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
