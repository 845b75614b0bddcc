// Package scanner locates Java source files. Directories are walked
// recursively; default exclusions and .jcfgignore files with gitignore-style
// patterns keep build output and vendored code out of the result.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo represents information about a discovered file.
type FileInfo struct {
	Path     string // Path relative to the scan root, or as given for file arguments
	FullPath string // Absolute path
	Size     int64  // File size in bytes
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden      bool     // Skip hidden files and directories (starting with .)
	FollowSymlinks  bool     // Follow file symlinks (within root only)
	DefaultExcludes []string // Directory names never entered
	IgnoreFileName  string   // Name of the ignore file (default: .jcfgignore)
	Extensions      []string // Source file extensions, with the leading dot
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		FollowSymlinks: false,
		IgnoreFileName: ".jcfgignore",
		Extensions:     []string{".java"},
		DefaultExcludes: []string{
			".git",
			".hg",
			".svn",
			".gradle",
			".idea",
			".vscode",
			".jcfg",
			"build",
			"target",
			"out",
			"bin",
			"node_modules",
		},
	}
}

// Scanner provides file tree scanning capabilities.
type Scanner struct {
	opts Options
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan recursively scans the directory at root and returns the source files
// below it in lexical order.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	rules := &ignoreRules{}
	if err := rules.load(absRoot, s.opts.IgnoreFileName, nil); err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}

	var files []FileInfo

	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Unreadable entries are skipped
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}
		relPathSlash := filepath.ToSlash(relPath)

		if s.opts.SkipHidden && isHidden(info.Name()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if s.isDefaultExcluded(info.Name()) || rules.ignored(relPathSlash, true) {
				return filepath.SkipDir
			}
			// Nested ignore files apply to their own subtree
			if err := rules.load(path, s.opts.IgnoreFileName, splitPath(relPathSlash)); err != nil {
				return fmt.Errorf("loading ignore patterns in %s: %w", relPathSlash, err)
			}
			return nil
		}

		if !s.isSource(info.Name()) || rules.ignored(relPathSlash, false) {
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			target, ok := s.resolveSymlink(absRoot, path)
			if !ok {
				return nil
			}
			info = target
		}

		files = append(files, FileInfo{
			Path:     relPathSlash,
			FullPath: path,
			Size:     info.Size(),
		})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return files, nil
}

// Resolve turns command line arguments into source files. Directories are
// scanned; files must carry a source extension. Files reached through more
// than one argument are reported once.
func (s *Scanner) Resolve(paths ...string) ([]FileInfo, error) {
	var files []FileInfo
	seen := make(map[string]bool)

	add := func(f FileInfo) {
		if !seen[f.FullPath] {
			seen[f.FullPath] = true
			files = append(files, f)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}

		if info.IsDir() {
			found, err := s.Scan(p)
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				add(f)
			}
			continue
		}

		if !s.isSource(info.Name()) {
			return nil, fmt.Errorf("unsupported file type: %s (only %s files supported)", p, strings.Join(s.opts.Extensions, ", "))
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("getting absolute path: %w", err)
		}
		add(FileInfo{Path: filepath.ToSlash(p), FullPath: abs, Size: info.Size()})
	}

	return files, nil
}

// resolveSymlink returns the target of a file symlink when following is
// enabled and the target lies inside root.
func (s *Scanner) resolveSymlink(root, path string) (os.FileInfo, bool) {
	if !s.opts.FollowSymlinks {
		return nil, false
	}
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, false
	}
	realAbs, err := filepath.Abs(realPath)
	if err != nil {
		return nil, false
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	if !strings.HasPrefix(realAbs, root+string(filepath.Separator)) {
		return nil, false
	}
	info, err := os.Stat(realAbs)
	if err != nil || info.IsDir() {
		return nil, false
	}
	return info, true
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// isDefaultExcluded checks if the name matches default exclusion patterns.
func (s *Scanner) isDefaultExcluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

func (s *Scanner) isSource(name string) bool {
	ext := filepath.Ext(name)
	for _, want := range s.opts.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// Scan is a convenience function that scans a directory with default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}
