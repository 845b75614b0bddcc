package scanner

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// ignoreRules collects gitignore-style patterns from the ignore files met
// during a walk. Later patterns take precedence, so a nested ignore file can
// re-include what its parent excluded.
type ignoreRules struct {
	patterns []gitignore.Pattern
}

// add parses one ignore file line. domain is the slash-split directory of
// the ignore file relative to the scan root; patterns only apply below it.
func (r *ignoreRules) add(line string, domain []string) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	r.patterns = append(r.patterns, gitignore.ParsePattern(line, domain))
}

// load reads the ignore file named fileName in dir, if there is one.
func (r *ignoreRules) load(dir, fileName string, domain []string) error {
	file, err := os.Open(filepath.Join(dir, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		r.add(scanner.Text(), domain)
	}
	return scanner.Err()
}

// ignored reports whether the slash-separated path relative to the scan
// root is excluded.
func (r *ignoreRules) ignored(relPath string, isDir bool) bool {
	if len(r.patterns) == 0 {
		return false
	}
	return gitignore.NewMatcher(r.patterns).Match(splitPath(relPath), isDir)
}

func splitPath(relPath string) []string {
	relPath = filepath.ToSlash(relPath)
	if relPath == "" || relPath == "." {
		return nil
	}
	return strings.Split(relPath, "/")
}
