package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}
}

func paths(files []FileInfo) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestScannerScan(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"Main.java":                     "class Main {}",
		"src/com/acme/Util.java":        "class Util {}",
		"src/com/acme/README.md":        "# Util",
		"src/com/acme/Util.kt":          "object Util",
		".hidden/Secret.java":           "class Secret {}",
		"build/classes/Gen.java":        "class Gen {}",
		"target/generated/Stub.java":    "class Stub {}",
		"node_modules/pkg/Vendor.java":  "class Vendor {}",
		"src/test/java/MainTest.JAVA":   "class MainTest {}",
		".git/objects/Object.java":      "class Object {}",
		"docs/examples/Example.java.md": "not java",
	})

	results, err := New(DefaultOptions()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	got := strings.Join(paths(results), ",")
	want := "Main.java,src/com/acme/Util.java,src/test/java/MainTest.JAVA"
	if got != want {
		t.Errorf("Scan() = %s, want %s", got, want)
	}

	for _, f := range results {
		if !filepath.IsAbs(f.FullPath) {
			t.Errorf("FullPath %s is not absolute", f.FullPath)
		}
		if f.Size == 0 {
			t.Errorf("Size of %s is zero", f.Path)
		}
	}
}

func TestScannerWithJcfgignore(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		".jcfgignore": `# Ignore generated sources
*Generated.java
# Ignore fixtures directory
fixtures/
# Ignore a specific file
/src/Secret.java
`,
		"src/App.java":              "class App {}",
		"src/AppGenerated.java":     "class AppGenerated {}",
		"src/Secret.java":           "class Secret {}",
		"lib/src/Secret.java":       "class Secret {}",
		"src/fixtures/Fixture.java": "class Fixture {}",
		"module/.jcfgignore":        "Legacy.java\n!KeepGenerated.java\n",
		"module/Legacy.java":        "class Legacy {}",
		"module/KeepGenerated.java": "class KeepGenerated {}",
		"other/Legacy.java":         "class Legacy {}",
		"module/inner/Legacy.java":  "class Legacy {}",
		"module/inner/Current.java": "class Current {}",
	})

	results, err := New(DefaultOptions()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	found := make(map[string]bool)
	for _, p := range paths(results) {
		found[p] = true
	}

	for _, expected := range []string{"src/App.java", "lib/src/Secret.java", "module/KeepGenerated.java", "other/Legacy.java", "module/inner/Current.java"} {
		if !found[expected] {
			t.Errorf("Expected to find %s", expected)
		}
	}
	for _, ignored := range []string{"src/AppGenerated.java", "src/Secret.java", "src/fixtures/Fixture.java", "module/Legacy.java", "module/inner/Legacy.java"} {
		if found[ignored] {
			t.Errorf("Expected %s to be ignored", ignored)
		}
	}
}

func TestScannerSkipHidden(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"Visible.java":        "class Visible {}",
		".hidden/Hidden.java": "class Hidden {}",
		".Dotfile.java":       "class Dotfile {}",
	})

	opts := DefaultOptions()
	results, err := New(opts).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if got := strings.Join(paths(results), ","); got != "Visible.java" {
		t.Errorf("Scan() with SkipHidden = %s, want Visible.java", got)
	}

	opts.SkipHidden = false
	results, err = New(opts).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("Scan() without SkipHidden found %v, want 3 files", paths(results))
	}
}

func TestScannerSymlinks(t *testing.T) {
	tmpDir := t.TempDir()
	outside := t.TempDir()
	writeTree(t, tmpDir, map[string]string{"src/Real.java": "class Real {}"})
	writeTree(t, outside, map[string]string{"Outside.java": "class Outside {}"})

	if err := os.Symlink(filepath.Join(tmpDir, "src", "Real.java"), filepath.Join(tmpDir, "Link.java")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	if err := os.Symlink(filepath.Join(outside, "Outside.java"), filepath.Join(tmpDir, "Escape.java")); err != nil {
		t.Fatal(err)
	}

	results, err := New(DefaultOptions()).Scan(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(paths(results), ","); got != "src/Real.java" {
		t.Errorf("Scan() = %s, want only src/Real.java", got)
	}

	opts := DefaultOptions()
	opts.FollowSymlinks = true
	results, err = New(opts).Scan(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(paths(results), ","); got != "Link.java,src/Real.java" {
		t.Errorf("Scan() following symlinks = %s, want Link.java,src/Real.java", got)
	}
}

func TestScannerResolve(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"a/One.java":  "class One {}",
		"a/Two.java":  "class Two {}",
		"b/Three.txt": "three",
	})
	s := New(DefaultOptions())

	one := filepath.Join(tmpDir, "a", "One.java")
	results, err := s.Resolve(one, filepath.Join(tmpDir, "a"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Resolve() = %v, want One.java once and Two.java", paths(results))
	}
	if results[0].Path != filepath.ToSlash(one) {
		t.Errorf("file argument path = %s, want %s", results[0].Path, filepath.ToSlash(one))
	}
	if results[1].Path != "Two.java" {
		t.Errorf("scanned path = %s, want Two.java", results[1].Path)
	}

	if _, err := s.Resolve(filepath.Join(tmpDir, "b", "Three.txt")); err == nil || !strings.Contains(err.Error(), "unsupported file type") {
		t.Errorf("Resolve(.txt) error = %v, want unsupported file type", err)
	}
	if _, err := s.Resolve(filepath.Join(tmpDir, "missing")); err == nil {
		t.Error("Resolve(missing) should fail")
	}
}

func TestIgnoreRules(t *testing.T) {
	tests := []struct {
		patterns []string
		path     string
		isDir    bool
		ignored  bool
	}{
		{[]string{"*.java"}, "App.java", false, true},
		{[]string{"*.java"}, "src/App.java", false, true},
		{[]string{"*.java"}, "App.kt", false, false},
		{[]string{"gen/"}, "gen", true, true},
		{[]string{"gen/"}, "src/gen", true, true},
		{[]string{"gen/"}, "gen", false, false},
		{[]string{"gen/"}, "generator", true, false},
		{[]string{"/gen/"}, "gen", true, true},
		{[]string{"/gen/"}, "src/gen", true, false},
		{[]string{"src/*.java"}, "src/App.java", false, true},
		{[]string{"src/*.java"}, "src/deep/App.java", false, false},
		{[]string{"**/test/**"}, "src/test/App.java", false, true},
		{[]string{"**/test/**"}, "testing/App.java", false, false},
		{[]string{"App?.java"}, "App1.java", false, true},
		{[]string{"App?.java"}, "App12.java", false, false},
		{[]string{"*.java", "!Keep.java"}, "Keep.java", false, false},
		{[]string{"!Keep.java", "*.java"}, "Keep.java", false, true},
		{nil, "App.java", false, false},
	}

	for _, tt := range tests {
		rules := &ignoreRules{}
		for _, p := range tt.patterns {
			rules.add(p, nil)
		}
		if got := rules.ignored(tt.path, tt.isDir); got != tt.ignored {
			t.Errorf("patterns %q on %q (dir=%v): got %v, want %v", tt.patterns, tt.path, tt.isDir, got, tt.ignored)
		}
	}
}

func TestIgnoreRulesDomain(t *testing.T) {
	rules := &ignoreRules{}
	rules.add("Legacy.java", []string{"module"})
	rules.add("# comment", nil)
	rules.add("", nil)

	if len(rules.patterns) != 1 {
		t.Fatalf("expected comments and blanks to be skipped, got %d patterns", len(rules.patterns))
	}
	if !rules.ignored("module/Legacy.java", false) {
		t.Error("pattern should apply inside its directory")
	}
	if rules.ignored("other/Legacy.java", false) {
		t.Error("pattern should not apply outside its directory")
	}
}
