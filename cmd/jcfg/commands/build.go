package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-java-cfg/internal/scanner"
	"github.com/l3aro/go-java-cfg/pkg/cache"
	"github.com/l3aro/go-java-cfg/pkg/cfg"
	"github.com/l3aro/go-java-cfg/pkg/render"
)

// buildOptions are the effective settings of one build run.
type buildOptions struct {
	format    render.Format
	method    string
	outputDir string
	verify    bool
	useCache  bool
	jobs      int
}

// fileOutcome is the result of processing one source file.
type fileOutcome struct {
	file   scanner.FileInfo
	result *cfg.FileResult
	err    error // file-wide failure: unreadable or not valid Java
	cached bool
}

func newBuildCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <path>...",
		Short: "Build control flow graphs for Java methods",
		Long: `Builds one control flow graph per method or constructor for each Java
file. Directories are scanned recursively for .java files.

Graphs are written to stdout, or with --output to one file per method named
<File>.<method>.<ext>. Methods using unsupported statements (while, switch,
try, break, ...) are reported and skipped; the command exits non-zero when
any file or method failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.buildOptions(cmd)
			if err != nil {
				return err
			}
			return a.runBuild(cmd.Context(), cmd.OutOrStdout(), args, opts)
		},
	}

	cmd.Flags().StringP("format", "f", "", "Output format: text, json or dot (default from config)")
	cmd.Flags().StringP("method", "m", "", "Only output methods with this name")
	cmd.Flags().StringP("output", "o", "", "Write one file per method graph into this directory")
	cmd.Flags().Bool("verify", false, "Check structural properties of every graph")
	cmd.Flags().Bool("no-cache", false, "Do not read or write the result cache")
	cmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "Number of files processed in parallel")
	return cmd
}

func (a *app) buildOptions(cmd *cobra.Command) (buildOptions, error) {
	opts := buildOptions{
		outputDir: a.cfg.OutputDir,
		verify:    a.cfg.Verify,
		useCache:  a.cfg.CacheEnabled,
	}

	format := a.cfg.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		return opts, err
	}
	opts.format = f

	opts.method, _ = cmd.Flags().GetString("method")
	if cmd.Flags().Changed("output") {
		opts.outputDir, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("verify") {
		opts.verify, _ = cmd.Flags().GetBool("verify")
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		opts.useCache = false
	}
	opts.jobs, _ = cmd.Flags().GetInt("jobs")
	if opts.jobs < 1 {
		opts.jobs = 1
	}
	return opts, nil
}

func (a *app) runBuild(ctx context.Context, out io.Writer, args []string, opts buildOptions) error {
	files, err := scanner.New(scanner.DefaultOptions()).Resolve(args...)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .java files found in %s", strings.Join(args, ", "))
	}

	var results *cache.Results
	if opts.useCache {
		results, err = cache.OpenResults(a.cfg.CacheDir, a.cfg.CacheSize)
		if err != nil {
			a.logger.Warn("cache unavailable, building without it", "dir", a.cfg.CacheDir, "error", err)
		}
	}

	outcomes := make([]fileOutcome, len(files))
	p := pool.New().WithMaxGoroutines(opts.jobs)
	for i, f := range files {
		p.Go(func() {
			outcomes[i] = a.processFile(ctx, f, results, opts.verify)
		})
	}
	p.Wait()

	if results != nil {
		if err := results.Flush(); err != nil {
			a.logger.Warn("failed to persist cache", "dir", a.cfg.CacheDir, "error", err)
		}
		stats := results.Stats()
		a.logger.Debug("cache statistics", "entries", stats.Length, "hits", stats.HitCount, "misses", stats.MissCount)
	}

	return a.report(out, outcomes, opts)
}

// processFile reads, parses and builds one file, consulting the cache first.
func (a *app) processFile(ctx context.Context, f scanner.FileInfo, results *cache.Results, verify bool) fileOutcome {
	outcome := fileOutcome{file: f}

	content, err := os.ReadFile(f.FullPath)
	if err != nil {
		outcome.err = fmt.Errorf("reading file: %w", err)
		return outcome
	}

	if results != nil {
		res, err := results.Lookup(content)
		switch {
		case err == nil:
			a.logger.Debug("cache hit", "file", f.Path)
			if verify {
				verifyResult(res)
			}
			outcome.result = res
			outcome.cached = true
			return outcome
		case !errors.Is(err, cache.ErrKeyNotFound):
			a.logger.Warn("discarding unreadable cache entry", "file", f.Path, "error", err)
		}
	}

	res, err := cfg.FromSource(ctx, content, cfg.WithLogger(a.logger))
	if err != nil {
		outcome.err = err
		return outcome
	}

	if verify {
		verifyResult(res)
	}

	if results != nil {
		if err := results.Store(content, res); err != nil && !errors.Is(err, cache.ErrPartialResult) {
			a.logger.Warn("failed to cache result", "file", f.Path, "error", err)
		}
	}

	outcome.result = res
	return outcome
}

// verifyResult turns graphs that violate a structural property into method
// failures.
func verifyResult(res *cfg.FileResult) {
	for i := range res.Methods {
		m := &res.Methods[i]
		if m.Graph == nil {
			continue
		}
		if err := cfg.Verify(m.Graph); err != nil {
			m.Graph = nil
			m.Err = fmt.Errorf("verification failed: %w", err)
		}
	}
}

// report writes the outcomes in file order and summarizes failures.
func (a *app) report(out io.Writer, outcomes []fileOutcome, opts buildOptions) error {
	var (
		failedFiles   int
		failedMethods int
		totalMethods  int
		matched       bool
		names         = make(outputNames)
	)

	for _, o := range outcomes {
		if o.err != nil {
			failedFiles++
			a.logger.Error("file failed", "file", o.file.Path, "error", o.err)
			continue
		}

		res := filterMethods(o.result, opts.method)
		if len(res.Methods) > 0 {
			matched = true
		}
		for _, m := range res.Methods {
			totalMethods++
			if m.Err != nil {
				failedMethods++
				a.logger.Error("method failed", "file", o.file.Path, "method", m.Name, "error", m.Err)
			}
		}

		if err := a.write(out, o.file, res, opts, names); err != nil {
			return err
		}
	}

	a.logger.Info("build finished",
		"files", len(outcomes),
		"methods", totalMethods,
		"failed_files", failedFiles,
		"failed_methods", failedMethods)

	if opts.method != "" && !matched {
		return fmt.Errorf("method %q not found", opts.method)
	}
	if failedFiles > 0 || failedMethods > 0 {
		return fmt.Errorf("%d of %d files and %d of %d methods failed", failedFiles, len(outcomes), failedMethods, totalMethods)
	}
	return nil
}

func (a *app) write(out io.Writer, file scanner.FileInfo, res *cfg.FileResult, opts buildOptions, names outputNames) error {
	if opts.outputDir == "" {
		if opts.method != "" && len(res.Methods) == 0 {
			return nil
		}
		if err := render.WriteFile(out, opts.format, file.Path, res); err != nil {
			return fmt.Errorf("rendering %s: %w", file.Path, err)
		}
		return nil
	}

	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for _, name := range names.assign(file, res, opts.format) {
		path := filepath.Join(opts.outputDir, name.file)
		if err := writeGraphFile(path, opts.format, name.graph); err != nil {
			return err
		}
		a.logger.Debug("wrote graph", "method", name.graph.Method, "path", path)
	}
	return nil
}

type namedGraph struct {
	file  string
	graph *cfg.Graph
}

// outputNames hands out output file names for one build run. It records
// every name already taken, across all source files.
type outputNames map[string]bool

// assign names the output file of every built graph of a source file as
// <File>.<method>.<ext>. A stem used before, by an overload or by a
// same-named file in another directory, gets a numeric suffix in the order
// graphs are assigned.
func (used outputNames) assign(file scanner.FileInfo, res *cfg.FileResult, f render.Format) []namedGraph {
	base := strings.TrimSuffix(filepath.Base(file.FullPath), filepath.Ext(file.FullPath))

	var names []namedGraph
	for _, g := range res.Graphs() {
		stem := base + "." + g.Method
		name := stem
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s_%d", stem, n)
		}
		used[name] = true
		names = append(names, namedGraph{
			file:  name + "." + f.Extension(),
			graph: g,
		})
	}
	return names
}

func writeGraphFile(path string, f render.Format, g *cfg.Graph) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := render.WriteGraph(file, f, g); err != nil {
		file.Close()
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return file.Close()
}

// filterMethods keeps only the methods named name. An empty name keeps all.
func filterMethods(res *cfg.FileResult, name string) *cfg.FileResult {
	if name == "" {
		return res
	}
	filtered := &cfg.FileResult{Methods: make([]cfg.MethodResult, 0)}
	for _, m := range res.Methods {
		if m.Name == name {
			filtered.Methods = append(filtered.Methods, m)
		}
	}
	return filtered
}
