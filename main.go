// logtranslator migrates Java sources from legacy logging frameworks to a
// structured logging API and reports the result in TOON format.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/uuid"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/ternarybob/arbor"

	"github.com/phobologic/logtranslator/internal/config"
	"github.com/phobologic/logtranslator/internal/discover"
	"github.com/phobologic/logtranslator/internal/framework"
	"github.com/phobologic/logtranslator/internal/lang"
	"github.com/phobologic/logtranslator/internal/logging"
	"github.com/phobologic/logtranslator/internal/parse"
	"github.com/phobologic/logtranslator/internal/ranking"
	"github.com/phobologic/logtranslator/internal/symtab"
	"github.com/phobologic/logtranslator/internal/toon"
	"github.com/phobologic/logtranslator/internal/translate"
)

var version = "dev"

const defaultMaxFileSize = 1_000_000 // 1 MB

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := runContext(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	return runContext(context.Background(), args, stdout, stderr)
}

func runContext(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 && args[0] == "init" {
		return runInit(args[1:], stdout, stderr)
	}

	fs := flag.NewFlagSet("logtranslator", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath   string
		outDir       string
		inPlace      bool
		maxFiles     int
		fileFilter   string
		methodFilter string
		ignoreErrors bool
		keepGoing    bool
		harvestOnly  bool
		skipTests    bool
		nsPrefix     string
		logLevel     string
		maxFileSize  int
		showVersion  bool
	)

	fs.StringVar(&configPath, "c", "", "config file (default ./"+config.DefaultFileName+" if present)")
	fs.StringVar(&configPath, "config", "", "config file (default ./"+config.DefaultFileName+" if present)")
	fs.StringVar(&outDir, "o", "", "write translated files under this directory")
	fs.StringVar(&outDir, "out", "", "write translated files under this directory")
	fs.BoolVar(&inPlace, "w", false, "rewrite changed files in place")
	fs.BoolVar(&inPlace, "write", false, "rewrite changed files in place")
	fs.IntVar(&maxFiles, "n", 0, "maximum number of files to report")
	fs.IntVar(&maxFiles, "max-files", 0, "maximum number of files to report")
	fs.StringVar(&fileFilter, "f", "", "report only files whose path contains this substring")
	fs.StringVar(&fileFilter, "file", "", "report only files whose path contains this substring")
	fs.StringVar(&methodFilter, "s", "", "report only events whose method name contains this substring")
	fs.StringVar(&methodFilter, "method", "", "report only events whose method name contains this substring")
	fs.BoolVar(&ignoreErrors, "ignore-errors", false, "drop unresolvable log arguments instead of failing")
	fs.BoolVar(&keepGoing, "keep-going", false, "continue past files that fail to translate")
	fs.BoolVar(&harvestOnly, "harvest-only", false, "rewrite imports and logger fields but not log calls")
	fs.BoolVar(&skipTests, "skip-tests", false, "leave test sources out of the run")
	fs.StringVar(&nsPrefix, "namespace-prefix", "", "package prefix of project-owned types")
	fs.StringVar(&logLevel, "log-level", "", "diagnostic log level (debug, info, warn, error)")
	fs.IntVar(&maxFileSize, "max-file-size", defaultMaxFileSize, "skip files larger than this many bytes")
	fs.BoolVar(&showVersion, "V", false, "show version and exit")
	fs.BoolVar(&showVersion, "version", false, "show version and exit")

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	if showVersion {
		_, _ = fmt.Fprintf(stdout, "logtranslator %s\n", version)
		return nil
	}
	if outDir != "" && inPlace {
		return fmt.Errorf("--out and --write are mutually exclusive")
	}

	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg, ignoreErrors, keepGoing, harvestOnly, skipTests, nsPrefix, logLevel)

	runID := uuid.NewString()
	logger := logging.ForRun(logging.New(cfg.Logging.Level), runID)

	catalogue, err := loadCatalogue(cfg)
	if err != nil {
		return err
	}

	// Discover files
	files, err := discover.Files(root, discover.Options{SkipTests: cfg.Translate.SkipTests})
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no java files found")
	}

	// Filter by size
	files = filterBySize(root, files, maxFileSize, stderr)
	if len(files) == 0 {
		return fmt.Errorf("no java files found (all exceeded size limit)")
	}

	// Read and pre-parse files concurrently; translation itself is sequential.
	sources := loadSourcesConcurrent(ctx, root, files, logger)

	paths := discover.Paths(files)
	reg := symtab.NewRegistry(root, paths)
	tr, err := translate.New(cfg, catalogue, reg, translate.Options{Sources: sources}, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("root", root).Int("files", len(paths)).Msg("translation started")
	if err := tr.Run(ctx, paths); err != nil {
		return err
	}

	switch {
	case outDir != "":
		n, err := tr.Write(outDir, false)
		if err != nil {
			return err
		}
		logger.Info().Int("written", n).Str("dir", outDir).Msg("translated files written")
	case inPlace:
		n, err := tr.Write(root, true)
		if err != nil {
			return err
		}
		logger.Info().Int("written", n).Msg("files rewritten in place")
	}

	report := tr.Report()
	report.Root = filepath.Base(root)

	if fileFilter != "" {
		report = ranking.FilterByFile(report, fileFilter)
	}
	if methodFilter != "" {
		report = ranking.FilterByMethod(report, methodFilter)
	}
	if maxFiles > 0 {
		report = ranking.SelectFiles(report, maxFiles)
	}

	_, _ = fmt.Fprintln(stdout, toon.Encode(report))
	return nil
}

// applyFlags overlays command-line switches on the loaded configuration.
// Switches only ever enable a setting; unset flags leave the file's value.
func applyFlags(cfg *config.Config, ignoreErrors, keepGoing, harvestOnly, skipTests bool, nsPrefix, logLevel string) {
	t := &cfg.Translate
	t.IgnoreParsingErrors = t.IgnoreParsingErrors || ignoreErrors
	t.SkipFailedFiles = t.SkipFailedFiles || keepGoing
	t.IgnoreLogStatements = t.IgnoreLogStatements || harvestOnly
	t.SkipTests = t.SkipTests || skipTests
	if nsPrefix != "" {
		t.ApplicationNamespacePrefix = nsPrefix
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
}

func loadCatalogue(cfg *config.Config) (*framework.Catalogue, error) {
	if cfg.Catalogue.Path == "" {
		return framework.Default()
	}
	return framework.LoadFile(cfg.Catalogue.Path)
}

func filterBySize(root string, files []discover.FileEntry, maxSize int, stderr io.Writer) []discover.FileEntry {
	var kept []discover.FileEntry
	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			kept = append(kept, f) // keep if can't stat
			continue
		}
		if fi.Size() > int64(maxSize) {
			_, _ = fmt.Fprintf(stderr, "Warning: %s: skipped (>%d bytes)\n", f.Path, maxSize)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// loadSourcesConcurrent reads every file on a worker pool and parses it once
// to flag syntax errors early. Files that cannot be read are left out and
// are read again, and reported, when the translator reaches them.
func loadSourcesConcurrent(ctx context.Context, root string, files []discover.FileEntry, logger arbor.ILogger) map[string][]byte {
	type result struct {
		path   string
		source []byte
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make(chan result, len(files))

	var wg sync.WaitGroup

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Each goroutine gets its own parser
			parsers := make(map[string]*sitter.Parser)

			for idx := range work {
				f := files[idx]
				source, err := os.ReadFile(filepath.Join(root, f.Path))
				if err != nil {
					logger.Warn().Err(err).Str("file", f.Path).Msg("failed to read source")
					continue
				}
				results <- result{path: f.Path, source: source}

				parser, ok := parsers[f.Language]
				if !ok {
					l := lang.Languages[f.Language]
					if l == nil {
						continue
					}
					parser = l.NewParser()
					parsers[f.Language] = parser
				}
				tree, err := parse.File(ctx, parser, source)
				if err != nil {
					continue
				}
				if tree.RootNode().HasError() {
					logger.Warn().Str("file", f.Path).Msg("source has syntax errors; translation may be incomplete")
				}
				tree.Close()
			}
		}()
	}

	for i := range files {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	sources := make(map[string][]byte, len(files))
	for r := range results {
		sources[r.path] = r.source
	}
	return sources
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-c": true, "--c": true,
	"-config": true, "--config": true,
	"-o": true, "--o": true,
	"-out": true, "--out": true,
	"-n": true, "--n": true,
	"-max-files": true, "--max-files": true,
	"-f": true, "--f": true,
	"-file": true, "--file": true,
	"-s": true, "--s": true,
	"-method": true, "--method": true,
	"-namespace-prefix": true, "--namespace-prefix": true,
	"-log-level": true, "--log-level": true,
	"-max-file-size": true, "--max-file-size": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
