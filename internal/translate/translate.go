// Package translate drives the migration. It walks each Java file's syntax
// tree once, feeds declarations to the file's symbol table and rewrites
// logging imports, logger fields, level guards and log calls.
package translate

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/ternarybob/arbor"

	"github.com/phobologic/logtranslator/internal/config"
	"github.com/phobologic/logtranslator/internal/framework"
	"github.com/phobologic/logtranslator/internal/lang"
	"github.com/phobologic/logtranslator/internal/model"
	"github.com/phobologic/logtranslator/internal/parse"
	"github.com/phobologic/logtranslator/internal/resolve"
	"github.com/phobologic/logtranslator/internal/symtab"
)

// Options tune a Translator.
type Options struct {
	// Sources holds preloaded file contents keyed by relative path. Paths
	// missing from it are read from disk under the registry root.
	Sources map[string][]byte
}

// Translator analyzes and rewrites the files of one run. It is not safe for
// concurrent use; nested analyses of ancestor files run on the caller's stack.
type Translator struct {
	cfg       *config.Config
	catalogue *framework.Catalogue
	reg       *symtab.Registry
	resolver  *resolve.Resolver
	lang      *lang.Language
	parser    *sitter.Parser
	query     *sitter.Query
	sources   map[string][]byte
	logger    arbor.ILogger
}

// New returns a Translator over the files known to reg.
func New(cfg *config.Config, catalogue *framework.Catalogue, reg *symtab.Registry, opts Options, logger arbor.ILogger) (*Translator, error) {
	l := lang.Java()
	q, err := l.GetMethodQuery()
	if err != nil {
		return nil, fmt.Errorf("loading method query: %w", err)
	}
	t := &Translator{
		cfg:       cfg,
		catalogue: catalogue,
		reg:       reg,
		lang:      l,
		parser:    l.NewParser(),
		query:     q,
		sources:   opts.Sources,
		logger:    logger,
	}
	t.resolver = resolve.New(reg, t, cfg.Translate.ApplicationNamespacePrefix, logger)
	return t, nil
}

// Run translates paths as primary files, in order. A failing file halts the
// batch unless skip_failed_files is set, in which case it is reported as
// failed and left unwritten.
func (t *Translator) Run(ctx context.Context, paths []string) error {
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := t.reg.Promote(p)
		if f.Finished() {
			continue
		}
		if err := t.Analyze(ctx, f); err != nil {
			f.Status = model.StatusFailed
			t.reg.Stats.FailedFiles++
			if !t.cfg.Translate.SkipFailedFiles {
				return err
			}
			t.logger.Warn().Err(err).Str("file", p).Msg("skipping failed file")
		}
	}

	s := t.reg.Stats
	t.logger.Info().
		Int("files", s.FilesProcessed).
		Int("call_sites", s.CallSitesRewritten).
		Int("ancestor_only", s.AncestorOnlyFiles).
		Int("guards", s.GuardsRewritten).
		Int("failed", s.FailedFiles).
		Msg("translation finished")
	return nil
}

// Analyze traverses f once. Primary files get their edits applied to
// f.Output; other files only contribute symbols. A file already on the
// analysis stack is skipped, which breaks ancestor cycles.
func (t *Translator) Analyze(ctx context.Context, f *symtab.File) error {
	if !t.reg.Graph.Enter(f.Path) {
		return nil
	}
	defer t.reg.Graph.Leave(f.Path)

	src, err := t.read(f.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", f.Path, err)
	}
	f.Reset()
	f.Source = src

	t.logger.Debug().Str("file", f.Path).Bool("primary", f.Primary).Msg("analyzing")

	w := newWalker(t, f)
	if len(src) > 0 {
		tree, err := parse.File(ctx, t.parser, src)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Path, err)
		}
		defer tree.Close()

		root := tree.RootNode()
		f.Methods = parse.Methods(t.query, root, src)
		if err := w.walk(ctx, root); err != nil {
			return err
		}
	}

	out, err := w.edits.Apply(src)
	if err != nil {
		return fmt.Errorf("%s: %w", f.Path, err)
	}
	f.Output = out
	f.Changed = !bytes.Equal(out, src)
	f.Status = model.StatusUnchanged
	if f.Changed {
		f.Status = model.StatusRewritten
	}
	f.MarkFinished()
	t.reg.Stats.FilesProcessed++
	t.logger.Debug().
		Str("file", f.Path).
		Str("status", string(f.Status)).
		Strs("ancestors", t.reg.Graph.Ancestors(f.Path)).
		Msg("analysis finished")
	return nil
}

func (t *Translator) read(path string) ([]byte, error) {
	if src, ok := t.sources[path]; ok {
		return src, nil
	}
	return os.ReadFile(filepath.Join(t.reg.Root, filepath.FromSlash(path)))
}

// Report summarizes the run so far.
func (t *Translator) Report() *model.Report {
	r := &model.Report{
		Root:      t.reg.Root,
		Stats:     t.reg.Stats,
		Ancestors: t.reg.Graph.Edges(),
	}
	for _, f := range t.reg.Files() {
		if !f.Primary || f.Status == "" {
			continue
		}
		r.Files = append(r.Files, model.FileReport{
			Path:   f.Path,
			Logs:   len(f.Logs),
			Guards: f.Guards,
			Status: f.Status,
		})
		for _, l := range f.Logs {
			vars := make([]string, len(l.Variables))
			for i, v := range l.Variables {
				vars[i] = v.Name
			}
			r.Events = append(r.Events, model.Event{
				File:      f.Path,
				Line:      l.Pos.Line,
				Method:    l.MethodName,
				Level:     l.Level,
				Variables: vars,
			})
		}
	}
	return r
}

// Write stores translated primary files under dir, mirroring their relative
// paths, and returns how many it wrote. With changedOnly set, files the run
// left unchanged are skipped. Failed files are never written.
func (t *Translator) Write(dir string, changedOnly bool) (int, error) {
	n := 0
	for _, f := range t.reg.Files() {
		if !f.Primary || f.Status == "" || f.Status == model.StatusFailed {
			continue
		}
		if changedOnly && !f.Changed {
			continue
		}
		dst := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return n, fmt.Errorf("creating output directory: %w", err)
		}
		if err := os.WriteFile(dst, f.Output, 0o644); err != nil {
			return n, fmt.Errorf("writing %s: %w", dst, err)
		}
		n++
	}
	return n, nil
}
