// Package ranking selects and filters the rows of a run report.
package ranking

import (
	"sort"
	"strings"

	"github.com/phobologic/logtranslator/internal/model"
)

// activity orders files for selection: failures first so they are never
// hidden, then by the number of rewritten call sites and guards.
func activity(f *model.FileReport) int {
	if f.Status == model.StatusFailed {
		return int(^uint(0) >> 1)
	}
	return f.Logs + f.Guards
}

// SelectFiles returns a new Report with only the maxFiles most active files,
// their events, and the ancestry edges leaving them. Stats are kept whole.
// If maxFiles is <= 0 or >= len(files), the report is returned unchanged.
func SelectFiles(r *model.Report, maxFiles int) *model.Report {
	if maxFiles <= 0 || maxFiles >= len(r.Files) {
		return r
	}

	ranked := make([]model.FileReport, len(r.Files))
	copy(ranked, r.Files)
	sort.SliceStable(ranked, func(i, j int) bool {
		return activity(&ranked[i]) > activity(&ranked[j])
	})

	selected := ranked[:maxFiles]
	selectedPaths := make(map[string]struct{}, maxFiles)
	for i := range selected {
		selectedPaths[selected[i].Path] = struct{}{}
	}
	return subset(r, selected, selectedPaths)
}

// FilterByFile returns a new Report containing only files whose path
// contains substr (case-insensitive), with their events and the ancestry
// edges leaving them.
func FilterByFile(r *model.Report, substr string) *model.Report {
	lower := strings.ToLower(substr)

	matched := make(map[string]struct{})
	var files []model.FileReport
	for i := range r.Files {
		if strings.Contains(strings.ToLower(r.Files[i].Path), lower) {
			matched[r.Files[i].Path] = struct{}{}
			files = append(files, r.Files[i])
		}
	}
	return subset(r, files, matched)
}

// FilterByMethod returns a new Report containing only events whose generated
// method name contains substr (case-insensitive), and the files that emit them.
func FilterByMethod(r *model.Report, substr string) *model.Report {
	lower := strings.ToLower(substr)

	matched := make(map[string]struct{})
	var events []model.Event
	for i := range r.Events {
		e := &r.Events[i]
		if strings.Contains(strings.ToLower(e.Method), lower) {
			matched[e.File] = struct{}{}
			events = append(events, *e)
		}
	}

	var files []model.FileReport
	for i := range r.Files {
		if _, ok := matched[r.Files[i].Path]; ok {
			files = append(files, r.Files[i])
		}
	}

	out := subset(r, files, matched)
	out.Events = events
	return out
}

func subset(r *model.Report, files []model.FileReport, paths map[string]struct{}) *model.Report {
	var events []model.Event
	for i := range r.Events {
		if _, ok := paths[r.Events[i].File]; ok {
			events = append(events, r.Events[i])
		}
	}

	var ancestors []model.Dependency
	for i := range r.Ancestors {
		if _, ok := paths[r.Ancestors[i].Source]; ok {
			ancestors = append(ancestors, r.Ancestors[i])
		}
	}

	return &model.Report{
		Root:      r.Root,
		Stats:     r.Stats,
		Files:     files,
		Events:    events,
		Ancestors: ancestors,
	}
}
