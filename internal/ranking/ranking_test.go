package ranking

import (
	"testing"

	"github.com/phobologic/logtranslator/internal/model"
)

func makeReport() *model.Report {
	return &model.Report{
		Root:  "test",
		Stats: model.Stats{FilesProcessed: 4, CallSitesRewritten: 5},
		Files: []model.FileReport{
			{Path: "a/A.java", Logs: 1, Status: model.StatusRewritten},
			{Path: "b/B.java", Logs: 3, Guards: 1, Status: model.StatusRewritten},
			{Path: "c/C.java", Status: model.StatusFailed},
			{Path: "d/D.java", Status: model.StatusUnchanged},
		},
		Events: []model.Event{
			{File: "a/A.java", Line: 4, Method: "started", Level: "info"},
			{File: "b/B.java", Line: 8, Method: "got_items", Level: "debug"},
			{File: "b/B.java", Line: 9, Method: "connection_failed", Level: "error"},
			{File: "b/B.java", Line: 12, Method: "stopped", Level: "info"},
		},
		Ancestors: []model.Dependency{
			{Source: "a/A.java", Target: "base/Base.java"},
			{Source: "b/B.java", Target: "a/A.java"},
		},
	}
}

func TestSelectFilesAll(t *testing.T) {
	t.Parallel()

	r := makeReport()
	if got := SelectFiles(r, 0); got != r {
		t.Error("maxFiles=0 should return original")
	}
	if got := SelectFiles(r, 5); got != r {
		t.Error("maxFiles > len should return original")
	}
	if got := SelectFiles(r, 4); got != r {
		t.Error("maxFiles == len should return original")
	}
}

func TestSelectFilesSubset(t *testing.T) {
	t.Parallel()

	r := makeReport()
	got := SelectFiles(r, 2)

	if len(got.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(got.Files))
	}
	if got.Files[0].Path != "c/C.java" || got.Files[1].Path != "b/B.java" {
		t.Errorf("expected c/C.java, b/B.java; got %s, %s", got.Files[0].Path, got.Files[1].Path)
	}
	if len(got.Events) != 3 {
		t.Errorf("expected 3 events, got %d", len(got.Events))
	}
	if len(got.Ancestors) != 1 || got.Ancestors[0].Source != "b/B.java" {
		t.Errorf("unexpected ancestors: %+v", got.Ancestors)
	}
	if got.Stats != r.Stats {
		t.Errorf("stats changed: %+v", got.Stats)
	}
	if r.Files[0].Path != "a/A.java" {
		t.Error("input report was reordered")
	}
}

func TestSelectFilesStableTies(t *testing.T) {
	t.Parallel()

	r := makeReport()
	r.Files[0].Logs = 4
	got := SelectFiles(r, 3)

	want := []string{"c/C.java", "a/A.java", "b/B.java"}
	for i, p := range want {
		if got.Files[i].Path != p {
			t.Errorf("file %d: got %s, want %s", i, got.Files[i].Path, p)
		}
	}
}

func TestFilterByFile(t *testing.T) {
	t.Parallel()

	got := FilterByFile(makeReport(), "A.JAVA")

	if len(got.Files) != 1 || got.Files[0].Path != "a/A.java" {
		t.Fatalf("unexpected files: %+v", got.Files)
	}
	if len(got.Events) != 1 || got.Events[0].Method != "started" {
		t.Errorf("unexpected events: %+v", got.Events)
	}
	if len(got.Ancestors) != 1 || got.Ancestors[0].Target != "base/Base.java" {
		t.Errorf("unexpected ancestors: %+v", got.Ancestors)
	}
}

func TestFilterByMethod(t *testing.T) {
	t.Parallel()

	got := FilterByMethod(makeReport(), "fail")

	if len(got.Events) != 1 || got.Events[0].Method != "connection_failed" {
		t.Fatalf("unexpected events: %+v", got.Events)
	}
	if len(got.Files) != 1 || got.Files[0].Path != "b/B.java" {
		t.Errorf("unexpected files: %+v", got.Files)
	}
	if len(got.Ancestors) != 1 || got.Ancestors[0].Target != "a/A.java" {
		t.Errorf("unexpected ancestors: %+v", got.Ancestors)
	}
}

func TestFilterNoMatch(t *testing.T) {
	t.Parallel()

	got := FilterByFile(makeReport(), "nothing")
	if len(got.Files) != 0 || len(got.Events) != 0 || len(got.Ancestors) != 0 {
		t.Errorf("expected empty report, got %+v", got)
	}
}
