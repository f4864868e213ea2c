// Package toon encodes the run report in TOON (Token-Oriented Object Notation).
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/logtranslator/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a run Report into TOON format.
func Encode(r *model.Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(r.Root)))
	parts = append(parts, formatObject("summary", [][2]string{
		{"files_processed", strconv.Itoa(r.Stats.FilesProcessed)},
		{"call_sites_rewritten", strconv.Itoa(r.Stats.CallSitesRewritten)},
		{"ancestor_only_files", strconv.Itoa(r.Stats.AncestorOnlyFiles)},
		{"guards_rewritten", strconv.Itoa(r.Stats.GuardsRewritten)},
		{"failed_files", strconv.Itoa(r.Stats.FailedFiles)},
	}))

	var fileRows [][]string
	for i := range r.Files {
		f := &r.Files[i]
		fileRows = append(fileRows, []string{
			f.Path,
			strconv.Itoa(f.Logs),
			strconv.Itoa(f.Guards),
			string(f.Status),
		})
	}
	parts = append(parts, formatTabular("files", []string{"path", "logs", "guards", "status"}, fileRows))

	var eventRows [][]string
	for i := range r.Events {
		e := &r.Events[i]
		eventRows = append(eventRows, []string{
			e.File,
			strconv.Itoa(e.Line),
			e.Method,
			e.Level,
			strings.Join(e.Variables, " "),
		})
	}
	parts = append(parts, formatTabular("events", []string{"file", "line", "method", "level", "variables"}, eventRows))

	var ancestorRows [][]string
	for i := range r.Ancestors {
		d := &r.Ancestors[i]
		ancestorRows = append(ancestorRows, []string{d.Source, d.Target})
	}
	parts = append(parts, formatTabular("ancestors", []string{"source", "target"}, ancestorRows))

	return strings.Join(parts, "\n")
}

func formatObject(name string, fields [][2]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:", name)
	for _, f := range fields {
		fmt.Fprintf(&b, "\n  %s: %s", f[0], encodeValue(f[1]))
	}
	return b.String()
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
