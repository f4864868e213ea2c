// Package synth derives generated method names, formatting markers and
// replacement call text for recognised log calls.
package synth

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/phobologic/logtranslator/internal/config"
	"github.com/phobologic/logtranslator/internal/model"
)

var (
	escapeRe    = regexp.MustCompile(`\\[btnfr"'\\]|\\u[0-9a-fA-F]{4}`)
	digitsRe    = regexp.MustCompile(`\d+`)
	specifierRe = regexp.MustCompile(`%\w`)
	nonWordRe   = regexp.MustCompile(`\W`)
	spacesRe    = regexp.MustCompile(`\s+`)

	printfRe = regexp.MustCompile(`%(\d+\$)?[-#+ 0,(]*\d*(\.\d+)?[sSdfxXeEgGcCbBhHoaA]`)
	indexRe  = regexp.MustCompile(`\{\d+\}`)
)

// Culture normalizes message text for use in a method name: escape
// sequences, digits and single-character format specifiers are removed,
// other non-word characters become single spaces, and the result is lower-cased.
func Culture(s string) string {
	s = escapeRe.ReplaceAllString(s, "")
	s = digitsRe.ReplaceAllString(s, "")
	s = specifierRe.ReplaceAllString(s, "")
	s = nonWordRe.ReplaceAllString(s, " ")
	s = spacesRe.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// DisplayName turns expression text into an identifier-like name: quotes and
// empty brackets are dropped, brackets with content become underscores,
// commas become "AND", and each dot is removed with the following letter
// upper-cased. "conf.get(KEY)" becomes "confGet_KEY".
func DisplayName(text string) string {
	text = strings.ReplaceAll(text, `"`, "")

	text = strings.ReplaceAll(text, "[]", "")
	text = strings.NewReplacer("[", "_", "]", "_").Replace(text)
	text = strings.ReplaceAll(text, "__", "")

	text = strings.ReplaceAll(text, "()", "")
	text = strings.NewReplacer("(", "_", ")", "_").Replace(text)
	text = strings.ReplaceAll(text, "__", "")

	text = strings.NewReplacer("<", "", ">", "").Replace(text)

	text = strings.TrimSuffix(text, "_")
	text = strings.TrimPrefix(text, "_")
	text = strings.ReplaceAll(text, ",", "AND")

	var b strings.Builder
	upper := false
	for _, r := range text {
		if r == '.' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// StringCast wraps expr in an explicit string conversion unless it already is one.
func StringCast(expr string) string {
	if IsConverted(expr) {
		return expr
	}
	return "String.valueOf(" + expr + ")"
}

// IsConverted reports whether expr already evaluates through a string conversion.
func IsConverted(expr string) bool {
	return strings.HasSuffix(expr, ".toString") ||
		strings.HasSuffix(expr, ".toString()") ||
		(strings.HasPrefix(expr, "String.valueOf(") && strings.HasSuffix(expr, ")"))
}

// UpperFirst upper-cases the first rune of s.
func UpperFirst(s string) string {
	for i, r := range s {
		return string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}

// LowerFirst lower-cases the first rune of s.
func LowerFirst(s string) string {
	for i, r := range s {
		return string(unicode.ToLower(r)) + s[i+len(string(r)):]
	}
	return s
}

// JoinComments merges a log's comment fragments into one, dropping empty ones.
func JoinComments(log *model.Log) {
	var parts []string
	for _, c := range log.Comments {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		log.Comments = nil
		return
	}
	log.Comments = []string{strings.Join(parts, " ")}
}

// MethodName generates the name of the structured event method for log.
// isKeyword reports reserved words of the input language.
func MethodName(log *model.Log, cfg *config.TranslateConfig, isKeyword func(string) bool) string {
	if len(log.Comments) == 0 {
		var joined strings.Builder
		for _, v := range log.Variables {
			joined.WriteString(v.DisplayName())
		}
		name := strings.ReplaceAll(Culture(joined.String()), " ", "_")
		name = truncate(name, cfg.MaxGeneratedNameLength)
		if name == "" {
			return cfg.EmptyLogPlaceholderName
		}
		return name
	}

	var words []string
collect:
	for _, comment := range log.Comments {
		for _, token := range strings.Fields(comment) {
			for _, word := range strings.Fields(Culture(token)) {
				if len(word) <= 2 || cfg.IsBanned(word) {
					continue
				}
				words = append(words, word)
				if len(words) >= cfg.MaxGeneratedWordCount {
					break collect
				}
			}
		}
	}

	name := truncate(strings.Join(words, "_"), cfg.MaxGeneratedNameLength)
	if name == "" || (isKeyword != nil && isKeyword(name)) {
		return cfg.EmptyLogPlaceholderName
	}
	return name
}

func truncate(name string, max int) string {
	if max > 0 && len(name) > max {
		name = name[:max]
	}
	return strings.Trim(name, "_")
}

// DetectMarker inspects a call's argument texts for a formatting idiom.
func DetectMarker(args []string) model.Marker {
	if len(args) == 0 {
		return model.NoMarker
	}
	all := strings.Join(args, ",")
	switch {
	case strings.Contains(all, "{}"):
		return model.BraceMarker
	case strings.Contains(all, "MessageFormatter.format"),
		strings.Contains(all, "MessageFormat.format"),
		indexRe.MatchString(all):
		return model.IndexMarker
	case printfRe.MatchString(args[0]),
		strings.Contains(all, "String.format"),
		strings.Contains(all, "Formatter.format"):
		return model.PercentMarker
	}
	return model.NoMarker
}

// FormattedArgument reports whether the i-th top-level argument takes part
// in format substitution once a marker has been detected.
func FormattedArgument(marker model.Marker, i int, text string) bool {
	if marker == model.NoMarker {
		return false
	}
	return i != 0 || strings.Contains(text, "String.format")
}

// Argument renders v as it is passed to the structured event method. A type
// outside the allow-list gets a ".toString()" suffix unless its emitted text
// is already converted, as String.valueOf(...) substitutions are.
func Argument(v *model.Variable, cfg *config.TranslateConfig) string {
	emit := v.EmitName()
	if !cfg.IsAllowedType(baseType(v.Type)) && !IsConverted(emit) {
		emit += ".toString()"
	}
	return emit
}

func baseType(t string) string {
	if i := strings.LastIndex(t, "."); i >= 0 && !strings.ContainsAny(t, "<[") {
		return t[i+1:]
	}
	return t
}

// Replacement renders the structured call for log on loggerVar.
func Replacement(loggerVar string, log *model.Log, cfg *config.TranslateConfig) string {
	args := make([]string, len(log.Variables))
	for i, v := range log.Variables {
		args[i] = Argument(v, cfg)
	}

	var tags strings.Builder
	for _, t := range log.Tags {
		tags.WriteString(`.tag("`)
		tags.WriteString(t)
		tags.WriteString(`")`)
	}

	var b strings.Builder
	b.WriteString(loggerVar)
	b.WriteByte('.')
	b.WriteString(log.MethodName)
	b.WriteByte('(')
	b.WriteString(strings.Join(args, ", "))
	b.WriteByte(')')
	b.WriteString(tags.String())
	b.WriteByte('.')
	b.WriteString(log.Level)
	b.WriteString("()")
	return b.String()
}

// Synthesize fills in the generated method name and replacement text of log.
func Synthesize(log *model.Log, loggerVar string, cfg *config.TranslateConfig, isKeyword func(string) bool) {
	JoinComments(log)
	log.MethodName = MethodName(log, cfg, isKeyword)
	log.Replacement = Replacement(loggerVar, log, cfg)
}
