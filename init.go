package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/phobologic/logtranslator/internal/config"
)

const configHeader = `# logtranslator configuration.
# Rerun "logtranslator init" to add settings introduced by newer versions;
# values already set in this file are kept.
`

// runInit implements the `logtranslator init` subcommand, which writes (or
// updates) a logtranslator.toml holding every setting.
func runInit(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("logtranslator init", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var dryRun bool
	fs.BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: logtranslator init [flags] [path-to-config]

Write a logtranslator configuration file listing every setting with its
default. An existing file is updated in place: its values are kept and
missing settings are added.

path-to-config defaults to ./%s.

Flags:
`, config.DefaultFileName)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	// --dry-run with no path: just print the defaults.
	if dryRun && fs.NArg() == 0 {
		content, err := renderConfig(nil)
		if err != nil {
			return err
		}
		_, _ = stdout.Write(content)
		return nil
	}

	path := config.DefaultFileName
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	content, err := renderConfig(existing)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if dryRun {
		_, _ = stdout.Write(content)
		return nil
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote logtranslator config to %s\n", path)
	return nil
}

// renderConfig returns the file content for a configuration overlaid from
// existing, or the defaults when existing is empty. It is a pure function for
// easy testing.
func renderConfig(existing []byte) ([]byte, error) {
	cfg := config.Default()
	if len(existing) > 0 {
		var err error
		if cfg, err = config.Decode(existing); err != nil {
			return nil, err
		}
	}
	body, err := cfg.Encode()
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return append([]byte(configHeader+"\n"), body...), nil
}
