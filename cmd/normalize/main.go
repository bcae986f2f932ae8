// Command normalize repairs a project document and prints the normalized
// JSON. Repairs are listed on stderr. With -check nothing is printed on
// stdout and a document that needed repairs exits with status 2.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/scene-engine/pkg/normalize"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitRepairs = 2
)

var validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("normalize", flag.ContinueOnError)
	fs.SetOutput(stderr)
	check := fs.Bool("check", false, "report repairs without printing the normalized project")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: normalize [-check] <project.json|project.yaml>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitFailure
	}

	filename := fs.Arg(0)
	report, out, err := normalizeFile(filename)
	if err != nil {
		fmt.Fprintf(stderr, "Normalization failed: %v\n", err)
		return exitFailure
	}

	for _, w := range filenameWarnings(filename) {
		fmt.Fprintf(stderr, "warning: %s\n", w)
	}
	for _, r := range report.Repairs {
		fmt.Fprintf(stderr, "  - %s\n", r)
	}

	if *check {
		if !report.Clean() {
			fmt.Fprintf(stderr, "%s needed %d repairs\n", filename, len(report.Repairs))
			return exitRepairs
		}
		fmt.Fprintf(stdout, "%s is already normalized\n", filename)
		return exitOK
	}

	if _, err := stdout.Write(append(out, '\n')); err != nil {
		fmt.Fprintf(stderr, "Failed to write output: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func normalizeFile(filename string) (normalize.Report, []byte, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return normalize.Report{}, nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var raw any
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		raw, err = normalize.ParseJSON(data)
	case ".yaml", ".yml":
		raw, err = normalize.ParseYAML(data)
	default:
		return normalize.Report{}, nil, fmt.Errorf("project file must have a .json, .yaml or .yml extension: %s", filepath.Base(filename))
	}
	if err != nil {
		return normalize.Report{}, nil, err
	}

	p, report := normalize.NormalizeWithReport(raw)
	out, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return report, nil, fmt.Errorf("failed to encode project: %w", err)
	}
	return report, out, nil
}

// filenameWarnings flags names the project listing would show awkwardly.
func filenameWarnings(filename string) []string {
	base := filepath.Base(filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if validFilenameRegex.MatchString(name) {
		return nil
	}
	return []string{fmt.Sprintf("project filename '%s' should be lowercase snake_case (e.g., my_project.json)", base)}
}
