// Package config resolves the program's CLI configuration: parsing
// flags, optionally indirecting through an --args-file, and stamping
// each run with a correlation ID for log lines.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	shellquote "github.com/kballard/go-shellquote"
)

// Config is the fully-resolved set of CLI options for one run.
type Config struct {
	RunID string

	Files          []string
	WithRefs       []string
	Exclude        []string
	ExcludeExts    []string
	CacheFile      string
	NoUpdateCache  bool
	UpdateCacheOnly bool
	Tolerance      float64
	SearchUnique   bool
	JSONOutput     bool
	ThumbnailsDir  string
	Quiet          bool
	Verbose        bool
}

// New returns a Config with a fresh run ID and the program's defaults;
// callers populate the rest from flag.Parse results.
func New() *Config {
	return &Config{RunID: uuid.NewString(), Tolerance: 0.05}
}

// ExpandArgsFile reads path and returns its shell-tokenized arguments,
// one flag/value pair per logical token, with '#'-prefixed lines
// treated as comments and blank lines skipped. Used to implement
// --args-file, letting a long invocation live in a file instead of on
// one command line.
func ExpandArgsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open args file %s: %w", path, err)
	}
	defer f.Close()

	var args []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens, err := shellquote.Split(line)
		if err != nil {
			return nil, fmt.Errorf("config: parse args file %s: %w", path, err)
		}
		args = append(args, tokens...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("config: read args file %s: %w", path, err)
	}
	return args, nil
}

// DefaultCacheDir returns the per-user cache directory this program
// uses by default, playing the same role as the reference
// implementation's directories_next::ProjectDirs lookup.
func DefaultCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve user cache dir: %w", err)
	}
	return dir + "/vid-dup-finder", nil
}

// SplitCSV splits a comma-separated flag value into trimmed,
// non-empty fields.
func SplitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
