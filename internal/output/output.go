// Package output formats duplicate-search results for the terminal or
// as JSON, and decorates progress logging only when talking to an
// interactive terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether w is an interactive terminal, used to
// decide whether progress logging should include carriage-return
// decoration.
func IsTerminal(w *os.File) bool {
	return isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd())
}

// Result is the top-level JSON/text payload: every duplicate group
// found, plus (in --search-unique mode) paths that matched nothing.
type Result struct {
	Groups []GroupView `json:"groups"`
	Unique []string    `json:"unique,omitempty"`
}

// GroupView is the serializable form of a matchgroup.Group.
type GroupView struct {
	Reference  string   `json:"reference,omitempty"`
	Duplicates []string `json:"duplicates"`

	// LikelyLowerQuality names the duplicate(s), among a no-reference
	// group, suspected to be lower-quality re-encodes: every member
	// except the one whose probe.PNGSize filmstrip is largest.
	// Informational only.
	LikelyLowerQuality []string `json:"likely_lower_quality,omitempty"`
}

// WriteJSON writes r to w as indented JSON.
func WriteJSON(w io.Writer, r Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText writes r to w in the plain human-readable format: one
// blank-line-separated block per group, reference (if any) first.
func WriteText(w io.Writer, r Result) {
	for _, g := range r.Groups {
		if g.Reference != "" {
			fmt.Fprintf(w, "reference: %s\n", g.Reference)
		}
		for _, d := range g.Duplicates {
			fmt.Fprintf(w, "  %s\n", d)
		}
		fmt.Fprintln(w)
	}
	if len(r.Unique) > 0 {
		fmt.Fprintln(w, "unique:")
		for _, u := range r.Unique {
			fmt.Fprintf(w, "  %s\n", u)
		}
	}
}

// HumanizeBytes renders a byte count as a short human string (e.g.
// "4.2 MB"), used in --verbose summary logging.
func HumanizeBytes(n int64) string {
	return humanize.Bytes(uint64(n))
}

// HumanizeDuration renders seconds as a short human string, e.g. "3m4s".
func HumanizeDuration(secs float64) string {
	return time.Duration(secs * float64(time.Second)).String()
}
