// Package apperr defines the small set of CLI-level error values that
// main.go maps to fatal/non-fatal exit behavior. Package-owned errors
// (videocache, frames, fileset, probe) are returned and wrapped
// normally; these are specifically the errors that can only be
// detected at the orchestration layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrArgsFileNotFound is returned when --args-file names a file
	// that does not exist.
	ErrArgsFileNotFound = errors.New("apperr: args file not found")
	// ErrParseTolerance is returned when --tolerance cannot be parsed
	// as a float in [0,1].
	ErrParseTolerance = errors.New("apperr: tolerance must be a number between 0 and 1")
	// ErrPathInFilesAndRefs is returned when the same root is given to
	// both --files and --with-refs.
	ErrPathInFilesAndRefs = errors.New("apperr: a path cannot be given to both --files and --with-refs")
)

// PathNotFoundError reports that a --files/--with-refs/--exclude root
// does not exist on disk.
type PathNotFoundError struct {
	Flag string
	Path string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("apperr: %s path does not exist: %s", e.Flag, e.Path)
}

// DecoderNotFoundError is returned when ffmpeg/ffprobe cannot be found
// on PATH, with install instructions tailored to common platforms.
type DecoderNotFoundError struct {
	Binary string
}

func (e *DecoderNotFoundError) Error() string {
	instructions := map[string]string{
		"linux (Debian/Ubuntu)": "sudo apt-get install ffmpeg",
		"linux (Fedora/RHEL)":   "sudo dnf install ffmpeg",
		"windows":               "download a build from https://ffmpeg.org/download.html and add it to PATH",
		"darwin":                "brew install ffmpeg",
	}

	return fmt.Sprintf(
		"apperr: %s not found on PATH.\nInstall it and try again:\n  Debian/Ubuntu: %s\n  Fedora/RHEL:   %s\n  macOS:         %s\n  Windows:       %s",
		e.Binary,
		instructions["linux (Debian/Ubuntu)"],
		instructions["linux (Fedora/RHEL)"],
		instructions["darwin"],
		instructions["windows"],
	)
}
