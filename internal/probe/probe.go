// Package probe extracts lightweight video metadata (duration, size,
// bit rate, resolution, audio presence) used to corroborate fingerprint
// matches by independent evidence.
package probe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"os/exec"
	"strconv"

	"github.com/Farmadupe/vid-dup-finder/internal/frames"
)

// ErrProbeUnavailable is returned when neither ffprobe nor the pure-Go
// MP4 fallback could read the file.
var ErrProbeUnavailable = errors.New("probe: unable to read video metadata")

// Metadata holds the subset of a video's properties used for
// duration-based affirmation and reporting.
type Metadata struct {
	DurationSecs float64
	SizeBytes    int64
	BitRate      int64
	Width        int
	Height       int
	HasAudio     bool

	// AudioCorroborated records whether a partial decode of the audio
	// track actually produced signal, beyond the container merely
	// listing an audio stream. Additive: does not change HasAudio.
	AudioCorroborated bool
}

// IsMatch reports whether two durations are close enough (+/-5%) to be
// independent corroborating evidence of the same underlying video.
func (m Metadata) IsMatch(other Metadata) bool {
	if m.DurationSecs <= 0 || other.DurationSecs <= 0 {
		return false
	}
	ratio := m.DurationSecs / other.DurationSecs
	return ratio >= 0.95 && ratio <= 1.05
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
	Size     string `json:"size"`
	BitRate  string `json:"bit_rate"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

// Probe reads metadata for the video at path, preferring ffprobe and
// falling back to a pure-Go MP4 box walk when ffprobe is unavailable
// or fails on the file. On either path, a best-effort decode of an MP4
// audio track sets AudioCorroborated.
func Probe(path string) (Metadata, error) {
	if _, err := exec.LookPath("ffprobe"); err == nil {
		if md, err := probeWithFfprobe(path); err == nil {
			if !md.AudioCorroborated {
				md.AudioCorroborated = corroborateAudio(path)
			}
			return md, nil
		}
	}

	md, err := probeWithMP4Box(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrProbeUnavailable, err)
	}
	md.AudioCorroborated = corroborateAudio(path)
	return md, nil
}

func probeWithFfprobe(path string) (Metadata, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_format", "-show_streams",
		"-print_format", "json",
		path,
	)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return Metadata{}, err
	}

	var out ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return Metadata{}, err
	}

	md := Metadata{
		DurationSecs: parseFloat(out.Format.Duration),
		SizeBytes:    parseInt(out.Format.Size),
		BitRate:      parseInt(out.Format.BitRate),
	}
	for _, s := range out.Streams {
		if s.CodecType == "video" && md.Width == 0 {
			md.Width, md.Height = s.Width, s.Height
		}
		if s.CodecType == "audio" {
			md.HasAudio = true
		}
	}
	return md, nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

// PNGSize renders a compact filmstrip (hashNumImages frames stitched
// horizontally) and returns its PNG-encoded byte length, used as a
// cheap quality proxy between two candidate duplicates. Degrades to 0
// on any sampling failure, matching the reference behavior.
func PNGSize(path string) int {
	imgs, err := frames.Sample(path)
	if err != nil || len(imgs) == 0 {
		return 0
	}

	w, h := imgs[0].Bounds().Dx(), imgs[0].Bounds().Dy()
	strip := newStrip(w*len(imgs), h)
	for i, img := range imgs {
		drawAt(strip, img, i*w, 0)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, strip); err != nil {
		return 0
	}
	return buf.Len()
}
