package probe

import (
	"fmt"
	"os"

	gomp4 "github.com/abema/go-mp4"
)

// probeWithMP4Box reads container-level metadata directly from the MP4
// box tree, for use when ffprobe is missing from PATH. Adapted from the
// teacher's MP4 track enumeration; grounded on abema/go-mp4's Probe API.
func probeWithMP4Box(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("probe: open %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return Metadata{}, err
	}

	info, err := gomp4.Probe(f)
	if err != nil {
		return Metadata{}, fmt.Errorf("mp4 probe: %w", err)
	}

	md := Metadata{SizeBytes: st.Size()}

	var videoTrack, audioTrack *gomp4.Track
	for _, t := range info.Tracks {
		switch {
		case t.Codec == gomp4.CodecAVC1 && videoTrack == nil:
			videoTrack = t
		case t.Codec != gomp4.CodecAVC1 && isAudioTimescale(t.Timescale) && audioTrack == nil:
			audioTrack = t
		}
	}

	if videoTrack != nil {
		md.Width = int(videoTrack.Width)
		md.Height = int(videoTrack.Height)
		if videoTrack.Timescale > 0 {
			md.DurationSecs = float64(trackDuration(videoTrack)) / float64(videoTrack.Timescale)
		}
	}
	if audioTrack != nil {
		md.HasAudio = true
		if md.DurationSecs == 0 && audioTrack.Timescale > 0 {
			md.DurationSecs = float64(trackDuration(audioTrack)) / float64(audioTrack.Timescale)
		}
	}

	return md, nil
}

// isAudioTimescale reports whether a track timescale is a common audio
// sample rate. 12000 and 24000 are left out because they are also
// common video timescales.
func isAudioTimescale(ts uint32) bool {
	switch ts {
	case 8000, 11025, 16000, 22050, 32000, 44100, 48000, 88200, 96000:
		return true
	}
	return false
}

func trackDuration(t *gomp4.Track) uint64 {
	var total uint64
	for _, s := range t.Samples {
		total += uint64(s.TimeDelta)
	}
	return total
}
