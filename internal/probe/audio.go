package probe

import (
	"io"
	"os"

	gomp4 "github.com/abema/go-mp4"
	concentus "github.com/lostromb/concentus/go/opus"
	aacdecoder "github.com/skrashevich/go-aac/pkg/decoder"
)

// corroborateAudio decodes a handful of frames from path's audio track
// and reports whether they carry actual signal, rather than trusting
// the container's stream list alone. Any failure degrades to false;
// this is corroborating evidence, never required for correctness.
// Adapted from the teacher's BPM-extraction pipeline, repurposed here
// to check for presence of sound instead of its tempo.
func corroborateAudio(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := gomp4.Probe(f)
	if err != nil {
		return false
	}

	codec := detectAudioCodec(f)
	track := findAudioTrack(info, codec)
	if track == nil {
		return false
	}

	const probeFrames = 8
	samples := buildSampleLocations(track, probeFrames)
	if len(samples) == 0 {
		return false
	}

	var pcm []float32
	switch codec {
	case codecAAC:
		pcm = decodeAACProbe(f, track, samples)
	case codecOpus:
		pcm = decodeOpusProbe(f, samples)
	default:
		return false
	}

	return hasSignal(pcm)
}

func hasSignal(pcm []float32) bool {
	if len(pcm) == 0 {
		return false
	}
	var sum float64
	for _, s := range pcm {
		sum += float64(s) * float64(s)
	}
	return sum/float64(len(pcm)) > 1e-8
}

type audioCodec int

const (
	codecUnknown audioCodec = iota
	codecAAC
	codecOpus
)

func detectAudioCodec(rs io.ReadSeeker) audioCodec {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return codecUnknown
	}
	codec := codecUnknown
	_, _ = gomp4.ReadBoxStructure(rs, func(h *gomp4.ReadHandle) (interface{}, error) {
		if codec != codecUnknown {
			return nil, nil
		}
		switch h.BoxInfo.Type {
		case gomp4.BoxTypeMp4a():
			codec = codecAAC
			return nil, nil
		case gomp4.BoxTypeOpus():
			codec = codecOpus
			return nil, nil
		case gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak(), gomp4.BoxTypeMdia(),
			gomp4.BoxTypeMinf(), gomp4.BoxTypeStbl(), gomp4.BoxTypeStsd():
			_, _ = h.Expand()
		}
		return nil, nil
	})
	return codec
}

func findAudioTrack(info *gomp4.ProbeInfo, codec audioCodec) *gomp4.Track {
	if codec == codecAAC {
		for _, t := range info.Tracks {
			if t.Codec == gomp4.CodecMP4A {
				return t
			}
		}
	}
	for _, t := range info.Tracks {
		if t.Codec == gomp4.CodecAVC1 {
			continue
		}
		if len(t.Samples) == 0 || len(t.Chunks) == 0 {
			continue
		}
		if isAudioTimescale(t.Timescale) {
			return t
		}
	}
	return nil
}

type sampleLoc struct {
	offset uint64
	size   uint32
}

func buildSampleLocations(track *gomp4.Track, limit int) []sampleLoc {
	capacity := len(track.Samples)
	if limit > 0 && limit < capacity {
		capacity = limit
	}
	result := make([]sampleLoc, 0, capacity)
	sampleIdx := 0
	for _, chunk := range track.Chunks {
		off := chunk.DataOffset
		for j := uint32(0); j < chunk.SamplesPerChunk; j++ {
			if sampleIdx >= len(track.Samples) {
				return result
			}
			if limit > 0 && len(result) >= limit {
				return result
			}
			sz := track.Samples[sampleIdx].Size
			result = append(result, sampleLoc{offset: off, size: sz})
			off += uint64(sz)
			sampleIdx++
		}
	}
	return result
}

func decodeAACProbe(rs io.ReadSeeker, track *gomp4.Track, samples []sampleLoc) []float32 {
	asc, err := getAudioSpecificConfig(rs)
	if err != nil {
		return nil
	}
	dec := aacdecoder.New()
	if err := dec.SetASC(asc); err != nil {
		return nil
	}
	channels := dec.Config.ChanConfig
	if channels < 1 {
		channels = 1
	}

	var mono []float32
	for _, loc := range samples {
		if _, err := rs.Seek(int64(loc.offset), io.SeekStart); err != nil {
			continue
		}
		raw := make([]byte, loc.size)
		if _, err := io.ReadFull(rs, raw); err != nil {
			continue
		}
		pcm, err := dec.DecodeFrame(raw)
		if err != nil {
			continue
		}
		frameLen := len(pcm) / channels
		for i := 0; i < frameLen; i++ {
			var sum float32
			for ch := 0; ch < channels; ch++ {
				sum += pcm[i*channels+ch]
			}
			mono = append(mono, sum/float32(channels))
		}
	}
	return mono
}

func decodeOpusProbe(rs io.ReadSeeker, samples []sampleLoc) []float32 {
	dec, err := concentus.NewOpusDecoder(48000, 2)
	if err != nil {
		return nil
	}
	pcm16 := make([]int16, 5760*2)

	var mono []float32
	for _, loc := range samples {
		if loc.size <= 3 {
			continue
		}
		if _, err := rs.Seek(int64(loc.offset), io.SeekStart); err != nil {
			continue
		}
		raw := make([]byte, loc.size)
		if _, err := io.ReadFull(rs, raw); err != nil {
			continue
		}
		n, err := dec.Decode(raw, 0, len(raw), pcm16, 0, 5760, false)
		if err != nil {
			continue
		}
		for i := 0; i < n; i++ {
			var sum float32
			sum += float32(pcm16[i*2]) / 32768.0
			sum += float32(pcm16[i*2+1]) / 32768.0
			mono = append(mono, sum/2)
		}
	}
	return mono
}

func getAudioSpecificConfig(rs io.ReadSeeker) ([]byte, error) {
	paths := []gomp4.BoxPath{
		{gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak(), gomp4.BoxTypeMdia(), gomp4.BoxTypeMinf(), gomp4.BoxTypeStbl(), gomp4.BoxTypeStsd(), gomp4.BoxTypeMp4a(), gomp4.BoxTypeEsds()},
		{gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak(), gomp4.BoxTypeMdia(), gomp4.BoxTypeMinf(), gomp4.BoxTypeStbl(), gomp4.BoxTypeStsd(), gomp4.BoxTypeMp4a(), gomp4.BoxTypeWave(), gomp4.BoxTypeEsds()},
		{gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak(), gomp4.BoxTypeMdia(), gomp4.BoxTypeMinf(), gomp4.BoxTypeStbl(), gomp4.BoxTypeStsd(), gomp4.BoxTypeEnca(), gomp4.BoxTypeEsds()},
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	bips, err := gomp4.ExtractBoxesWithPayload(rs, nil, paths)
	if err != nil {
		return nil, err
	}
	for _, bip := range bips {
		if bip.Info.Type != gomp4.BoxTypeEsds() {
			continue
		}
		esds, ok := bip.Payload.(*gomp4.Esds)
		if !ok {
			continue
		}
		for _, desc := range esds.Descriptors {
			if desc.Tag == gomp4.DecSpecificInfoTag && len(desc.Data) >= 2 {
				return desc.Data, nil
			}
		}
	}
	return nil, io.EOF
}
