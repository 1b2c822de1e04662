package fingerprint

import "github.com/Farmadupe/vid-dup-finder/internal/probe"

// Entry is the value stored per path in the persistent cache: either a
// successfully hashed+probed video, or one of the reasons it could not
// be. Exactly one of the Kind-selected fields is meaningful.
type Entry struct {
	Kind  EntryKind
	Hash  Fingerprint
	Stats probe.Metadata
	Err   string
}

// EntryKind discriminates the outcome recorded for a cached path.
type EntryKind int

const (
	// KindVideo is a successfully processed video: both hash and
	// stats are populated.
	KindVideo EntryKind = iota
	// KindNotVideo marks a path that ffprobe/the MP4 reader rejected
	// outright (not decodable as a video at all).
	KindNotVideo
	// KindShortVideo marks a path whose hash computation reported
	// ErrVideoTooShort, even though its stats were obtainable.
	KindShortVideo
	// KindProcessingError marks any other failure; Err holds the
	// message for diagnostics.
	KindProcessingError
)

// NewEntry builds an Entry from the two independent outcomes of
// fingerprinting and probing a path, mirroring the reference
// implementation's precise reconciliation of the two results:
//   - both succeed                       -> KindVideo
//   - hash ok, stats failed               -> KindProcessingError(statsErr)
//   - hash too-short, stats ok             -> KindShortVideo
//   - anything else                       -> KindProcessingError(hashErr)
func NewEntry(hash Fingerprint, hashErr error, stats probe.Metadata, statsErr error) Entry {
	switch {
	case hashErr == nil && statsErr == nil:
		return Entry{Kind: KindVideo, Hash: hash, Stats: stats}
	case hashErr == nil && statsErr != nil:
		return Entry{Kind: KindProcessingError, Err: statsErr.Error()}
	case hashErr == ErrVideoTooShort && statsErr == nil:
		return Entry{Kind: KindShortVideo, Stats: stats}
	default:
		msg := ""
		if hashErr != nil {
			msg = hashErr.Error()
		}
		return Entry{Kind: KindProcessingError, Err: msg}
	}
}
