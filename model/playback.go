package model

// RepeatMode 循环模式
type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatAll RepeatMode = "all"
	RepeatOne RepeatMode = "one"
)

// Next returns the following mode in the off → all → one → off cycle.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// Valid reports whether m is one of the known modes.
func (m RepeatMode) Valid() bool {
	return m == RepeatOff || m == RepeatAll || m == RepeatOne
}

// Snapshot is the minimal playback state shared between surfaces.
type Snapshot struct {
	CurrentTrack *Track `json:"currentTrack"`
	IsPlaying    bool   `json:"isPlaying"`
}

// Differs reports whether two snapshots disagree on the track identity or the playing flag.
func (s Snapshot) Differs(other Snapshot) bool {
	return !s.CurrentTrack.SameAs(other.CurrentTrack) || s.IsPlaying != other.IsPlaying
}

// SnapshotPatch is a partial update of a Snapshot.
// SetTrack distinguishes "clear the track" from "leave the track alone".
type SnapshotPatch struct {
	SetTrack     bool   `json:"setTrack,omitempty"`
	CurrentTrack *Track `json:"currentTrack,omitempty"`
	IsPlaying    *bool  `json:"isPlaying,omitempty"`
}

// Merge applies the patch on top of s and returns the result.
// A snapshot without a track can never be playing.
func (s Snapshot) Merge(p SnapshotPatch) Snapshot {
	out := s
	if p.SetTrack {
		out.CurrentTrack = p.CurrentTrack.Clone()
	}
	if p.IsPlaying != nil {
		out.IsPlaying = *p.IsPlaying
	}
	if out.CurrentTrack == nil {
		out.IsPlaying = false
	}
	return out
}

// PatchFrom builds a patch carrying every field of s.
func PatchFrom(s Snapshot) SnapshotPatch {
	playing := s.IsPlaying
	return SnapshotPatch{SetTrack: true, CurrentTrack: s.CurrentTrack.Clone(), IsPlaying: &playing}
}
