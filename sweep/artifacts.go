package sweep

// ArtifactSink receives every completed arc result so raw and derived
// measurements can be captured as per-run artifacts. Implementations must
// tolerate failed arcs: the harness table may be partially populated.
type ArtifactSink interface {
	RecordArc(result ArcResult) error
}

// noopArtifactSink discards every record.
type noopArtifactSink struct{}

// NewNoOpArtifactSink creates an artifact sink that records nothing.
func NewNoOpArtifactSink() ArtifactSink {
	return noopArtifactSink{}
}

func (noopArtifactSink) RecordArc(ArcResult) error { return nil }
