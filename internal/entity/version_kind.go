package entity

// VersionKind distinguishes the two artifact histories a conversation owns.
type VersionKind string

const (
	KindTranscript VersionKind = "transcript"
	KindMemory     VersionKind = "memory"
)

func (k VersionKind) Valid() bool {
	return k == KindTranscript || k == KindMemory
}
