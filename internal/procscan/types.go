package procscan

import "github.com/keywarden/keywarden/internal/identity"

// Classification describes the relationship between the calling process and
// a discovered sibling. Values are mutually exclusive; a scan produces
// exactly one.
type Classification int

const (
	// ClassNone means no relevant sibling was found.
	ClassNone Classification = iota

	// ClassOwnedHereSameContext means a sibling owned by the current user
	// is running in the same login session.
	ClassOwnedHereSameContext

	// ClassOwnedHereOtherContext means a sibling owned by the current user
	// is running in a different login session.
	ClassOwnedHereOtherContext

	// ClassForeignOccupant means a sibling owned by a different user is
	// running in the current login session.
	ClassForeignOccupant
)

// String returns the classification name used in logs.
func (c Classification) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassOwnedHereSameContext:
		return "owned-here-same-context"
	case ClassOwnedHereOtherContext:
		return "owned-here-other-context"
	case ClassForeignOccupant:
		return "foreign-occupant"
	default:
		return "unknown"
	}
}

// SiblingRef is the result of one scan: the classification, the identity of
// the recorded sibling (if any), and the sibling's notification channel
// address resolved from the handle registry (if any). It is constructed
// fresh by each arbitration run and never persisted.
type SiblingRef struct {
	Classification Classification
	Sibling        *identity.Process
	ChannelAddr    string
}
