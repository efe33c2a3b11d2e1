package procscan

import (
	"fmt"

	"github.com/keywarden/keywarden/internal/identity"
	"github.com/keywarden/keywarden/internal/logging"
)

// AddrResolver looks up the notification channel address published for a
// given owner UID. Lookups are advisory: the address may be stale and a miss
// is not an error.
type AddrResolver interface {
	Get(ownerUID string) (addr string, ok bool, err error)
}

// Scanner classifies the caller's environment by enumerating sibling
// processes and resolving the recorded sibling's channel address.
type Scanner struct {
	lister   Lister
	resolver AddrResolver
	logger   *logging.Logger
}

// NewScanner creates a Scanner. The resolver may be nil, in which case no
// channel address is resolved for discovered siblings.
func NewScanner(lister Lister, resolver AddrResolver, logger *logging.Logger) *Scanner {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Scanner{lister: lister, resolver: resolver, logger: logger}
}

// Classify enumerates processes sharing the caller's executable name and
// applies the precedence rules in enumeration order:
//
//  1. A candidate owned by the caller's user wins unconditionally and stops
//     the scan; session equality picks between same-context and
//     other-context.
//  2. A candidate in the caller's session but owned by another user is
//     recorded as a foreign occupant and the scan continues, so a later
//     same-owner match still supersedes it.
//  3. Anything else is ignored.
//
// A foreign occupant enumerated after a same-owner match is never seen,
// because the scan already stopped.
func (s *Scanner) Classify(current identity.Process) (SiblingRef, error) {
	procs, err := s.lister.Snapshot(current.Executable, current.PID)
	if err != nil {
		return SiblingRef{}, fmt.Errorf("enumerate siblings: %w", err)
	}

	ref := SiblingRef{Classification: ClassNone}
	for i := range procs {
		cand := procs[i]
		if cand.SameOwner(current) {
			if cand.SameSession(current) {
				ref.Classification = ClassOwnedHereSameContext
			} else {
				ref.Classification = ClassOwnedHereOtherContext
			}
			ref.Sibling = &procs[i]
			break
		}
		if cand.SameSession(current) {
			ref.Classification = ClassForeignOccupant
			ref.Sibling = &procs[i]
		}
	}

	if ref.Sibling != nil {
		s.logger.Debug("sibling classified",
			"classification", ref.Classification.String(),
			"sibling", ref.Sibling.String(),
		)
		s.resolveAddr(&ref)
	} else {
		s.logger.Debug("no sibling found", "candidates", len(procs))
	}

	return ref, nil
}

// resolveAddr fills in the sibling's channel address from the handle
// registry, keyed by the sibling's owner. Failures leave the address empty;
// callers must treat the address as advisory either way.
func (s *Scanner) resolveAddr(ref *SiblingRef) {
	if s.resolver == nil {
		return
	}

	addr, ok, err := s.resolver.Get(ref.Sibling.OwnerUID)
	if err != nil {
		s.logger.Warn("handle registry lookup failed",
			"owner_uid", ref.Sibling.OwnerUID,
			"error", err,
		)
		return
	}
	if !ok {
		s.logger.Debug("no published channel for sibling owner",
			"owner_uid", ref.Sibling.OwnerUID,
		)
		return
	}
	ref.ChannelAddr = addr
}
