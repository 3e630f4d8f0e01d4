package catalog

import (
	"github.com/openmetagraph/metacat/internal/domain"

	"github.com/google/uuid"
)

// Caller carries the identity and provenance of one request. UserID is
// opaque here; authorization happened upstream. The external source fields
// are set by integration connectors synchronizing third-party systems.
type Caller struct {
	UserID             string
	ExternalSourceGUID *uuid.UUID
	ExternalSourceName string
	// ExternalSourceIsHome marks writes whose elements are owned by the
	// external source. Owned elements reject edits from everyone else, so
	// the next synchronization run cannot be silently overridden.
	ExternalSourceIsHome bool
}

// LocalCaller builds a caller for ad-hoc local requests.
func LocalCaller(userID string) Caller {
	return Caller{UserID: userID}
}

// ExternalCaller builds a caller acting on behalf of an external source
// that owns what it writes.
func ExternalCaller(userID string, sourceGUID uuid.UUID, sourceName string) Caller {
	return Caller{
		UserID:               userID,
		ExternalSourceGUID:   &sourceGUID,
		ExternalSourceName:   sourceName,
		ExternalSourceIsHome: true,
	}
}

// owningSource resolves the owning source to stamp on a write. Nil means
// locally owned and freely editable.
func (c Caller) owningSource() *domain.OwningSource {
	if !c.ExternalSourceIsHome || c.ExternalSourceGUID == nil {
		return nil
	}
	return &domain.OwningSource{GUID: *c.ExternalSourceGUID, Name: c.ExternalSourceName}
}

// canModify applies the ownership rule: an owned element accepts writes
// only from a caller carrying the same source; an unowned element accepts
// writes from anyone.
func (c Caller) canModify(owner *domain.OwningSource) bool {
	if owner == nil {
		return true
	}
	return c.ExternalSourceGUID != nil && c.ExternalSourceGUID.String() == owner.GUID.String()
}
