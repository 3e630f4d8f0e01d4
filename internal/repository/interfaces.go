package repository

import (
	"context"
	"time"

	"github.com/openmetagraph/metacat/internal/domain"

	"github.com/google/uuid"
)

// ReadFilter narrows reads to elements and relationships whose effective
// window covers AsOf. A nil AsOf disables effective-time filtering.
type ReadFilter struct {
	AsOf *time.Time
}

// ElementRepository defines the store contract for metadata elements.
// Implementations must exclude soft-deleted rows from every read, enforce
// (type, qualifiedName) uniqueness among active rows, and keep list
// ordering stable across pages for unchanged data.
type ElementRepository interface {
	Create(ctx context.Context, element domain.Element) (domain.Element, error)
	GetByGUID(ctx context.Context, guid uuid.UUID, filter ReadFilter) (domain.Element, error)
	GetByGUIDs(ctx context.Context, guids []uuid.UUID, filter ReadFilter) ([]domain.Element, error)
	GetByQualifiedName(ctx context.Context, typeNames []string, qualifiedName string, filter ReadFilter) (domain.Element, error)
	// ListByName pages elements whose qualifiedName or displayName exactly
	// equals name. No wildcards.
	ListByName(ctx context.Context, typeNames []string, name string, filter ReadFilter, offset, limit int) ([]domain.Element, error)
	// Search pages elements whose qualifiedName, displayName or description
	// matches the regular expression pattern.
	Search(ctx context.Context, typeNames []string, pattern string, filter ReadFilter, offset, limit int) ([]domain.Element, error)
	Update(ctx context.Context, element domain.Element) (domain.Element, error)
	// SoftDelete flips the element to DELETED. Deleting an already-deleted
	// or unknown guid fails NotFound.
	SoftDelete(ctx context.Context, guid uuid.UUID) error
}

// RelationshipRepository defines the store contract for typed edges.
type RelationshipRepository interface {
	Create(ctx context.Context, relationship domain.Relationship) (domain.Relationship, error)
	// GetBetween finds the edge of the given type between the two ends.
	GetBetween(ctx context.Context, typeName string, end1, end2 uuid.UUID) (domain.Relationship, error)
	// ListByEnd pages edges touching guid. typeName narrows to one edge
	// type when non-empty; direction selects which end guid occupies.
	ListByEnd(ctx context.Context, guid uuid.UUID, typeName string, direction domain.RelationshipDirection, filter ReadFilter, offset, limit int) ([]domain.Relationship, error)
	// CountTo counts edges of the given type arriving at end2, for
	// single-parent multiplicity checks.
	CountTo(ctx context.Context, typeName string, end2 uuid.UUID) (int, error)
	Update(ctx context.Context, relationship domain.Relationship) (domain.Relationship, error)
	Delete(ctx context.Context, guid uuid.UUID) error
	// DeleteForElement removes every edge touching guid, called when the
	// element is soft-deleted.
	DeleteForElement(ctx context.Context, guid uuid.UUID) error
}

// ClassificationRepository defines the store contract for element
// classifications. Set is an upsert keyed on (element, name).
type ClassificationRepository interface {
	Set(ctx context.Context, classification domain.Classification) error
	Clear(ctx context.Context, elementGUID uuid.UUID, name string) error
	List(ctx context.Context, elementGUID uuid.UUID) ([]domain.Classification, error)
}

// VendorPropertyRepository defines the store contract for the per-element
// vendor property extension bag. Set with a nil map clears the bag.
type VendorPropertyRepository interface {
	Set(ctx context.Context, elementGUID uuid.UUID, properties map[string]string) error
	Get(ctx context.Context, elementGUID uuid.UUID) (map[string]string, error)
}
