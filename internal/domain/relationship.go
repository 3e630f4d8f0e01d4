package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Relationship is a directed typed edge between two metadata elements.
type Relationship struct {
	GUID          uuid.UUID      `json:"guid"`
	TypeName      string         `json:"type_name"`
	End1GUID      uuid.UUID      `json:"end1_guid"`
	End2GUID      uuid.UUID      `json:"end2_guid"`
	Properties    map[string]any `json:"properties,omitempty"`
	EffectiveFrom *time.Time     `json:"effective_from,omitempty"`
	EffectiveTo   *time.Time     `json:"effective_to,omitempty"`
	OwningSource  *OwningSource  `json:"owning_source,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// RelationshipDirection selects which end of an edge a traversal starts from.
type RelationshipDirection string

const (
	// DirectionFromEnd1 follows edges where the starting element is end 1.
	DirectionFromEnd1 RelationshipDirection = "from_end1"
	// DirectionFromEnd2 follows edges where the starting element is end 2.
	DirectionFromEnd2 RelationshipDirection = "from_end2"
)

// NewRelationship creates an edge with a fresh GUID.
func NewRelationship(typeName string, end1, end2 uuid.UUID, properties map[string]any, effectiveFrom, effectiveTo *time.Time) Relationship {
	now := time.Now()
	return Relationship{
		GUID:          uuid.New(),
		TypeName:      typeName,
		End1GUID:      end1,
		End2GUID:      end2,
		Properties:    copyAnyMap(properties),
		EffectiveFrom: effectiveFrom,
		EffectiveTo:   effectiveTo,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// WithOwningSource returns a copy stamped with the given owning source.
func (r Relationship) WithOwningSource(source *OwningSource) Relationship {
	updated := r
	updated.Properties = copyAnyMap(r.Properties)
	if source != nil {
		copied := *source
		updated.OwningSource = &copied
	} else {
		updated.OwningSource = nil
	}
	updated.UpdatedAt = time.Now()
	return updated
}

// WithProperties returns a copy carrying replacement edge properties and
// effectivity bounds.
func (r Relationship) WithProperties(properties map[string]any, effectiveFrom, effectiveTo *time.Time) Relationship {
	updated := r
	updated.Properties = copyAnyMap(properties)
	updated.EffectiveFrom = effectiveFrom
	updated.EffectiveTo = effectiveTo
	updated.UpdatedAt = time.Now()
	return updated
}

// OtherEnd returns the GUID opposite to the given starting element.
func (r Relationship) OtherEnd(from uuid.UUID) uuid.UUID {
	if r.End1GUID == from {
		return r.End2GUID
	}
	return r.End1GUID
}

// IsEffectiveAt reports whether the edge's effective window covers the
// given instant.
func (r Relationship) IsEffectiveAt(at time.Time) bool {
	if r.EffectiveFrom != nil && at.Before(*r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && at.After(*r.EffectiveTo) {
		return false
	}
	return true
}

// GetPropertiesAsJSONB marshals the edge properties for storage.
func (r *Relationship) GetPropertiesAsJSONB() (json.RawMessage, error) {
	if r.Properties == nil {
		return json.Marshal(map[string]any{})
	}
	return json.Marshal(r.Properties)
}

// FromJSONBProperties decodes a stored JSONB property bag.
func FromJSONBProperties(propertiesJSON json.RawMessage) (map[string]any, error) {
	var properties map[string]any
	err := json.Unmarshal(propertiesJSON, &properties)
	return properties, err
}
