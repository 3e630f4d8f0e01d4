package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ElementStatus is the lifecycle status of a metadata element. Deletes are
// soft: the row survives with StatusDeleted and drops out of reads.
type ElementStatus string

const (
	StatusActive  ElementStatus = "ACTIVE"
	StatusDeleted ElementStatus = "DELETED"
)

// OwningSource identifies the external system that owns an element or
// relationship. A nil OwningSource means the element is locally owned and
// freely editable by any authorized caller.
type OwningSource struct {
	GUID uuid.UUID `json:"guid"`
	Name string    `json:"name"`
}

// Matches reports whether two owning sources refer to the same external
// system. Ownership is keyed on the source GUID.
func (s *OwningSource) Matches(other *OwningSource) bool {
	if s == nil || other == nil {
		return s == nil && other == nil
	}
	return s.GUID == other.GUID
}

// Element is a metadata element describing a data-bearing asset or one of
// its structural pieces. The type name comes from the closed catalog in the
// types package.
type Element struct {
	GUID                 uuid.UUID         `json:"guid"`
	TypeName             string            `json:"type_name"`
	QualifiedName        string            `json:"qualified_name"`
	DisplayName          string            `json:"display_name"`
	Description          string            `json:"description"`
	AdditionalProperties map[string]string `json:"additional_properties,omitempty"`
	ExtendedProperties   map[string]any    `json:"extended_properties,omitempty"`
	ZoneMembership       []string          `json:"zone_membership,omitempty"`
	EffectiveFrom        *time.Time        `json:"effective_from,omitempty"`
	EffectiveTo          *time.Time        `json:"effective_to,omitempty"`
	OwningSource         *OwningSource     `json:"owning_source,omitempty"`
	Status               ElementStatus     `json:"status"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// ElementProperties is the caller-supplied payload for creates and updates.
type ElementProperties struct {
	QualifiedName        string            `json:"qualified_name"`
	DisplayName          string            `json:"display_name,omitempty"`
	Description          string            `json:"description,omitempty"`
	AdditionalProperties map[string]string `json:"additional_properties,omitempty"`
	ExtendedProperties   map[string]any    `json:"extended_properties,omitempty"`
	EffectiveFrom        *time.Time        `json:"effective_from,omitempty"`
	EffectiveTo          *time.Time        `json:"effective_to,omitempty"`
}

// NewElement creates an active element with a fresh GUID.
func NewElement(typeName string, props ElementProperties) Element {
	now := time.Now()
	return Element{
		GUID:                 uuid.New(),
		TypeName:             typeName,
		QualifiedName:        props.QualifiedName,
		DisplayName:          props.DisplayName,
		Description:          props.Description,
		AdditionalProperties: copyStringMap(props.AdditionalProperties),
		ExtendedProperties:   copyAnyMap(props.ExtendedProperties),
		EffectiveFrom:        props.EffectiveFrom,
		EffectiveTo:          props.EffectiveTo,
		Status:               StatusActive,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// WithMergedProperties returns a copy with only the supplied fields
// overwritten. Empty strings and nil maps leave the existing values in
// place; map entries merge key-wise.
func (e Element) WithMergedProperties(props ElementProperties) Element {
	merged := e.clone()
	if props.QualifiedName != "" {
		merged.QualifiedName = props.QualifiedName
	}
	if props.DisplayName != "" {
		merged.DisplayName = props.DisplayName
	}
	if props.Description != "" {
		merged.Description = props.Description
	}
	if props.AdditionalProperties != nil {
		if merged.AdditionalProperties == nil {
			merged.AdditionalProperties = map[string]string{}
		}
		for k, v := range props.AdditionalProperties {
			merged.AdditionalProperties[k] = v
		}
	}
	if props.ExtendedProperties != nil {
		if merged.ExtendedProperties == nil {
			merged.ExtendedProperties = map[string]any{}
		}
		for k, v := range props.ExtendedProperties {
			merged.ExtendedProperties[k] = v
		}
	}
	if props.EffectiveFrom != nil {
		merged.EffectiveFrom = props.EffectiveFrom
	}
	if props.EffectiveTo != nil {
		merged.EffectiveTo = props.EffectiveTo
	}
	merged.UpdatedAt = time.Now()
	return merged
}

// WithReplacedProperties returns a copy with every caller-settable field
// replaced by the supplied payload, nulls included. Identity, zones,
// ownership and lifecycle fields are untouched.
func (e Element) WithReplacedProperties(props ElementProperties) Element {
	replaced := e.clone()
	replaced.QualifiedName = props.QualifiedName
	replaced.DisplayName = props.DisplayName
	replaced.Description = props.Description
	replaced.AdditionalProperties = copyStringMap(props.AdditionalProperties)
	replaced.ExtendedProperties = copyAnyMap(props.ExtendedProperties)
	replaced.EffectiveFrom = props.EffectiveFrom
	replaced.EffectiveTo = props.EffectiveTo
	replaced.UpdatedAt = time.Now()
	return replaced
}

// WithZoneMembership returns a copy assigned to the given zones.
func (e Element) WithZoneMembership(zones []string) Element {
	updated := e.clone()
	updated.ZoneMembership = copyStrings(zones)
	updated.UpdatedAt = time.Now()
	return updated
}

// WithOwningSource returns a copy stamped with the given owning source.
func (e Element) WithOwningSource(source *OwningSource) Element {
	updated := e.clone()
	if source != nil {
		copied := *source
		updated.OwningSource = &copied
	} else {
		updated.OwningSource = nil
	}
	updated.UpdatedAt = time.Now()
	return updated
}

// Properties extracts the caller-settable payload from the element, used as
// the seed when instantiating from a template.
func (e Element) Properties() ElementProperties {
	return ElementProperties{
		QualifiedName:        e.QualifiedName,
		DisplayName:          e.DisplayName,
		Description:          e.Description,
		AdditionalProperties: copyStringMap(e.AdditionalProperties),
		ExtendedProperties:   copyAnyMap(e.ExtendedProperties),
		EffectiveFrom:        e.EffectiveFrom,
		EffectiveTo:          e.EffectiveTo,
	}
}

// IsEffectiveAt reports whether the element's effective window covers the
// given instant. A nil bound is open-ended.
func (e Element) IsEffectiveAt(at time.Time) bool {
	if e.EffectiveFrom != nil && at.Before(*e.EffectiveFrom) {
		return false
	}
	if e.EffectiveTo != nil && at.After(*e.EffectiveTo) {
		return false
	}
	return true
}

// GetAdditionalPropertiesAsJSONB marshals additional properties for storage.
func (e *Element) GetAdditionalPropertiesAsJSONB() (json.RawMessage, error) {
	if e.AdditionalProperties == nil {
		return json.Marshal(map[string]string{})
	}
	return json.Marshal(e.AdditionalProperties)
}

// GetExtendedPropertiesAsJSONB marshals extended properties for storage.
func (e *Element) GetExtendedPropertiesAsJSONB() (json.RawMessage, error) {
	if e.ExtendedProperties == nil {
		return json.Marshal(map[string]any{})
	}
	return json.Marshal(e.ExtendedProperties)
}

func (e Element) clone() Element {
	copied := e
	copied.AdditionalProperties = copyStringMap(e.AdditionalProperties)
	copied.ExtendedProperties = copyAnyMap(e.ExtendedProperties)
	copied.ZoneMembership = copyStrings(e.ZoneMembership)
	if e.OwningSource != nil {
		source := *e.OwningSource
		copied.OwningSource = &source
	}
	return copied
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	copied := make(map[string]string, len(m))
	for k, v := range m {
		copied[k] = v
	}
	return copied
}

func copyAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	copied := make(map[string]any, len(m))
	for k, v := range m {
		copied[k] = v
	}
	return copied
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	copied := make([]string, len(s))
	copy(copied, s)
	return copied
}
