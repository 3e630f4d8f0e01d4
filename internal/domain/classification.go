package domain

import (
	"time"

	"github.com/google/uuid"
)

// Classification names reserved by the catalog. Wrappers in the catalog
// package stamp these with well-known property keys.
const (
	ClassificationPrimaryKey      = "PrimaryKey"
	ClassificationCalculatedValue = "CalculatedValue"
)

// KeyPattern describes how a primary key value is managed.
type KeyPattern string

const (
	KeyPatternLocal     KeyPattern = "LOCAL_KEY"
	KeyPatternRecycled  KeyPattern = "RECYCLED_KEY"
	KeyPatternNatural   KeyPattern = "NATURAL_KEY"
	KeyPatternMirror    KeyPattern = "MIRROR_KEY"
	KeyPatternAggregate KeyPattern = "AGGREGATE_KEY"
	KeyPatternCaller    KeyPattern = "CALLERS_KEY"
	KeyPatternStable    KeyPattern = "STABLE_KEY"
	KeyPatternOther     KeyPattern = "OTHER"
)

// Classification is a named tag with its own property bag attached to one
// element. Re-setting an existing classification replaces its properties.
type Classification struct {
	ElementGUID uuid.UUID      `json:"element_guid"`
	Name        string         `json:"name"`
	Properties  map[string]any `json:"properties,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewClassification creates a classification for the given element.
func NewClassification(elementGUID uuid.UUID, name string, properties map[string]any) Classification {
	now := time.Now()
	return Classification{
		ElementGUID: elementGUID,
		Name:        name,
		Properties:  copyAnyMap(properties),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
