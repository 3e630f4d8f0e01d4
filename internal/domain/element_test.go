package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithMergedPropertiesKeepsUnsuppliedFields(t *testing.T) {
	element := NewElement("Database", ElementProperties{
		QualifiedName:        "srv::db1",
		DisplayName:          "db1",
		Description:          "first",
		AdditionalProperties: map[string]string{"a": "1", "b": "2"},
	})

	merged := element.WithMergedProperties(ElementProperties{
		Description:          "second",
		AdditionalProperties: map[string]string{"a": "9"},
	})

	assert.Equal(t, "srv::db1", merged.QualifiedName)
	assert.Equal(t, "db1", merged.DisplayName)
	assert.Equal(t, "second", merged.Description)
	assert.Equal(t, map[string]string{"a": "9", "b": "2"}, merged.AdditionalProperties)

	// The receiver is untouched.
	assert.Equal(t, "first", element.Description)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, element.AdditionalProperties)
}

func TestWithReplacedPropertiesIsLastWriteWins(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	element := NewElement("Database", ElementProperties{
		QualifiedName:        "srv::db1",
		DisplayName:          "db1",
		AdditionalProperties: map[string]string{"a": "1"},
		EffectiveFrom:        &from,
	})

	replaced := element.WithReplacedProperties(ElementProperties{
		QualifiedName: "srv::db1",
	})

	assert.Empty(t, replaced.DisplayName)
	assert.Nil(t, replaced.AdditionalProperties)
	assert.Nil(t, replaced.EffectiveFrom)
	assert.Equal(t, element.GUID, replaced.GUID)
	assert.Equal(t, element.Status, replaced.Status)
}

func TestIsEffectiveAt(t *testing.T) {
	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	open := NewElement("Database", ElementProperties{QualifiedName: "srv::db1"})
	assert.True(t, open.IsEffectiveAt(time.Now()))

	bounded := NewElement("Database", ElementProperties{
		QualifiedName: "srv::db2",
		EffectiveFrom: &from,
		EffectiveTo:   &to,
	})
	assert.False(t, bounded.IsEffectiveAt(from.AddDate(0, -1, 0)))
	assert.True(t, bounded.IsEffectiveAt(from))
	assert.True(t, bounded.IsEffectiveAt(from.AddDate(0, 3, 0)))
	assert.True(t, bounded.IsEffectiveAt(to))
	assert.False(t, bounded.IsEffectiveAt(to.AddDate(0, 1, 0)))
}

func TestOwningSourceMatches(t *testing.T) {
	a := NewElement("Database", ElementProperties{QualifiedName: "srv::db1"})
	owned := a.WithOwningSource(&OwningSource{GUID: a.GUID, Name: "sync"})
	require.NotNil(t, owned.OwningSource)

	same := &OwningSource{GUID: a.GUID, Name: "renamed-sync"}
	assert.True(t, owned.OwningSource.Matches(same))

	var unowned *OwningSource
	assert.False(t, owned.OwningSource.Matches(unowned))
	assert.True(t, unowned.Matches(nil))
}
