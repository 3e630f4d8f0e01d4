package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAssignable(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.IsAssignable(TypeDatabase, TypeDatabase))
	assert.True(t, r.IsAssignable(TypeDatabase, TypeAsset))
	assert.True(t, r.IsAssignable(TypeDatabase, TypeReferenceable))
	assert.True(t, r.IsAssignable(TypeDatabaseColumn, TypeSchemaAttribute))
	assert.True(t, r.IsAssignable(TypeChoiceSchemaType, TypeSchemaType))

	assert.False(t, r.IsAssignable(TypeDatabase, TypeSchemaElement))
	assert.False(t, r.IsAssignable(TypeAsset, TypeDatabase))
	assert.False(t, r.IsAssignable("Widget", TypeReferenceable))
}

func TestZoneEligible(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{TypeDatabase, TypeDatabaseSchema, TypeForm, TypeReport, TypeQuery} {
		assert.True(t, r.ZoneEligible(name), name)
	}
	for _, name := range []string{TypeDatabaseTable, TypeDatabaseColumn, TypePrimitiveSchemaType, TypeSoftwareCapability, "Widget"} {
		assert.False(t, r.ZoneEligible(name), name)
	}
}

func TestSubtypesOf(t *testing.T) {
	r := NewRegistry()

	attributes := r.SubtypesOf(TypeSchemaAttribute)
	assert.ElementsMatch(t, []string{TypeSchemaAttribute, TypeDatabaseTable, TypeDatabaseView, TypeDatabaseColumn}, attributes)

	leaf := r.SubtypesOf(TypeDatabaseColumn)
	assert.Equal(t, []string{TypeDatabaseColumn}, leaf)

	assert.Nil(t, r.SubtypesOf("Widget"))
}

func TestRelationshipEndTypes(t *testing.T) {
	r := NewRegistry()

	fk, ok := r.Relationship(RelationshipForeignKey)
	require.True(t, ok)
	assert.Equal(t, TypeDatabaseColumn, fk.End1Type)
	assert.Equal(t, TypeDatabaseColumn, fk.End2Type)
	assert.False(t, fk.Containment)

	nested, ok := r.Relationship(RelationshipNestedSchemaAttribute)
	require.True(t, ok)
	assert.True(t, nested.SingleParent)
	assert.True(t, nested.Containment)

	_, ok = r.Relationship("Owns")
	assert.False(t, ok)
}

func TestContainmentTypes(t *testing.T) {
	r := NewRegistry()

	var names []string
	for _, rt := range r.ContainmentTypes() {
		names = append(names, rt.Name)
	}
	assert.ElementsMatch(t, []string{
		RelationshipDataContentForDataSet,
		RelationshipAssetSchemaType,
		RelationshipAttributeForSchema,
		RelationshipNestedSchemaAttribute,
		RelationshipSchemaTypeOption,
	}, names)
}
