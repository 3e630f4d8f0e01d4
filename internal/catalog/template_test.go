package catalog_test

import (
	"context"
	"testing"

	"github.com/openmetagraph/metacat/internal/catalog"
	"github.com/openmetagraph/metacat/internal/domain"
	"github.com/openmetagraph/metacat/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateElementFromTemplateRequiresQualifiedName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	caller := catalog.LocalCaller("peter")

	template := mustCreate(t, svc, caller, types.TypeDatabase, "templates::postgres")
	_, err := svc.CreateElementFromTemplate(ctx, caller, template, catalog.TemplateOverrides{})
	assert.Equal(t, domain.KindInvalidParameter, domain.KindOf(err))
}

func TestCreateElementFromTemplateAppliesOverrides(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	caller := catalog.LocalCaller("peter")

	template, err := svc.CreateElement(ctx, caller, types.TypeDatabase, domain.ElementProperties{
		QualifiedName:        "templates::postgres",
		DisplayName:          "postgres template",
		Description:          "standard postgres deployment",
		AdditionalProperties: map[string]string{"version": "16"},
	})
	require.NoError(t, err)

	clone, err := svc.CreateElementFromTemplate(ctx, caller, template, catalog.TemplateOverrides{
		QualifiedName:  "srv::db9",
		DisplayName:    "db9",
		NetworkAddress: "db9.internal:5432",
	})
	require.NoError(t, err)

	cloned, err := svc.GetElementByGUID(ctx, clone, nil)
	require.NoError(t, err)
	assert.NotEqual(t, template, cloned.GUID)
	assert.Equal(t, "srv::db9", cloned.QualifiedName)
	assert.Equal(t, "db9", cloned.DisplayName)
	assert.Equal(t, "standard postgres deployment", cloned.Description)
	assert.Equal(t, map[string]string{"version": "16"}, cloned.AdditionalProperties)
	assert.Equal(t, "db9.internal:5432", cloned.ExtendedProperties["networkAddress"])
	assert.Equal(t, []string{"quarantine"}, cloned.ZoneMembership)
}

func TestCloneIsIndependentOfTemplate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	caller := catalog.LocalCaller("peter")

	template := mustCreate(t, svc, caller, types.TypeDatabase, "templates::postgres")
	clone, err := svc.CreateElementFromTemplate(ctx, caller, template, catalog.TemplateOverrides{
		QualifiedName: "srv::db9",
	})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateElement(ctx, caller, clone, domain.ElementProperties{
		Description: "customized",
	}, true))

	original, err := svc.GetElementByGUID(ctx, template, nil)
	require.NoError(t, err)
	assert.Empty(t, original.Description)
}

func TestCreateElementFromTemplateTerminatesOnContainmentCycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	caller := catalog.LocalCaller("peter")

	first := mustCreate(t, svc, caller, types.TypeDatabaseColumn, "templates::c1")
	second := mustCreate(t, svc, caller, types.TypeDatabaseColumn, "templates::c1::c2")
	require.NoError(t, svc.Link(ctx, caller, first, second, types.RelationshipNestedSchemaAttribute, nil, nil, nil))
	require.NoError(t, svc.Link(ctx, caller, second, first, types.RelationshipNestedSchemaAttribute, nil, nil, nil))

	clone, err := svc.CreateElementFromTemplate(ctx, caller, first, catalog.TemplateOverrides{
		QualifiedName: "srv::c9",
	})
	require.NoError(t, err)

	// Each template element is cloned once; the back edge is not replayed.
	children, err := svc.GetRelatedElements(ctx, clone, types.RelationshipNestedSchemaAttribute, domain.DirectionFromEnd1, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "srv::c9::c2", children[0].QualifiedName)

	grandchildren, err := svc.GetRelatedElements(ctx, children[0].GUID, types.RelationshipNestedSchemaAttribute, domain.DirectionFromEnd1, nil, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, grandchildren)
}

func TestCreateElementFromTemplateClonesNestedStructure(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	caller := catalog.LocalCaller("peter")

	database := mustCreate(t, svc, caller, types.TypeDatabase, "templates::pg")
	schema := mustCreate(t, svc, caller, types.TypeDatabaseSchema, "templates::pg::public")
	table := mustCreate(t, svc, caller, types.TypeDatabaseTable, "templates::pg::public::audit")
	column := mustCreate(t, svc, caller, types.TypeDatabaseColumn, "templates::pg::public::audit::id")

	require.NoError(t, svc.Link(ctx, caller, database, schema, types.RelationshipDataContentForDataSet, nil, nil, nil))
	require.NoError(t, svc.Link(ctx, caller, schema, table, types.RelationshipAttributeForSchema, nil, nil, nil))
	require.NoError(t, svc.Link(ctx, caller, table, column, types.RelationshipNestedSchemaAttribute, nil, nil, nil))
	require.NoError(t, svc.SetPrimaryKey(ctx, caller, column, "audit_pk", ""))

	clone, err := svc.CreateElementFromTemplate(ctx, caller, database, catalog.TemplateOverrides{
		QualifiedName: "srv::db9",
	})
	require.NoError(t, err)

	clonedSchemas, err := svc.GetRelatedElements(ctx, clone, types.RelationshipDataContentForDataSet, domain.DirectionFromEnd1, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, clonedSchemas, 1)
	assert.Equal(t, "srv::db9::public", clonedSchemas[0].QualifiedName)

	clonedTables, err := svc.GetRelatedElements(ctx, clonedSchemas[0].GUID, types.RelationshipAttributeForSchema, domain.DirectionFromEnd1, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, clonedTables, 1)
	assert.Equal(t, "srv::db9::public::audit", clonedTables[0].QualifiedName)

	clonedColumns, err := svc.GetRelatedElements(ctx, clonedTables[0].GUID, types.RelationshipNestedSchemaAttribute, domain.DirectionFromEnd1, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, clonedColumns, 1)
	assert.Equal(t, "srv::db9::public::audit::id", clonedColumns[0].QualifiedName)

	// Classifications travel with the cloned element.
	classifications, err := svc.GetClassifications(ctx, clonedColumns[0].GUID)
	require.NoError(t, err)
	require.Len(t, classifications, 1)
	assert.Equal(t, domain.ClassificationPrimaryKey, classifications[0].Name)
	assert.Equal(t, "audit_pk", classifications[0].Properties["name"])

	// The template tree is untouched.
	originalSchemas, err := svc.GetRelatedElements(ctx, database, types.RelationshipDataContentForDataSet, domain.DirectionFromEnd1, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, originalSchemas, 1)
	assert.Equal(t, schema, originalSchemas[0].GUID)
}
