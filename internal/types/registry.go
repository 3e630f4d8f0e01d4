// Package types holds the closed catalog of metadata element and
// relationship types. The catalog is static: element kinds differ only in
// the descriptor entries recorded here, and the generic engine in the
// catalog package is parameterized by them.
package types

// Root and intermediate type names.
const (
	TypeReferenceable   = "Referenceable"
	TypeAsset           = "Asset"
	TypeSchemaElement   = "SchemaElement"
	TypeSchemaType      = "SchemaType"
	TypeSchemaAttribute = "SchemaAttribute"
)

// Concrete element type names.
const (
	TypeDatabase           = "Database"
	TypeDatabaseSchema     = "DatabaseSchema"
	TypeDatabaseTable      = "DatabaseTable"
	TypeDatabaseView       = "DatabaseView"
	TypeDatabaseColumn     = "DatabaseColumn"
	TypeForm               = "Form"
	TypeReport             = "Report"
	TypeQuery              = "Query"
	TypeDataContainer      = "DataContainer"
	TypeSoftwareCapability = "SoftwareCapability"

	TypePrimitiveSchemaType = "PrimitiveSchemaType"
	TypeLiteralSchemaType   = "LiteralSchemaType"
	TypeEnumSchemaType      = "EnumSchemaType"
	TypeStructSchemaType    = "StructSchemaType"
	TypeChoiceSchemaType    = "ChoiceSchemaType"
	TypeMapSchemaType       = "MapSchemaType"
)

// Relationship type names.
const (
	RelationshipDataContentForDataSet = "DataContentForDataSet"
	RelationshipAssetSchemaType       = "AssetSchemaType"
	RelationshipAttributeForSchema    = "AttributeForSchema"
	RelationshipNestedSchemaAttribute = "NestedSchemaAttribute"
	RelationshipSchemaAttributeType   = "SchemaAttributeType"
	RelationshipSchemaTypeOption      = "SchemaTypeOption"
	RelationshipForeignKey            = "ForeignKey"
	RelationshipQueryTarget           = "DerivedSchemaTypeQueryTarget"
)

// ElementType describes one entry in the closed element type hierarchy.
type ElementType struct {
	Name      string
	SuperType string
	// ZoneEligible marks asset-like types that carry zone membership and
	// participate in publish/withdraw.
	ZoneEligible bool
}

// RelationshipType describes a typed directed edge and the element types
// its two ends must be assignable to.
type RelationshipType struct {
	Name     string
	End1Type string
	End2Type string
	// SingleParent enforces at most one incoming edge of this type per
	// end-2 element (e.g. one parent schema per nested attribute).
	SingleParent bool
	// Containment marks edges whose end-2 element is structurally nested
	// under end 1. Cascaded deletes and template cloning follow these.
	Containment bool
}

// Registry resolves type names against the closed catalog.
type Registry struct {
	elements      map[string]ElementType
	relationships map[string]RelationshipType
}

// NewRegistry builds the catalog.
func NewRegistry() *Registry {
	r := &Registry{
		elements:      make(map[string]ElementType),
		relationships: make(map[string]RelationshipType),
	}

	for _, et := range []ElementType{
		{Name: TypeReferenceable},
		{Name: TypeAsset, SuperType: TypeReferenceable},
		{Name: TypeSchemaElement, SuperType: TypeReferenceable},
		{Name: TypeSoftwareCapability, SuperType: TypeReferenceable},

		{Name: TypeDatabase, SuperType: TypeAsset, ZoneEligible: true},
		{Name: TypeDatabaseSchema, SuperType: TypeAsset, ZoneEligible: true},
		{Name: TypeForm, SuperType: TypeAsset, ZoneEligible: true},
		{Name: TypeReport, SuperType: TypeAsset, ZoneEligible: true},
		{Name: TypeQuery, SuperType: TypeAsset, ZoneEligible: true},

		{Name: TypeSchemaType, SuperType: TypeSchemaElement},
		{Name: TypePrimitiveSchemaType, SuperType: TypeSchemaType},
		{Name: TypeLiteralSchemaType, SuperType: TypeSchemaType},
		{Name: TypeEnumSchemaType, SuperType: TypeSchemaType},
		{Name: TypeStructSchemaType, SuperType: TypeSchemaType},
		{Name: TypeChoiceSchemaType, SuperType: TypeSchemaType},
		{Name: TypeMapSchemaType, SuperType: TypeSchemaType},

		{Name: TypeSchemaAttribute, SuperType: TypeSchemaElement},
		{Name: TypeDatabaseTable, SuperType: TypeSchemaAttribute},
		{Name: TypeDatabaseView, SuperType: TypeSchemaAttribute},
		{Name: TypeDatabaseColumn, SuperType: TypeSchemaAttribute},
		{Name: TypeDataContainer, SuperType: TypeSchemaElement},
	} {
		r.elements[et.Name] = et
	}

	for _, rt := range []RelationshipType{
		{Name: RelationshipDataContentForDataSet, End1Type: TypeDatabase, End2Type: TypeDatabaseSchema, SingleParent: true, Containment: true},
		{Name: RelationshipAssetSchemaType, End1Type: TypeAsset, End2Type: TypeSchemaType, Containment: true},
		// End 1 is the owning schema: either an asset-level schema
		// (DatabaseSchema) or a structural schema type.
		{Name: RelationshipAttributeForSchema, End1Type: TypeReferenceable, End2Type: TypeSchemaAttribute, SingleParent: true, Containment: true},
		{Name: RelationshipNestedSchemaAttribute, End1Type: TypeSchemaAttribute, End2Type: TypeSchemaAttribute, SingleParent: true, Containment: true},
		{Name: RelationshipSchemaAttributeType, End1Type: TypeSchemaAttribute, End2Type: TypeSchemaType},
		{Name: RelationshipSchemaTypeOption, End1Type: TypeChoiceSchemaType, End2Type: TypeSchemaType, Containment: true},
		{Name: RelationshipForeignKey, End1Type: TypeDatabaseColumn, End2Type: TypeDatabaseColumn},
		{Name: RelationshipQueryTarget, End1Type: TypeSchemaElement, End2Type: TypeSchemaElement},
	} {
		r.relationships[rt.Name] = rt
	}

	return r
}

// Element looks up an element type by name.
func (r *Registry) Element(name string) (ElementType, bool) {
	et, ok := r.elements[name]
	return et, ok
}

// Relationship looks up a relationship type by name.
func (r *Registry) Relationship(name string) (RelationshipType, bool) {
	rt, ok := r.relationships[name]
	return rt, ok
}

// IsAssignable reports whether typeName is target or one of its subtypes.
func (r *Registry) IsAssignable(typeName, target string) bool {
	current := typeName
	for current != "" {
		if current == target {
			return true
		}
		et, ok := r.elements[current]
		if !ok {
			return false
		}
		current = et.SuperType
	}
	return false
}

// ZoneEligible reports whether elements of typeName carry zone membership.
func (r *Registry) ZoneEligible(typeName string) bool {
	et, ok := r.elements[typeName]
	return ok && et.ZoneEligible
}

// SubtypesOf returns typeName plus every type assignable to it, for
// subtype-aware store queries. Returns nil for an unknown name.
func (r *Registry) SubtypesOf(typeName string) []string {
	if _, ok := r.elements[typeName]; !ok {
		return nil
	}
	var names []string
	for name := range r.elements {
		if r.IsAssignable(name, typeName) {
			names = append(names, name)
		}
	}
	return names
}

// ContainmentTypes returns the relationship types marked as containment
// edges, used for cascade deletes and recursive template cloning.
func (r *Registry) ContainmentTypes() []RelationshipType {
	var out []RelationshipType
	for _, rt := range r.relationships {
		if rt.Containment {
			out = append(out, rt)
		}
	}
	return out
}
