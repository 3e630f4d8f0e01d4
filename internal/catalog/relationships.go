package catalog

import (
	"context"
	"time"

	"github.com/openmetagraph/metacat/internal/domain"
	"github.com/openmetagraph/metacat/internal/repository"
	"github.com/openmetagraph/metacat/internal/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ForeignKeyProperties carries the metadata recorded on a foreign key link
// from a primary key column to the dependent column.
type ForeignKeyProperties struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Confidence  int    `json:"confidence,omitempty"`
	Steward     string `json:"steward,omitempty"`
	Source      string `json:"source,omitempty"`
}

// Link creates a typed edge between two elements. Linking is create-only:
// a second edge of the same type between the same ends fails
// DuplicateRelationship.
func (s *Service) Link(ctx context.Context, caller Caller, end1, end2 uuid.UUID, relationshipTypeName string, properties map[string]any, effectiveFrom, effectiveTo *time.Time) error {
	relType, ok := s.registry.Relationship(relationshipTypeName)
	if !ok {
		return domain.NewError(domain.KindUnknownRelationshipType,
			"unknown relationship type %q", relationshipTypeName)
	}
	if end1 == end2 {
		return domain.NewError(domain.KindInvalidParameter,
			"%s cannot relate element %s to itself", relType.Name, end1)
	}

	end1Element, err := s.elements.GetByGUID(ctx, end1, repository.ReadFilter{})
	if err != nil {
		return err
	}
	end2Element, err := s.elements.GetByGUID(ctx, end2, repository.ReadFilter{})
	if err != nil {
		return err
	}

	if !s.registry.IsAssignable(end1Element.TypeName, relType.End1Type) {
		return domain.NewError(domain.KindInvalidParameter,
			"%s end 1 must be a %s, got %s", relType.Name, relType.End1Type, end1Element.TypeName)
	}
	if !s.registry.IsAssignable(end2Element.TypeName, relType.End2Type) {
		return domain.NewError(domain.KindInvalidParameter,
			"%s end 2 must be a %s, got %s", relType.Name, relType.End2Type, end2Element.TypeName)
	}

	if relType.SingleParent {
		count, err := s.relationships.CountTo(ctx, relType.Name, end2)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.NewError(domain.KindInvalidParameter,
				"%s %s already has a %s parent", end2Element.TypeName, end2, relType.Name)
		}
	}

	relationship := domain.NewRelationship(relType.Name, end1, end2, properties, effectiveFrom, effectiveTo).
		WithOwningSource(caller.owningSource())
	if _, err := s.relationships.Create(ctx, relationship); err != nil {
		return err
	}

	s.logger.Info("relationship created",
		zap.String("type", relType.Name),
		zap.String("end1", end1.String()),
		zap.String("end2", end2.String()))
	return nil
}

// UpdateRelationship replaces the properties and effectivity window of an
// existing edge, gated by the ownership rule.
func (s *Service) UpdateRelationship(ctx context.Context, caller Caller, end1, end2 uuid.UUID, relationshipTypeName string, properties map[string]any, effectiveFrom, effectiveTo *time.Time) error {
	if _, ok := s.registry.Relationship(relationshipTypeName); !ok {
		return domain.NewError(domain.KindUnknownRelationshipType,
			"unknown relationship type %q", relationshipTypeName)
	}

	relationship, err := s.relationships.GetBetween(ctx, relationshipTypeName, end1, end2)
	if err != nil {
		return err
	}
	if !caller.canModify(relationship.OwningSource) {
		return domain.NewError(domain.KindNotAuthorized,
			"relationship %s is owned by %s", relationship.GUID, relationship.OwningSource.Name)
	}

	_, err = s.relationships.Update(ctx, relationship.WithProperties(properties, effectiveFrom, effectiveTo))
	return err
}

// Unlink removes the typed edge between the two ends.
func (s *Service) Unlink(ctx context.Context, caller Caller, end1, end2 uuid.UUID, relationshipTypeName string) error {
	if _, ok := s.registry.Relationship(relationshipTypeName); !ok {
		return domain.NewError(domain.KindUnknownRelationshipType,
			"unknown relationship type %q", relationshipTypeName)
	}

	relationship, err := s.relationships.GetBetween(ctx, relationshipTypeName, end1, end2)
	if err != nil {
		return err
	}
	if !caller.canModify(relationship.OwningSource) {
		return domain.NewError(domain.KindNotAuthorized,
			"relationship %s is owned by %s", relationship.GUID, relationship.OwningSource.Name)
	}

	return s.relationships.Delete(ctx, relationship.GUID)
}

// GetRelationships pages the edges of one type touching guid.
func (s *Service) GetRelationships(ctx context.Context, guid uuid.UUID, relationshipTypeName string, direction domain.RelationshipDirection, asOf *time.Time, startFrom, pageSize int) ([]domain.Relationship, error) {
	if relationshipTypeName != "" {
		if _, ok := s.registry.Relationship(relationshipTypeName); !ok {
			return nil, domain.NewError(domain.KindUnknownRelationshipType,
				"unknown relationship type %q", relationshipTypeName)
		}
	}
	if startFrom < 0 {
		return nil, domain.NewError(domain.KindInvalidParameter, "startFrom must not be negative")
	}
	return s.relationships.ListByEnd(ctx, guid, relationshipTypeName, direction, repository.ReadFilter{AsOf: asOf}, startFrom, pageSize)
}

// GetRelatedElements pages the elements on the far end of guid's edges of
// the given type.
func (s *Service) GetRelatedElements(ctx context.Context, guid uuid.UUID, relationshipTypeName string, direction domain.RelationshipDirection, asOf *time.Time, startFrom, pageSize int) ([]domain.Element, error) {
	relationships, err := s.GetRelationships(ctx, guid, relationshipTypeName, direction, asOf, startFrom, pageSize)
	if err != nil {
		return nil, err
	}

	guids := make([]uuid.UUID, len(relationships))
	for i, relationship := range relationships {
		guids[i] = relationship.OtherEnd(guid)
	}
	return s.elements.GetByGUIDs(ctx, guids, repository.ReadFilter{AsOf: asOf})
}

// SetupForeignKey links a primary key column to the dependent column that
// references it.
func (s *Service) SetupForeignKey(ctx context.Context, caller Caller, primaryKeyColumn, foreignKeyColumn uuid.UUID, props ForeignKeyProperties) error {
	properties := map[string]any{}
	if props.Name != "" {
		properties["name"] = props.Name
	}
	if props.Description != "" {
		properties["description"] = props.Description
	}
	if props.Confidence != 0 {
		properties["confidence"] = props.Confidence
	}
	if props.Steward != "" {
		properties["steward"] = props.Steward
	}
	if props.Source != "" {
		properties["source"] = props.Source
	}
	return s.Link(ctx, caller, primaryKeyColumn, foreignKeyColumn, types.RelationshipForeignKey, properties, nil, nil)
}

// ClearForeignKey removes the foreign key link between the two columns.
func (s *Service) ClearForeignKey(ctx context.Context, caller Caller, primaryKeyColumn, foreignKeyColumn uuid.UUID) error {
	return s.Unlink(ctx, caller, primaryKeyColumn, foreignKeyColumn, types.RelationshipForeignKey)
}

// SetupQueryTarget links a derived element to one element supplying its
// inputs. queryID names the placeholder substituted into the formula at
// evaluation time; evaluation itself happens elsewhere.
func (s *Service) SetupQueryTarget(ctx context.Context, caller Caller, derivedElement, targetElement uuid.UUID, queryID, query string) error {
	if queryID == "" || query == "" {
		return domain.NewError(domain.KindInvalidParameter, "queryId and query are required")
	}
	properties := map[string]any{
		"queryId": queryID,
		"query":   query,
	}
	return s.Link(ctx, caller, derivedElement, targetElement, types.RelationshipQueryTarget, properties, nil, nil)
}
