// Package catalog implements the generic metadata element and relationship
// engine. One service handles every element kind; the per-kind differences
// live in the type descriptor table in the types package.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/openmetagraph/metacat/internal/cache"
	"github.com/openmetagraph/metacat/internal/config"
	"github.com/openmetagraph/metacat/internal/domain"
	"github.com/openmetagraph/metacat/internal/repository"
	"github.com/openmetagraph/metacat/internal/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service is the catalog engine. It is stateless between calls: every
// operation is a single self-contained request against the store.
type Service struct {
	registry        *types.Registry
	elements        repository.ElementRepository
	relationships   repository.RelationshipRepository
	classifications repository.ClassificationRepository
	vendorProps     repository.VendorPropertyRepository
	zones           config.ZoneConfig
	cache           *cache.ElementCache
	logger          *zap.Logger
}

// ServiceConfig gathers the service dependencies. Cache is optional.
type ServiceConfig struct {
	Registry        *types.Registry
	Elements        repository.ElementRepository
	Relationships   repository.RelationshipRepository
	Classifications repository.ClassificationRepository
	VendorProps     repository.VendorPropertyRepository
	Zones           config.ZoneConfig
	Cache           *cache.ElementCache
	Logger          *zap.Logger
}

// NewService creates the catalog engine.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		registry:        cfg.Registry,
		elements:        cfg.Elements,
		relationships:   cfg.Relationships,
		classifications: cfg.Classifications,
		vendorProps:     cfg.VendorProps,
		zones:           cfg.Zones,
		cache:           cfg.Cache,
		logger:          logger,
	}
}

// Registry exposes the type catalog backing the service.
func (s *Service) Registry() *types.Registry {
	return s.registry
}

// CreateElement creates an active element of the given type. Asset-like
// types start in the default zones; the owning source is resolved from the
// caller's provenance.
func (s *Service) CreateElement(ctx context.Context, caller Caller, typeName string, props domain.ElementProperties) (uuid.UUID, error) {
	elementType, ok := s.registry.Element(typeName)
	if !ok {
		return uuid.Nil, domain.NewError(domain.KindInvalidParameter, "unknown element type %q", typeName)
	}
	if strings.TrimSpace(props.QualifiedName) == "" {
		return uuid.Nil, domain.NewError(domain.KindInvalidParameter, "qualified name is required")
	}

	element := domain.NewElement(typeName, props).WithOwningSource(caller.owningSource())
	if elementType.ZoneEligible {
		element = element.WithZoneMembership(s.zones.Default)
	}

	created, err := s.elements.Create(ctx, element)
	if err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("element created",
		zap.String("type", typeName),
		zap.String("qualified_name", created.QualifiedName),
		zap.String("guid", created.GUID.String()),
		zap.String("user", caller.UserID))
	return created.GUID, nil
}

// UpdateElement applies a merge or full-replace update, gated by the
// ownership rule. Merge overwrites only the supplied fields; replace is
// last-write-wins for every caller-settable field, nulls included.
func (s *Service) UpdateElement(ctx context.Context, caller Caller, guid uuid.UUID, props domain.ElementProperties, isMergeUpdate bool) error {
	element, err := s.elements.GetByGUID(ctx, guid, repository.ReadFilter{})
	if err != nil {
		return err
	}
	if !caller.canModify(element.OwningSource) {
		return domain.NewError(domain.KindNotAuthorized,
			"element %s is owned by %s", guid, element.OwningSource.Name)
	}
	if !isMergeUpdate && strings.TrimSpace(props.QualifiedName) == "" {
		return domain.NewError(domain.KindInvalidParameter, "qualified name is required on replace update")
	}

	var updated domain.Element
	if isMergeUpdate {
		updated = element.WithMergedProperties(props)
	} else {
		updated = element.WithReplacedProperties(props)
	}

	if _, err := s.elements.Update(ctx, updated); err != nil {
		return err
	}
	s.invalidate(ctx, guid)
	return nil
}

// RelinquishElement clears the owning source so the element becomes freely
// editable. Only a caller carrying the owning source may relinquish it;
// relinquishing an unowned element is a no-op.
func (s *Service) RelinquishElement(ctx context.Context, caller Caller, guid uuid.UUID) error {
	element, err := s.elements.GetByGUID(ctx, guid, repository.ReadFilter{})
	if err != nil {
		return err
	}
	if element.OwningSource == nil {
		return nil
	}
	if !caller.canModify(element.OwningSource) {
		return domain.NewError(domain.KindNotAuthorized,
			"element %s is owned by %s", guid, element.OwningSource.Name)
	}

	if _, err := s.elements.Update(ctx, element.WithOwningSource(nil)); err != nil {
		return err
	}
	s.invalidate(ctx, guid)

	s.logger.Info("element ownership relinquished",
		zap.String("guid", guid.String()),
		zap.String("user", caller.UserID))
	return nil
}

// DeleteElement soft-deletes the element after re-asserting its identity
// through the qualified name. Contained descendants are soft-deleted too
// and every touching relationship is removed.
func (s *Service) DeleteElement(ctx context.Context, caller Caller, guid uuid.UUID, qualifiedName string) error {
	element, err := s.elements.GetByGUID(ctx, guid, repository.ReadFilter{})
	if err != nil {
		return err
	}
	if !caller.canModify(element.OwningSource) {
		return domain.NewError(domain.KindNotAuthorized,
			"element %s is owned by %s", guid, element.OwningSource.Name)
	}
	if element.QualifiedName != qualifiedName {
		return domain.NewError(domain.KindConflictingIdentity,
			"qualified name %q does not match element %s", qualifiedName, guid)
	}
	return s.deleteCascade(ctx, guid, map[uuid.UUID]bool{})
}

// deleteCascade removes guid and, through containment edges, everything
// nested under it. The visited set bounds the walk on diamonds and cycles
// in the containment graph.
func (s *Service) deleteCascade(ctx context.Context, guid uuid.UUID, visited map[uuid.UUID]bool) error {
	if visited[guid] {
		return nil
	}
	visited[guid] = true

	for _, relType := range s.registry.ContainmentTypes() {
		// Collect the full child set before recursing: the recursion
		// deletes edges underneath us and would shift later pages.
		var children []uuid.UUID
		offset := 0
		for {
			edges, err := s.relationships.ListByEnd(ctx, guid, relType.Name, domain.DirectionFromEnd1, repository.ReadFilter{}, offset, 0)
			if err != nil {
				return err
			}
			if len(edges) == 0 {
				break
			}
			for _, edge := range edges {
				children = append(children, edge.End2GUID)
			}
			offset += len(edges)
		}
		for _, child := range children {
			if err := s.deleteCascade(ctx, child, visited); err != nil {
				return err
			}
		}
	}

	if err := s.relationships.DeleteForElement(ctx, guid); err != nil {
		return err
	}
	// A concurrent delete can get here first; the element is already gone.
	if err := s.elements.SoftDelete(ctx, guid); err != nil && domain.KindOf(err) != domain.KindNotFound {
		return err
	}
	s.invalidate(ctx, guid)
	s.logger.Info("element deleted", zap.String("guid", guid.String()))
	return nil
}

// GetElementByGUID returns the element, optionally filtered to an
// effective-time reference. Point lookups without a reference time go
// through the cache when one is configured.
func (s *Service) GetElementByGUID(ctx context.Context, guid uuid.UUID, asOf *time.Time) (domain.Element, error) {
	if s.cache != nil && asOf == nil {
		if element, ok := s.cache.Get(ctx, guid); ok {
			return element, nil
		}
	}

	element, err := s.elements.GetByGUID(ctx, guid, repository.ReadFilter{AsOf: asOf})
	if err != nil {
		return domain.Element{}, err
	}

	if s.cache != nil && asOf == nil {
		if err := s.cache.Set(ctx, element); err != nil {
			s.logger.Warn("failed to cache element", zap.String("guid", guid.String()), zap.Error(err))
		}
	}
	return element, nil
}

// GetElementByQualifiedName resolves the unique active element of the type
// (or a subtype) with the given qualified name.
func (s *Service) GetElementByQualifiedName(ctx context.Context, typeName, qualifiedName string, asOf *time.Time) (domain.Element, error) {
	typeNames, err := s.resolveTypeNames(typeName)
	if err != nil {
		return domain.Element{}, err
	}
	return s.elements.GetByQualifiedName(ctx, typeNames, qualifiedName, repository.ReadFilter{AsOf: asOf})
}

// GetElementsByName pages elements whose qualified or display name exactly
// equals name.
func (s *Service) GetElementsByName(ctx context.Context, typeName, name string, asOf *time.Time, startFrom, pageSize int) ([]domain.Element, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewError(domain.KindInvalidParameter, "name is required")
	}
	typeNames, err := s.resolveTypeNames(typeName)
	if err != nil {
		return nil, err
	}
	if startFrom < 0 {
		return nil, domain.NewError(domain.KindInvalidParameter, "startFrom must not be negative")
	}
	return s.elements.ListByName(ctx, typeNames, name, repository.ReadFilter{AsOf: asOf}, startFrom, pageSize)
}

// FindElements pages elements matching the regular expression pattern
// against qualified name, display name and description.
func (s *Service) FindElements(ctx context.Context, typeName, pattern string, asOf *time.Time, startFrom, pageSize int) ([]domain.Element, error) {
	if pattern == "" {
		return nil, domain.NewError(domain.KindInvalidParameter, "search pattern is required")
	}
	typeNames, err := s.resolveTypeNames(typeName)
	if err != nil {
		return nil, err
	}
	if startFrom < 0 {
		return nil, domain.NewError(domain.KindInvalidParameter, "startFrom must not be negative")
	}
	return s.elements.Search(ctx, typeNames, pattern, repository.ReadFilter{AsOf: asOf}, startFrom, pageSize)
}

// resolveTypeNames expands typeName to itself plus its subtypes. An empty
// name searches every type.
func (s *Service) resolveTypeNames(typeName string) ([]string, error) {
	if typeName == "" {
		return nil, nil
	}
	typeNames := s.registry.SubtypesOf(typeName)
	if typeNames == nil {
		return nil, domain.NewError(domain.KindInvalidParameter, "unknown element type %q", typeName)
	}
	return typeNames, nil
}

func (s *Service) invalidate(ctx context.Context, guid uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, guid); err != nil {
		s.logger.Warn("failed to invalidate cached element", zap.String("guid", guid.String()), zap.Error(err))
	}
}
