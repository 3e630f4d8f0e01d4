// Package memory provides a mutex-guarded in-memory implementation of the
// store contracts, used by service tests and as a reference for the
// consistency rules the Postgres store enforces in SQL.
package memory

import (
	"context"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/openmetagraph/metacat/internal/domain"
	"github.com/openmetagraph/metacat/internal/repository"

	"github.com/google/uuid"
)

const defaultPageSize = 50

// Store holds elements, relationships, classifications and vendor
// properties behind one lock so creates with the same (type, qualifiedName)
// serialize the way the contract requires.
type Store struct {
	mu              sync.RWMutex
	elements        map[uuid.UUID]domain.Element
	relationships   map[uuid.UUID]domain.Relationship
	classifications map[uuid.UUID]map[string]domain.Classification
	vendorProps     map[uuid.UUID]map[string]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		elements:        make(map[uuid.UUID]domain.Element),
		relationships:   make(map[uuid.UUID]domain.Relationship),
		classifications: make(map[uuid.UUID]map[string]domain.Classification),
		vendorProps:     make(map[uuid.UUID]map[string]string),
	}
}

// Elements returns the element repository view of the store.
func (s *Store) Elements() repository.ElementRepository { return (*elementStore)(s) }

// Relationships returns the relationship repository view of the store.
func (s *Store) Relationships() repository.RelationshipRepository { return (*relationshipStore)(s) }

// Classifications returns the classification repository view of the store.
func (s *Store) Classifications() repository.ClassificationRepository {
	return (*classificationStore)(s)
}

// VendorProperties returns the vendor property repository view of the store.
func (s *Store) VendorProperties() repository.VendorPropertyRepository {
	return (*vendorPropertyStore)(s)
}

type elementStore Store

func (s *elementStore) Create(_ context.Context, element domain.Element) (domain.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.elements {
		if existing.Status != domain.StatusActive {
			continue
		}
		if existing.TypeName == element.TypeName && existing.QualifiedName == element.QualifiedName {
			return domain.Element{}, domain.NewError(domain.KindDuplicateElement,
				"%s with qualified name %q already exists", element.TypeName, element.QualifiedName)
		}
	}

	s.elements[element.GUID] = element
	return element, nil
}

func (s *elementStore) GetByGUID(_ context.Context, guid uuid.UUID, filter repository.ReadFilter) (domain.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	element, ok := s.elements[guid]
	if !ok || element.Status != domain.StatusActive {
		return domain.Element{}, domain.NewError(domain.KindNotFound, "element %s not found", guid)
	}
	if filter.AsOf != nil && !element.IsEffectiveAt(*filter.AsOf) {
		return domain.Element{}, domain.NewError(domain.KindNotFound, "element %s not effective at %s", guid, filter.AsOf)
	}
	return element, nil
}

func (s *elementStore) GetByGUIDs(_ context.Context, guids []uuid.UUID, filter repository.ReadFilter) ([]domain.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	elements := make([]domain.Element, 0, len(guids))
	for _, guid := range guids {
		element, ok := s.elements[guid]
		if !ok || element.Status != domain.StatusActive {
			continue
		}
		if filter.AsOf != nil && !element.IsEffectiveAt(*filter.AsOf) {
			continue
		}
		elements = append(elements, element)
	}
	return elements, nil
}

func (s *elementStore) GetByQualifiedName(_ context.Context, typeNames []string, qualifiedName string, filter repository.ReadFilter) (domain.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, element := range s.elements {
		if element.Status != domain.StatusActive || element.QualifiedName != qualifiedName {
			continue
		}
		if !matchesType(element.TypeName, typeNames) {
			continue
		}
		if filter.AsOf != nil && !element.IsEffectiveAt(*filter.AsOf) {
			continue
		}
		return element, nil
	}
	return domain.Element{}, domain.NewError(domain.KindNotFound, "no element with qualified name %q", qualifiedName)
}

func (s *elementStore) ListByName(_ context.Context, typeNames []string, name string, filter repository.ReadFilter, offset, limit int) ([]domain.Element, error) {
	return s.collect(typeNames, filter, offset, limit, func(e domain.Element) bool {
		return e.QualifiedName == name || e.DisplayName == name
	})
}

func (s *elementStore) Search(_ context.Context, typeNames []string, pattern string, filter repository.ReadFilter, offset, limit int) ([]domain.Element, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, domain.WrapError(domain.KindInvalidParameter, err, "invalid search pattern %q", pattern)
	}
	return s.collect(typeNames, filter, offset, limit, func(e domain.Element) bool {
		return re.MatchString(e.QualifiedName) || re.MatchString(e.DisplayName) || re.MatchString(e.Description)
	})
}

func (s *elementStore) Update(_ context.Context, element domain.Element) (domain.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.elements[element.GUID]
	if !ok || existing.Status != domain.StatusActive {
		return domain.Element{}, domain.NewError(domain.KindNotFound, "element %s not found", element.GUID)
	}

	for guid, other := range s.elements {
		if guid == element.GUID || other.Status != domain.StatusActive {
			continue
		}
		if other.TypeName == element.TypeName && other.QualifiedName == element.QualifiedName {
			return domain.Element{}, domain.NewError(domain.KindDuplicateElement,
				"%s with qualified name %q already exists", element.TypeName, element.QualifiedName)
		}
	}

	s.elements[element.GUID] = element
	return element, nil
}

func (s *elementStore) SoftDelete(_ context.Context, guid uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	element, ok := s.elements[guid]
	if !ok || element.Status != domain.StatusActive {
		return domain.NewError(domain.KindNotFound, "element %s not found", guid)
	}
	element.Status = domain.StatusDeleted
	element.UpdatedAt = time.Now()
	s.elements[guid] = element
	return nil
}

// collect applies the predicate over active elements, sorted by qualified
// name then guid so pages stay stable for unchanged data.
func (s *elementStore) collect(typeNames []string, filter repository.ReadFilter, offset, limit int, match func(domain.Element) bool) ([]domain.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.Element
	for _, element := range s.elements {
		if element.Status != domain.StatusActive || !matchesType(element.TypeName, typeNames) {
			continue
		}
		if filter.AsOf != nil && !element.IsEffectiveAt(*filter.AsOf) {
			continue
		}
		if match(element) {
			matched = append(matched, element)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].QualifiedName != matched[j].QualifiedName {
			return matched[i].QualifiedName < matched[j].QualifiedName
		}
		return matched[i].GUID.String() < matched[j].GUID.String()
	})

	return page(matched, offset, limit), nil
}

type relationshipStore Store

func (s *relationshipStore) Create(_ context.Context, relationship domain.Relationship) (domain.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.relationships {
		if existing.TypeName == relationship.TypeName &&
			existing.End1GUID == relationship.End1GUID &&
			existing.End2GUID == relationship.End2GUID {
			return domain.Relationship{}, domain.NewError(domain.KindDuplicateRelationship,
				"%s relationship between %s and %s already exists",
				relationship.TypeName, relationship.End1GUID, relationship.End2GUID)
		}
	}

	s.relationships[relationship.GUID] = relationship
	return relationship, nil
}

func (s *relationshipStore) GetBetween(_ context.Context, typeName string, end1, end2 uuid.UUID) (domain.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, relationship := range s.relationships {
		if relationship.TypeName == typeName && relationship.End1GUID == end1 && relationship.End2GUID == end2 {
			return relationship, nil
		}
	}
	return domain.Relationship{}, domain.NewError(domain.KindNotFound,
		"no %s relationship between %s and %s", typeName, end1, end2)
}

func (s *relationshipStore) ListByEnd(_ context.Context, guid uuid.UUID, typeName string, direction domain.RelationshipDirection, filter repository.ReadFilter, offset, limit int) ([]domain.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.Relationship
	for _, relationship := range s.relationships {
		if typeName != "" && relationship.TypeName != typeName {
			continue
		}
		switch direction {
		case domain.DirectionFromEnd2:
			if relationship.End2GUID != guid {
				continue
			}
		default:
			if relationship.End1GUID != guid {
				continue
			}
		}
		if filter.AsOf != nil && !relationship.IsEffectiveAt(*filter.AsOf) {
			continue
		}
		matched = append(matched, relationship)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].GUID.String() < matched[j].GUID.String()
	})

	return page(matched, offset, limit), nil
}

func (s *relationshipStore) CountTo(_ context.Context, typeName string, end2 uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, relationship := range s.relationships {
		if relationship.TypeName == typeName && relationship.End2GUID == end2 {
			count++
		}
	}
	return count, nil
}

func (s *relationshipStore) Update(_ context.Context, relationship domain.Relationship) (domain.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.relationships[relationship.GUID]; !ok {
		return domain.Relationship{}, domain.NewError(domain.KindNotFound, "relationship %s not found", relationship.GUID)
	}
	s.relationships[relationship.GUID] = relationship
	return relationship, nil
}

func (s *relationshipStore) Delete(_ context.Context, guid uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.relationships[guid]; !ok {
		return domain.NewError(domain.KindNotFound, "relationship %s not found", guid)
	}
	delete(s.relationships, guid)
	return nil
}

func (s *relationshipStore) DeleteForElement(_ context.Context, guid uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, relationship := range s.relationships {
		if relationship.End1GUID == guid || relationship.End2GUID == guid {
			delete(s.relationships, id)
		}
	}
	return nil
}

type classificationStore Store

func (s *classificationStore) Set(_ context.Context, classification domain.Classification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byName, ok := s.classifications[classification.ElementGUID]
	if !ok {
		byName = make(map[string]domain.Classification)
		s.classifications[classification.ElementGUID] = byName
	}
	if existing, ok := byName[classification.Name]; ok {
		classification.CreatedAt = existing.CreatedAt
	}
	byName[classification.Name] = classification
	return nil
}

func (s *classificationStore) Clear(_ context.Context, elementGUID uuid.UUID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byName, ok := s.classifications[elementGUID]
	if !ok {
		return domain.NewError(domain.KindNotFound, "element %s has no %s classification", elementGUID, name)
	}
	if _, ok := byName[name]; !ok {
		return domain.NewError(domain.KindNotFound, "element %s has no %s classification", elementGUID, name)
	}
	delete(byName, name)
	return nil
}

func (s *classificationStore) List(_ context.Context, elementGUID uuid.UUID) ([]domain.Classification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byName := s.classifications[elementGUID]
	classifications := make([]domain.Classification, 0, len(byName))
	for _, classification := range byName {
		classifications = append(classifications, classification)
	}
	sort.Slice(classifications, func(i, j int) bool {
		return classifications[i].Name < classifications[j].Name
	})
	return classifications, nil
}

type vendorPropertyStore Store

func (s *vendorPropertyStore) Set(_ context.Context, elementGUID uuid.UUID, properties map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if properties == nil {
		delete(s.vendorProps, elementGUID)
		return nil
	}
	copied := make(map[string]string, len(properties))
	for k, v := range properties {
		copied[k] = v
	}
	s.vendorProps[elementGUID] = copied
	return nil
}

func (s *vendorPropertyStore) Get(_ context.Context, elementGUID uuid.UUID) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.vendorProps[elementGUID]
	if !ok {
		return map[string]string{}, nil
	}
	copied := make(map[string]string, len(stored))
	for k, v := range stored {
		copied[k] = v
	}
	return copied, nil
}

func matchesType(typeName string, typeNames []string) bool {
	if len(typeNames) == 0 {
		return true
	}
	for _, name := range typeNames {
		if name == typeName {
			return true
		}
	}
	return false
}

func page[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
