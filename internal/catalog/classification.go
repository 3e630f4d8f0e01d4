package catalog

import (
	"context"
	"strings"

	"github.com/openmetagraph/metacat/internal/domain"
	"github.com/openmetagraph/metacat/internal/repository"

	"github.com/google/uuid"
)

// SetClassification attaches a named tag with its property bag to the
// element. Re-setting an existing classification replaces its properties.
func (s *Service) SetClassification(ctx context.Context, caller Caller, guid uuid.UUID, name string, properties map[string]any) error {
	if strings.TrimSpace(name) == "" {
		return domain.NewError(domain.KindInvalidParameter, "classification name is required")
	}

	element, err := s.elements.GetByGUID(ctx, guid, repository.ReadFilter{})
	if err != nil {
		return err
	}
	if !caller.canModify(element.OwningSource) {
		return domain.NewError(domain.KindNotAuthorized,
			"element %s is owned by %s", guid, element.OwningSource.Name)
	}

	if err := s.classifications.Set(ctx, domain.NewClassification(guid, name, properties)); err != nil {
		return err
	}
	s.invalidate(ctx, guid)
	return nil
}

// ClearClassification removes the named tag from the element.
func (s *Service) ClearClassification(ctx context.Context, caller Caller, guid uuid.UUID, name string) error {
	element, err := s.elements.GetByGUID(ctx, guid, repository.ReadFilter{})
	if err != nil {
		return err
	}
	if !caller.canModify(element.OwningSource) {
		return domain.NewError(domain.KindNotAuthorized,
			"element %s is owned by %s", guid, element.OwningSource.Name)
	}

	if err := s.classifications.Clear(ctx, guid, name); err != nil {
		return err
	}
	s.invalidate(ctx, guid)
	return nil
}

// GetClassifications lists the element's classifications.
func (s *Service) GetClassifications(ctx context.Context, guid uuid.UUID) ([]domain.Classification, error) {
	if _, err := s.elements.GetByGUID(ctx, guid, repository.ReadFilter{}); err != nil {
		return nil, err
	}
	return s.classifications.List(ctx, guid)
}

// SetPrimaryKey classifies a database column as a primary key. name scopes
// the uniqueness constraint; keyPattern records how key values are managed.
func (s *Service) SetPrimaryKey(ctx context.Context, caller Caller, columnGUID uuid.UUID, name string, keyPattern domain.KeyPattern) error {
	if keyPattern == "" {
		keyPattern = domain.KeyPatternLocal
	}
	return s.SetClassification(ctx, caller, columnGUID, domain.ClassificationPrimaryKey, map[string]any{
		"name":       name,
		"keyPattern": string(keyPattern),
	})
}

// ClearPrimaryKey removes the primary key classification from a column.
func (s *Service) ClearPrimaryKey(ctx context.Context, caller Caller, columnGUID uuid.UUID) error {
	return s.ClearClassification(ctx, caller, columnGUID, domain.ClassificationPrimaryKey)
}

// SetCalculatedValue marks an element as derived, carrying the formula
// whose query targets are linked via SetupQueryTarget.
func (s *Service) SetCalculatedValue(ctx context.Context, caller Caller, guid uuid.UUID, formula string) error {
	return s.SetClassification(ctx, caller, guid, domain.ClassificationCalculatedValue, map[string]any{
		"formula": formula,
	})
}

// ClearCalculatedValue removes the derived-value marker.
func (s *Service) ClearCalculatedValue(ctx context.Context, caller Caller, guid uuid.UUID) error {
	return s.ClearClassification(ctx, caller, guid, domain.ClassificationCalculatedValue)
}
