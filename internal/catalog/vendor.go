package catalog

import (
	"context"

	"github.com/openmetagraph/metacat/internal/domain"
	"github.com/openmetagraph/metacat/internal/repository"

	"github.com/google/uuid"
)

// SetVendorProperties attaches the open extension bag to the element. A nil
// map clears every vendor property.
func (s *Service) SetVendorProperties(ctx context.Context, caller Caller, guid uuid.UUID, properties map[string]string) error {
	element, err := s.elements.GetByGUID(ctx, guid, repository.ReadFilter{})
	if err != nil {
		return err
	}
	if !caller.canModify(element.OwningSource) {
		return domain.NewError(domain.KindNotAuthorized,
			"element %s is owned by %s", guid, element.OwningSource.Name)
	}
	return s.vendorProps.Set(ctx, guid, properties)
}

// GetVendorProperties returns the element's extension bag; empty when none
// was ever set.
func (s *Service) GetVendorProperties(ctx context.Context, guid uuid.UUID) (map[string]string, error) {
	if _, err := s.elements.GetByGUID(ctx, guid, repository.ReadFilter{}); err != nil {
		return nil, err
	}
	return s.vendorProps.Get(ctx, guid)
}
