package catalog

import (
	"context"

	"github.com/openmetagraph/metacat/internal/domain"
	"github.com/openmetagraph/metacat/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PublishElement moves the element into the published zones so consumers
// can see it. Publishing is idempotent.
func (s *Service) PublishElement(ctx context.Context, guid uuid.UUID) error {
	return s.setZones(ctx, guid, s.zones.Published, "published")
}

// WithdrawElement resets the element to the default zones, hiding it from
// consumers again.
func (s *Service) WithdrawElement(ctx context.Context, guid uuid.UUID) error {
	return s.setZones(ctx, guid, s.zones.Default, "withdrawn")
}

func (s *Service) setZones(ctx context.Context, guid uuid.UUID, zones []string, action string) error {
	element, err := s.elements.GetByGUID(ctx, guid, repository.ReadFilter{})
	if err != nil {
		return err
	}
	if !s.registry.ZoneEligible(element.TypeName) {
		return domain.NewError(domain.KindInvalidParameter,
			"%s elements do not carry zone membership", element.TypeName)
	}

	if _, err := s.elements.Update(ctx, element.WithZoneMembership(zones)); err != nil {
		return err
	}
	s.invalidate(ctx, guid)

	s.logger.Info("element zone membership changed",
		zap.String("guid", guid.String()),
		zap.String("action", action),
		zap.Strings("zones", zones))
	return nil
}
