package catalog

import (
	"context"
	"strings"

	"github.com/openmetagraph/metacat/internal/domain"
	"github.com/openmetagraph/metacat/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TemplateOverrides is the fixed subset of properties replaced when
// instantiating from a template. QualifiedName is mandatory.
type TemplateOverrides struct {
	QualifiedName  string `json:"qualified_name"`
	DisplayName    string `json:"display_name,omitempty"`
	Description    string `json:"description,omitempty"`
	NetworkAddress string `json:"network_address,omitempty"`
}

// CreateElementFromTemplate clones the template element as the seed for a
// new element. Cloning is recursive through containment edges: every nested
// element is cloned and re-parented under the new root with the relative
// relationship structure preserved. Fresh GUIDs are generated at every
// level.
func (s *Service) CreateElementFromTemplate(ctx context.Context, caller Caller, templateGUID uuid.UUID, overrides TemplateOverrides) (uuid.UUID, error) {
	if strings.TrimSpace(overrides.QualifiedName) == "" {
		return uuid.Nil, domain.NewError(domain.KindInvalidParameter, "qualified name override is required")
	}

	template, err := s.elements.GetByGUID(ctx, templateGUID, repository.ReadFilter{})
	if err != nil {
		return uuid.Nil, err
	}

	props := template.Properties()
	props.QualifiedName = overrides.QualifiedName
	if overrides.DisplayName != "" {
		props.DisplayName = overrides.DisplayName
	}
	if overrides.Description != "" {
		props.Description = overrides.Description
	}
	if overrides.NetworkAddress != "" {
		if props.ExtendedProperties == nil {
			props.ExtendedProperties = map[string]any{}
		}
		props.ExtendedProperties["networkAddress"] = overrides.NetworkAddress
	}

	rootGUID, err := s.cloneElement(ctx, caller, template, props)
	if err != nil {
		return uuid.Nil, err
	}

	visited := map[uuid.UUID]bool{template.GUID: true}
	if err := s.cloneChildren(ctx, caller, template, rootGUID, template.QualifiedName, overrides.QualifiedName, visited); err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("element instantiated from template",
		zap.String("template", templateGUID.String()),
		zap.String("guid", rootGUID.String()),
		zap.String("qualified_name", overrides.QualifiedName))
	return rootGUID, nil
}

// cloneElement creates one clone, copying classifications and vendor
// properties from the original.
func (s *Service) cloneElement(ctx context.Context, caller Caller, original domain.Element, props domain.ElementProperties) (uuid.UUID, error) {
	guid, err := s.CreateElement(ctx, caller, original.TypeName, props)
	if err != nil {
		return uuid.Nil, err
	}

	classifications, err := s.classifications.List(ctx, original.GUID)
	if err != nil {
		return uuid.Nil, err
	}
	for _, classification := range classifications {
		if err := s.classifications.Set(ctx, domain.NewClassification(guid, classification.Name, classification.Properties)); err != nil {
			return uuid.Nil, err
		}
	}

	vendorProps, err := s.vendorProps.Get(ctx, original.GUID)
	if err != nil {
		return uuid.Nil, err
	}
	if len(vendorProps) > 0 {
		if err := s.vendorProps.Set(ctx, guid, vendorProps); err != nil {
			return uuid.Nil, err
		}
	}

	return guid, nil
}

// cloneChildren walks the containment edges under templateParent and
// re-creates the nested structure under cloneParent. Each template element
// is cloned at most once: the visited set bounds the walk on diamonds and
// cycles, and repeat edges to an already-cloned element are skipped.
func (s *Service) cloneChildren(ctx context.Context, caller Caller, templateParent domain.Element, cloneParentGUID uuid.UUID, templateRootQN, cloneRootQN string, visited map[uuid.UUID]bool) error {
	for _, relType := range s.registry.ContainmentTypes() {
		offset := 0
		for {
			edges, err := s.relationships.ListByEnd(ctx, templateParent.GUID, relType.Name, domain.DirectionFromEnd1, repository.ReadFilter{}, offset, 0)
			if err != nil {
				return err
			}
			if len(edges) == 0 {
				break
			}
			for _, edge := range edges {
				if visited[edge.End2GUID] {
					continue
				}
				visited[edge.End2GUID] = true
				child, err := s.elements.GetByGUID(ctx, edge.End2GUID, repository.ReadFilter{})
				if err != nil {
					if domain.KindOf(err) == domain.KindNotFound {
						continue
					}
					return err
				}

				childProps := child.Properties()
				childProps.QualifiedName = rebaseQualifiedName(child.QualifiedName, templateRootQN, cloneRootQN)

				childCloneGUID, err := s.cloneElement(ctx, caller, child, childProps)
				if err != nil {
					return err
				}

				relationship := domain.NewRelationship(relType.Name, cloneParentGUID, childCloneGUID, edge.Properties, edge.EffectiveFrom, edge.EffectiveTo).
					WithOwningSource(caller.owningSource())
				if _, err := s.relationships.Create(ctx, relationship); err != nil {
					return err
				}

				if err := s.cloneChildren(ctx, caller, child, childCloneGUID, templateRootQN, cloneRootQN, visited); err != nil {
					return err
				}
			}
			offset += len(edges)
		}
	}
	return nil
}

// rebaseQualifiedName swaps the template root's qualified-name prefix for
// the clone's. Children outside the prefix are suffixed under the new root
// so every clone still gets a unique name.
func rebaseQualifiedName(childQN, templateRootQN, cloneRootQN string) string {
	if templateRootQN != "" && strings.HasPrefix(childQN, templateRootQN) {
		return cloneRootQN + strings.TrimPrefix(childQN, templateRootQN)
	}
	return cloneRootQN + "::" + childQN
}
