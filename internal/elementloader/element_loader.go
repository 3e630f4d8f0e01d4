package elementloader

import (
	"context"
	"fmt"
	"time"

	"github.com/openmetagraph/metacat/internal/domain"
	"github.com/openmetagraph/metacat/internal/repository"

	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader"
)

// ElementLoader batches element lookups so expanding the far ends of a
// relationship page costs one store round trip.
type ElementLoader struct {
	Loader *dataloader.Loader
}

// NewElementLoader creates a request-scoped loader over the element store.
func NewElementLoader(repo repository.ElementRepository) *ElementLoader {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		guids := make([]uuid.UUID, len(keys))
		for i, k := range keys {
			guid, err := uuid.Parse(k.String())
			if err != nil {
				// The batch contract wants one result per key.
				results := make([]*dataloader.Result, len(keys))
				for j := range results {
					results[j] = &dataloader.Result{Error: fmt.Errorf("invalid GUID %q: %w", k.String(), err)}
				}
				return results
			}
			guids[i] = guid
		}

		elements, err := repo.GetByGUIDs(ctx, guids, repository.ReadFilter{})
		if err != nil {
			results := make([]*dataloader.Result, len(keys))
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		elementMap := make(map[uuid.UUID]domain.Element)
		for _, e := range elements {
			elementMap[e.GUID] = e
		}

		// Results must line up with the requested keys
		results := make([]*dataloader.Result, len(keys))
		for i, guid := range guids {
			if e, ok := elementMap[guid]; ok {
				results[i] = &dataloader.Result{Data: e}
			} else {
				results[i] = &dataloader.Result{Data: nil}
			}
		}

		return results
	}

	loader := dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(5*time.Millisecond))

	return &ElementLoader{Loader: loader}
}

// LoadMany resolves a batch of GUIDs, dropping ones that no longer resolve
// to an active element.
func (l *ElementLoader) LoadMany(ctx context.Context, guids []uuid.UUID) ([]domain.Element, error) {
	keys := make(dataloader.Keys, len(guids))
	for i, guid := range guids {
		keys[i] = dataloader.StringKey(guid.String())
	}

	values, errs := l.Loader.LoadMany(ctx, keys)()
	if len(errs) > 0 {
		return nil, errs[0]
	}

	elements := make([]domain.Element, 0, len(values))
	for _, value := range values {
		if e, ok := value.(domain.Element); ok {
			elements = append(elements, e)
		}
	}
	return elements, nil
}
