package entityloader

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader"

	"github.com/rpattn/filterql/internal/domain"
	"github.com/rpattn/filterql/internal/repository"
)

// batchWait bounds how long the loader holds keys before issuing one
// GetByIDs for everything collected in the window.
const batchWait = 5 * time.Millisecond

// EntityLoader batches entity lookups issued within one request so N
// lookups become a single repository round trip.
type EntityLoader struct {
	Loader *dataloader.Loader
}

func NewEntityLoader(repo repository.EntityRepository) *EntityLoader {
	return &EntityLoader{
		Loader: dataloader.NewBatchedLoader(batchLoad(repo), dataloader.WithWait(batchWait)),
	}
}

func batchLoad(repo repository.EntityRepository) dataloader.BatchFunc {
	return func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		results := make([]*dataloader.Result, len(keys))

		ids := make([]uuid.UUID, 0, len(keys))
		for i, key := range keys {
			id, err := uuid.Parse(key.String())
			if err != nil {
				results[i] = &dataloader.Result{Error: fmt.Errorf("invalid entity id %q: %w", key.String(), err)}
				continue
			}
			ids = append(ids, id)
		}

		entities, err := repo.GetByIDs(ctx, ids)
		if err != nil {
			for i := range results {
				if results[i] == nil {
					results[i] = &dataloader.Result{Error: fmt.Errorf("batch load entities: %w", err)}
				}
			}
			return results
		}

		byID := make(map[uuid.UUID]domain.Entity, len(entities))
		for _, entity := range entities {
			byID[entity.ID] = entity
		}

		// Results must line up with the requested keys; absent entities
		// resolve to nil data rather than an error.
		for i, key := range keys {
			if results[i] != nil {
				continue
			}
			id, _ := uuid.Parse(key.String())
			if entity, ok := byID[id]; ok {
				results[i] = &dataloader.Result{Data: entity}
			} else {
				results[i] = &dataloader.Result{Data: nil}
			}
		}
		return results
	}
}
