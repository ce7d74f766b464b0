package collision

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"go.viam.com/narrowphase/utils"
)

// Batch runs independent queries across goroutines. Geometry is shared read-only; every
// worker owns its collectors and its shard of the output.
type Batch struct {
	logger     golog.Logger
	numWorkers int
}

// NewBatch returns a batch runner. numWorkers <= 0 uses utils.ParallelFactor.
func NewBatch(logger golog.Logger, numWorkers int) *Batch {
	if numWorkers <= 0 {
		numWorkers = utils.ParallelFactor
	}
	return &Batch{logger: logger, numWorkers: numWorkers}
}

// GenerateContacts generates manifolds for every pair within maxDistance and returns them in
// a stream with one shard per worker. Cancellation is checked between pairs.
func (b *Batch) GenerateContacts(ctx context.Context, world *World, pairs []BodyIndexPair, maxDistance float64) (*ContactStream, error) {
	var err error
	for i, p := range pairs {
		if _, ok := world.Body(p.BodyIndexA); !ok {
			err = multierr.Append(err, utils.NewOutOfRangeError("pair body index", p.BodyIndexA, len(world.Bodies())))
		}
		if _, ok := world.Body(p.BodyIndexB); !ok {
			err = multierr.Append(err, utils.NewOutOfRangeError("pair body index", p.BodyIndexB, len(world.Bodies())))
		}
		if p.BodyIndexA == p.BodyIndexB {
			err = multierr.Append(err, errors.Errorf("pair %d pairs body %d with itself", i, p.BodyIndexA))
		}
	}
	if err != nil {
		return nil, err
	}

	numWorkers := utils.MinInt(b.numWorkers, utils.MaxInt(len(pairs), 1))
	stream := NewContactStream(numWorkers)
	group, ctx := errgroup.WithContext(ctx)
	for worker := 0; worker < numWorkers; worker++ {
		writer := stream.Writer(worker)
		worker := worker
		group.Go(func() error {
			saturated := 0
			emit := func(m *Manifold) {
				if m.NumContacts() == MaxContacts {
					saturated++
				}
				writer.Write(m)
			}
			for i := worker; i < len(pairs); i += numWorkers {
				if err := ctx.Err(); err != nil {
					return err
				}
				bodyA, _ := world.Body(pairs[i].BodyIndexA)
				bodyB, _ := world.Body(pairs[i].BodyIndexB)
				GenerateManifolds(bodyA, bodyB, maxDistance, emit)
			}
			if saturated > 0 {
				b.logger.Debugw("manifolds reached the contact cap", "worker", worker, "count", saturated)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	b.logger.Debugw("generated contacts", "pairs", len(pairs), "manifolds", stream.NumManifolds(), "workers", numWorkers)
	return stream, nil
}

// RaycastResult is the closest hit of one ray, if any.
type RaycastResult struct {
	Hit   RaycastHit
	Found bool
}

// CastRays casts every ray against the world and keeps the closest hit of each.
func (b *Batch) CastRays(world *World, inputs []RaycastInput) []RaycastResult {
	results := make([]RaycastResult, len(inputs))
	groups := utils.GroupWorkParallel(len(inputs), func(_, from, to int) {
		for i := from; i < to; i++ {
			c := NewClosestHitCollector[RaycastHit](1)
			world.CastRay(inputs[i], c)
			results[i].Hit, results[i].Found = c.Hit()
		}
	})
	b.logger.Debugw("cast rays", "rays", len(inputs), "groups", groups)
	return results
}

// ColliderCastResult is the closest hit of one collider cast, if any.
type ColliderCastResult struct {
	Hit   ColliderCastHit
	Found bool
}

// CastColliders runs every collider cast against the world in parallel.
func (b *Batch) CastColliders(ctx context.Context, world *World, inputs []ColliderCastInput) ([]ColliderCastResult, error) {
	results := make([]ColliderCastResult, len(inputs))
	fs := make([]utils.SimpleFunc, len(inputs))
	for i := range inputs {
		i := i
		fs[i] = func(ctx context.Context) error {
			if inputs[i].Collider == nil {
				return errors.Errorf("collider cast %d has no collider", i)
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			c := NewClosestHitCollector[ColliderCastHit](1)
			world.CastCollider(inputs[i], c)
			results[i].Hit, results[i].Found = c.Hit()
			return nil
		}
	}
	elapsed, err := utils.RunInParallel(ctx, fs)
	if err != nil {
		return nil, err
	}
	b.logger.Debugw("cast colliders", "casts", len(inputs), "elapsed", elapsed)
	return results, nil
}
