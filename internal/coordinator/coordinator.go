// Package coordinator fans a street request out to every requested collection
// concurrently and collects partial failures without aborting the request.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/usrn-labs/streetwise/internal/model"
)

// QueryResolver resolves USRNs into per-collection queries. The bounding box
// is exposed separately so the coordinator can resolve it at most once per
// request and share it across bbox collections.
type QueryResolver interface {
	Resolve(ctx context.Context, usrn string, spec model.CollectionSpec) (model.Query, error)
	BBox(ctx context.Context, usrn string) (model.BoundingBox, error)
}

// Fetcher pulls raw features for one collection.
type Fetcher interface {
	Fetch(ctx context.Context, spec model.CollectionSpec, q model.Query) ([]model.RawFeature, error)
}

// Result is the outcome of one gather: raw features per domain, plus one
// failure per domain that produced none. A domain can appear in both when
// some of its collections succeeded and one failed.
type Result struct {
	Features map[model.Domain][]model.RawFeature
	Failures map[model.Domain]model.FetchFailure
}

// Coordinator runs the concurrent fan-out. It applies a per-fetch timeout but
// never retries; retry policy belongs to the fetcher transports.
type Coordinator struct {
	resolver QueryResolver
	fetcher  Fetcher
	timeout  time.Duration
}

// New creates a Coordinator. timeout bounds each individual fetch.
func New(r QueryResolver, f Fetcher, timeout time.Duration) *Coordinator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Coordinator{resolver: r, fetcher: f, timeout: timeout}
}

// Gather dispatches one fetch per collection concurrently and merges the
// outcomes per domain. Partial failure is not total failure: a failed
// collection records a FetchFailure for its domain while the others populate
// normally. Concurrency is bounded only by the number of collections; the
// fetches share no mutable state.
func (c *Coordinator) Gather(ctx context.Context, usrn string, specs []model.CollectionSpec) *Result {
	res := &Result{
		Features: make(map[model.Domain][]model.RawFeature),
		Failures: make(map[model.Domain]model.FetchFailure),
	}

	// Resolved lazily, once, shared by every bbox collection in the request.
	sharedBBox := sync.OnceValues(func() (model.BoundingBox, error) {
		return c.resolver.BBox(ctx, usrn)
	})

	var mu sync.Mutex
	g := new(errgroup.Group)

	type fetched struct {
		spec     model.CollectionSpec
		features []model.RawFeature
	}
	results := make([]fetched, 0, len(specs))

	for _, spec := range specs {
		g.Go(func() error {
			q, err := c.resolve(ctx, usrn, spec, sharedBBox)
			if err != nil {
				c.fail(&mu, res, spec, model.StageResolve, err)
				return nil
			}

			fctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			features, err := c.fetcher.Fetch(fctx, spec, q)
			if err != nil {
				c.fail(&mu, res, spec, model.StageFetch, err)
				return nil
			}

			mu.Lock()
			results = append(results, fetched{spec: spec, features: features})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// Append in the caller's spec order so the result is independent of
	// goroutine scheduling.
	for _, spec := range specs {
		for _, r := range results {
			if r.spec.ID == spec.ID {
				res.Features[spec.Domain] = append(res.Features[spec.Domain], r.features...)
				break
			}
		}
	}
	return res
}

func (c *Coordinator) resolve(ctx context.Context, usrn string, spec model.CollectionSpec, sharedBBox func() (model.BoundingBox, error)) (model.Query, error) {
	if spec.Mode != model.QueryBBox {
		return c.resolver.Resolve(ctx, usrn, spec)
	}
	box, err := sharedBBox()
	if err != nil {
		return model.Query{}, err
	}
	return model.Query{BBox: &box}, nil
}

func (c *Coordinator) fail(mu *sync.Mutex, res *Result, spec model.CollectionSpec, stage model.FailureStage, err error) {
	failure := model.FetchFailure{
		Domain:     spec.Domain,
		Collection: spec.ID,
		Stage:      stage,
		Reason:     failureReason(err),
	}
	zap.L().Warn("collection fetch failed",
		zap.String("collection", spec.ID),
		zap.String("stage", string(stage)),
		zap.String("reason", failure.Reason),
	)

	mu.Lock()
	defer mu.Unlock()
	// Keep the first failure per domain; later ones add no signal the report
	// consumer can act on.
	if _, seen := res.Failures[spec.Domain]; !seen {
		res.Failures[spec.Domain] = failure
	}
}

// failureReason normalises common failure shapes into stable report text.
func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "upstream timeout"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	default:
		return err.Error()
	}
}
