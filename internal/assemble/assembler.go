// Package assemble orchestrates the per-scope pipeline: graph build,
// priority ordering, retrieval, budget allocation, and rendering of the
// final injectable payload.
package assemble

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"lorebook/internal/budget"
	lberrors "lorebook/internal/errors"
	"lorebook/internal/graph"
	"lorebook/internal/logging"
	"lorebook/internal/model"
	"lorebook/internal/priority"
	"lorebook/internal/retrieval"
)

// Stage names the pipeline steps for scope-qualified error messages.
type Stage string

const (
	// StageFiltering is the collaborator-owned pool filtering step.
	StageFiltering Stage = "filtering"
	// StageRetrieving covers graph build, ordering, and retrieval.
	StageRetrieving Stage = "retrieving"
	// StageAllocating is budget selection and tiering.
	StageAllocating Stage = "allocating"
	// StageRendered is the terminal state.
	StageRendered Stage = "rendered"
)

// Options configures an assembler.
type Options struct {
	ComponentWeights retrieval.ComponentWeights
	FactorWeights    priority.FactorWeights
	Lift             budget.LiftOptions

	// RootUID anchors the hierarchy factor; zero disables it.
	RootUID int
}

// DefaultOptions returns the shipped pipeline configuration.
func DefaultOptions() Options {
	return Options{
		ComponentWeights: retrieval.DefaultComponentWeights(),
		FactorWeights:    priority.DefaultFactorWeights(),
		Lift:             budget.DefaultLiftOptions(),
	}
}

// Assembler runs the pipeline. It holds no per-call state; one assembler
// may serve concurrent scopes against a shared read-only snapshot.
type Assembler struct {
	opts      Options
	retriever *retrieval.Engine
	allocator *budget.Allocator
	logger    *logging.Logger
}

// New creates an assembler.
func New(opts Options, logger *logging.Logger) *Assembler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Assembler{
		opts:      opts,
		retriever: retrieval.NewEngine(opts.ComponentWeights, logger),
		allocator: budget.NewAllocator(opts.Lift, logger),
		logger:    logger,
	}
}

// Assemble runs one scope's pipeline to completion. The pool must already
// be scope-filtered. A failure in any stage aborts this scope's assembly;
// there is no partial context on error. An empty pool is not a failure.
func (a *Assembler) Assemble(pool *model.CandidatePool, resolve graph.LinkResolver, query model.Query) (model.AssembledContext, error) {
	if err := query.Validate(); err != nil {
		return model.AssembledContext{}, scopeErr(pool.Scope, StageRetrieving, err)
	}

	g := graph.Build(pool.Entries, resolve)
	orders := priority.ComputeOrder(pool.Entries, g, a.opts.RootUID, a.opts.FactorWeights)
	res := a.retriever.Retrieve(pool, g, orders, query)

	ctx := a.allocator.Allocate(pool, res.Entries, res.Documents, res.Fallback, query)
	// Name-based UUID so identical inputs keep the whole context
	// byte-identical across runs.
	ctx.RunID = uuid.NewSHA1(uuid.NameSpaceOID,
		fmt.Appendf(nil, "%s|%s|%d", pool.Scope, query.Text, query.TokenBudget)).String()

	a.logger.Info("scope assembled", map[string]interface{}{
		"scope":      pool.Scope,
		"entries":    len(ctx.WorldInfo),
		"rag":        len(ctx.Rag),
		"usedTokens": ctx.UsedTokens,
	})

	return ctx, nil
}

// ScopeResult is one scope's outcome in a batch run.
type ScopeResult struct {
	Scope   string
	Context model.AssembledContext
	Err     error
}

// AssembleBatch runs every scope's pipeline concurrently against one
// read-only snapshot. A failed scope never affects the others; each result
// carries its own error. Results come back in the input scope order.
func (a *Assembler) AssembleBatch(pools []*model.CandidatePool, resolve graph.LinkResolver, query model.Query) []ScopeResult {
	results := make([]ScopeResult, len(pools))

	var wg sync.WaitGroup
	for i, pool := range pools {
		wg.Add(1)
		go func(i int, pool *model.CandidatePool) {
			defer wg.Done()
			ctx, err := a.Assemble(pool, resolve, query)
			results[i] = ScopeResult{Scope: pool.Scope, Context: ctx, Err: err}
		}(i, pool)
	}
	wg.Wait()

	return results
}

// scopeErr wraps a stage failure with its scope and stage.
func scopeErr(scope string, stage Stage, err error) error {
	return lberrors.New(lberrors.ScopeFailed,
		fmt.Sprintf("scope %q failed while %s", scope, stage), err)
}
