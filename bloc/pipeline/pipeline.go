// Package pipeline adapts the filter engine to record sequences.
//
// Every operation validates its document before any record is read, so a
// validation failure never comes with partial results. Inputs may be a
// slice or a lazy sequence; outputs are either collected slices or
// single-pass lazy sequences (the *Stream variants).
package pipeline

import (
	"context"
	"iter"
	"log/slog"

	"github.com/google/uuid"

	"github.com/krew-solutions/bloc-go/bloc/deferred"
	"github.com/krew-solutions/bloc-go/bloc/filter/domain/operators"
	"github.com/krew-solutions/bloc-go/bloc/filter/domain/query"
	"github.com/krew-solutions/bloc-go/bloc/filter/domain/validation"
	"github.com/krew-solutions/bloc-go/bloc/stream"
)

// Record is one input element: a map, a struct, a pointer to a struct or a
// scalar.
type Record = any

// Document is a filter, query or stage document.
type Document = map[string]any

// Source is either a materialized or a lazy record sequence.
type Source interface {
	[]Record | iter.Seq[Record]
}

func unify[S Source](items S) iter.Seq[Record] {
	switch src := any(items).(type) {
	case []Record:
		return stream.FromSlice(src)
	case iter.Seq[Record]:
		if src == nil {
			return stream.FromSlice[Record](nil)
		}
		return src
	}
	return stream.FromSlice[Record](nil)
}

// Engine runs filter, query and aggregate invocations. It holds no state
// between invocations and is safe for concurrent use.
type Engine struct {
	profile   validation.Profile
	logger    *slog.Logger
	observer  Observer
	registry  *operators.OperatorRegistry
	evaluator *query.Evaluator
}

// New creates an Engine.
//
// Defaults:
//   - profile: validation.Full
//   - logger: discards everything
//   - observer: none
func New(opts ...Option) *Engine {
	e := &Engine{
		profile:  validation.Full,
		logger:   slog.New(slog.DiscardHandler),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = operators.NewDefaultRegistry()
	}
	e.evaluator = query.NewEvaluatorWithRegistry(e.registry)
	return e
}

func (e *Engine) Profile() validation.Profile {
	return e.profile
}

// invocation carries the per-call id through logging and observation.
type invocation struct {
	engine    *Engine
	id        string
	operation string
	logger    *slog.Logger
}

func (e *Engine) begin(operation string) *invocation {
	inv := &invocation{
		engine:    e,
		id:        uuid.NewString(),
		operation: operation,
	}
	inv.logger = e.logger.With(
		slog.String("invocation", inv.id),
		slog.String("operation", operation),
	)
	e.observer.Invoked(operation)
	inv.logger.Debug("invocation started", slog.String("profile", e.profile.String()))
	return inv
}

func (inv *invocation) reject(err error) error {
	inv.engine.observer.Rejected(inv.operation)
	inv.logger.Debug("invocation rejected", slog.String("error", err.Error()))
	return err
}

func (inv *invocation) logFilter(f query.Filter) {
	if !inv.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	doc, err := query.ToDocument(f)
	if err != nil {
		return
	}
	inv.logger.Debug("filter parsed", slog.Any("filter", doc))
}

func (inv *invocation) collect(records iter.Seq[Record]) []Record {
	out := stream.Collect(records)
	inv.engine.observer.Emitted(inv.operation, len(out))
	inv.logger.Debug("invocation completed", slog.Int("emitted", len(out)))
	return out
}

func (inv *invocation) stream(records iter.Seq[Record]) iter.Seq[Record] {
	observer, operation := inv.engine.observer, inv.operation
	return stream.Once(stream.Tap(records, func(Record) {
		observer.Emitted(operation, 1)
	}))
}

// =============================================================================
// filter
// =============================================================================

func (e *Engine) filter(inv *invocation, records iter.Seq[Record], doc Document) (iter.Seq[Record], error) {
	f, err := query.ParseFilter(doc, e.profile)
	if err != nil {
		return nil, inv.reject(err)
	}
	inv.logFilter(f)
	return e.matchStage(f)(records), nil
}

// Filter returns the records matching doc, in input order. A nil or empty
// doc returns every record.
func (e *Engine) Filter(records iter.Seq[Record], doc Document) ([]Record, error) {
	inv := e.begin(OperationFilter)
	out, err := e.filter(inv, records, doc)
	if err != nil {
		return nil, err
	}
	return inv.collect(out), nil
}

// FilterStream is Filter with a lazy single-pass result.
func (e *Engine) FilterStream(records iter.Seq[Record], doc Document) (iter.Seq[Record], error) {
	inv := e.begin(OperationFilter)
	out, err := e.filter(inv, records, doc)
	if err != nil {
		return nil, err
	}
	return inv.stream(out), nil
}

// =============================================================================
// query
// =============================================================================

// Query accepts a document holding at most a $match filter, evaluated under
// the Basic profile.
func (e *Engine) Query(records iter.Seq[Record], doc Document) ([]Record, error) {
	inv := e.begin(OperationQuery)
	if err := validation.ValidateQuery(doc); err != nil {
		return nil, inv.reject(err)
	}
	match, _ := validation.AsDocument(doc[validation.StageMatch])
	f, err := query.ParseFilter(match, validation.Basic)
	if err != nil {
		return nil, inv.reject(err)
	}
	inv.logFilter(f)
	return inv.collect(e.matchStage(f)(records)), nil
}

// =============================================================================
// aggregate
// =============================================================================

func (e *Engine) aggregate(inv *invocation, records iter.Seq[Record], doc Document) (iter.Seq[Record], error) {
	stages, err := e.compileStages(doc)
	if err != nil {
		return nil, inv.reject(err)
	}
	return chain(records, stages), nil
}

// Aggregate runs the stages of doc in the fixed order $match, $skip, $limit,
// whatever order the keys were written in. Use AggregatePipeline for
// declared order.
func (e *Engine) Aggregate(records iter.Seq[Record], doc Document) ([]Record, error) {
	inv := e.begin(OperationAggregate)
	out, err := e.aggregate(inv, records, doc)
	if err != nil {
		return nil, err
	}
	return inv.collect(out), nil
}

// AggregateStream is Aggregate with a lazy single-pass result.
func (e *Engine) AggregateStream(records iter.Seq[Record], doc Document) (iter.Seq[Record], error) {
	inv := e.begin(OperationAggregate)
	out, err := e.aggregate(inv, records, doc)
	if err != nil {
		return nil, err
	}
	return inv.stream(out), nil
}

func (e *Engine) aggregatePipeline(inv *invocation, records iter.Seq[Record], docs []Document) (iter.Seq[Record], error) {
	stages, err := e.compilePipeline(docs)
	if err != nil {
		return nil, inv.reject(err)
	}
	return chain(records, stages), nil
}

// AggregatePipeline runs single-stage documents in declared order; a stage
// kind may repeat.
func (e *Engine) AggregatePipeline(records iter.Seq[Record], docs []Document) ([]Record, error) {
	inv := e.begin(OperationAggregate)
	out, err := e.aggregatePipeline(inv, records, docs)
	if err != nil {
		return nil, err
	}
	return inv.collect(out), nil
}

// AggregatePipelineStream is AggregatePipeline with a lazy single-pass
// result.
func (e *Engine) AggregatePipelineStream(records iter.Seq[Record], docs []Document) (iter.Seq[Record], error) {
	inv := e.begin(OperationAggregate)
	out, err := e.aggregatePipeline(inv, records, docs)
	if err != nil {
		return nil, err
	}
	return inv.stream(out), nil
}

// =============================================================================
// Package-level entry points
// =============================================================================

func Filter[S Source](items S, doc Document, opts ...Option) ([]Record, error) {
	return New(opts...).Filter(unify(items), doc)
}

func FilterStream[S Source](items S, doc Document, opts ...Option) (iter.Seq[Record], error) {
	return New(opts...).FilterStream(unify(items), doc)
}

func Query[S Source](items S, doc Document, opts ...Option) ([]Record, error) {
	return New(opts...).Query(unify(items), doc)
}

// Aggregate builds an Engine from opts and aggregates items. The stages of
// doc always run as $match, then $skip, then $limit; AggregatePipeline keeps
// the declared order instead.
func Aggregate[S Source](items S, doc Document, opts ...Option) ([]Record, error) {
	return New(opts...).Aggregate(unify(items), doc)
}

// AggregateStream is Aggregate with a lazy single-pass result, in the same
// fixed stage order.
func AggregateStream[S Source](items S, doc Document, opts ...Option) (iter.Seq[Record], error) {
	return New(opts...).AggregateStream(unify(items), doc)
}

func AggregatePipeline[S Source](items S, docs []Document, opts ...Option) ([]Record, error) {
	return New(opts...).AggregatePipeline(unify(items), docs)
}

func AggregatePipelineStream[S Source](items S, docs []Document, opts ...Option) (iter.Seq[Record], error) {
	return New(opts...).AggregatePipelineStream(unify(items), docs)
}

// FilterAsync runs Filter on its own goroutine.
func FilterAsync[S Source](items S, doc Document, opts ...Option) *deferred.DeferredImp[[]Record] {
	records, e := unify(items), New(opts...)
	return deferred.Go(func() ([]Record, error) { return e.Filter(records, doc) })
}

// QueryAsync runs Query on its own goroutine.
func QueryAsync[S Source](items S, doc Document, opts ...Option) *deferred.DeferredImp[[]Record] {
	records, e := unify(items), New(opts...)
	return deferred.Go(func() ([]Record, error) { return e.Query(records, doc) })
}

// AggregateAsync runs Aggregate, with its fixed stage order, on its own
// goroutine.
func AggregateAsync[S Source](items S, doc Document, opts ...Option) *deferred.DeferredImp[[]Record] {
	records, e := unify(items), New(opts...)
	return deferred.Go(func() ([]Record, error) { return e.Aggregate(records, doc) })
}
