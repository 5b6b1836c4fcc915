// Package engine implements the cached Bayesian inference engine at the
// core of oufit.
//
// # Build once, rebind data
//
// Rebuilding a model graph for every dataset is the expensive part of
// repeated inference. The engine avoids it: the first CacheModel or Run
// call wraps every named input in a mutable DataContainer and builds the
// variant's graph against those containers, exactly once per engine
// instance. Every later Run overwrites the containers' contents in place
// and samples again; the graph structure, including its identity Marker,
// is untouched. Rebinding a value of a different length is a
// shape-mismatch error, not a silent rebuild.
//
// # Graphs
//
// A Graph is a fixed set of free variables (each with a prior density and
// a support transform into unconstrained space), deterministic scalar
// nodes, and log-likelihood terms. It exposes the unnormalized
// log-posterior over the unconstrained vector, which is the contract the
// sampler package consumes, and records draws as constrained parameter
// rows including the deterministic nodes.
//
// Graphs are constructed through a scoped GraphBuilder inside Build; the
// builder is finalized when the construction function returns, error or
// not, and panics if used afterwards.
//
// # Variants
//
// Model variants implement ModelBuilder. The base engine holds no
// variant-specific logic: New(nil) yields an engine whose builds fail
// with a not-implemented error. The four Ornstein-Uhlenbeck variants live
// in the models package.
//
// # Concurrency
//
// Engine instances are NOT safe for concurrent use. Run blocks until
// sampling completes; cancel the context to abort between sampler
// batches.
package engine
