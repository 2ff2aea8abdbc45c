// Package driven defines the outbound ports of the retrieval engine:
// the external collaborators it consumes (language model, embedder,
// vector index, feedback log). Adapters under internal/adapters/driven
// implement these interfaces; services depend only on the interfaces
// so collaborators can be swapped and tests can use doubles.
package driven
