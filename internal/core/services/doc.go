// Package services implements the core retrieval pipeline: query
// planning, concurrent fan-out against the vector index, rank-and-merge
// of the partial results, and feedback quality tracking. Services
// depend on the driven ports only; wiring concrete adapters is the
// caller's job.
package services
