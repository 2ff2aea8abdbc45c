// Package domain contains the core business entities of the retrieval
// engine: content records, query plans, ranked results, and feedback
// events. Types here have no dependencies on infrastructure and are
// shared by all services and adapters.
package domain
