// Package driving defines the inbound ports of the retrieval engine:
// the operations the surrounding application (CLI, request handlers,
// analytics display) invokes on the core.
package driving
