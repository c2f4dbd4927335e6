// Package httpclient constructs the shared HTTP client used by all session
// drivers. A single client with a pooled transport is shared across workers
// so connections to the target host are reused between turns.
package httpclient
