package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Caches, catalog sources, and event
// sinks return these (optionally wrapped) so services can decide whether a
// failure is a miss to recover from or a real fault.
//
//   - ErrNotFound: key or row does not exist (cache miss, empty table)
//   - ErrUnavailable: backing service is unreachable or closed
//   - ErrBufferFull: an async queue rejected work instead of blocking
//
// For malformed input or broken catalog data, use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrBufferFull  = errors.New("buffer full")
)
