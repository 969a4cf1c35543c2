// Package errkind defines the closed set of error categories used across the
// pipeline. Stages never panic across boundaries; they wrap one of these
// sentinels so callers can classify failures with errors.Is instead of
// string matching.
package errkind

import "errors"

// Transient marks a retry-worthy network or timeout failure.
var Transient = errors.New("transient")

// NotFound marks a corpus reference that does not exist.
var NotFound = errors.New("not found")

// BadInput marks caller-supplied data that violates an invariant.
var BadInput = errors.New("bad input")

// LLMMalformed marks an LLM response that failed strict parsing and repair.
var LLMMalformed = errors.New("llm malformed")

// Hallucinated marks an LLM-proposed reference that failed corpus
// validation. Never surfaced to a user; the offending reference is dropped.
var Hallucinated = errors.New("hallucinated reference")

// Internal marks a programming error. Callers should fail loud.
var Internal = errors.New("internal error")

// ClarificationRequired names the "needs clarification" outcome in the closed
// set of kinds. No pipeline returns or wraps it: a suspended search is a
// normal return whose SearchResult has NeedsClarification set.
var ClarificationRequired = errors.New("clarification required")
