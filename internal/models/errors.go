package models

import "errors"

// Failure taxonomy shared across repositories, cache, services and the
// digest job. Callers test with errors.Is and decide the fallback.
var (
	// ErrCropNotFound means the crop name matched nothing in the knowledge
	// base after all normalization stages. Callers must not substitute a
	// default crop.
	ErrCropNotFound = errors.New("crop not found in knowledge base")

	// ErrNotFound is a lookup miss for a stored record (user, planting,
	// notification).
	ErrNotFound = errors.New("record not found")

	// ErrInvalidDate means a planting date could not be parsed as an
	// ISO-8601 date. Aborts only the record that carries it.
	ErrInvalidDate = errors.New("invalid planting date")

	// ErrStoreUnavailable means the durable store errored or timed out.
	// Triggers the ephemeral fallback tier.
	ErrStoreUnavailable = errors.New("durable store unavailable")

	// ErrIndexUnavailable means the secondary-index query stage failed and
	// the scan fallback takes over.
	ErrIndexUnavailable = errors.New("secondary index unavailable")

	// ErrPublishFailure means a pub/sub publish failed. Counted per user,
	// never aborts the batch.
	ErrPublishFailure = errors.New("publish failed")

	// ErrConfigMissing means a required endpoint or queue is not
	// configured. Fatal for the operation that needs it.
	ErrConfigMissing = errors.New("required configuration missing")
)
