package scheduling

import "errors"

// Error taxonomy shared by the booking and schedule-change paths. Handlers
// map these to HTTP statuses with errors.Is; services wrap them with %w to
// carry the failing reference.
var (
	// ErrNotFound: a referenced doctor, patient, schedule, examination or
	// request id did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrConflict: the proposed interval overlaps committed data or an
	// in-flight change request.
	ErrConflict = errors.New("interval conflict")

	// ErrInvalidState: the operation is not legal for the entity's current
	// state, including a no-op schedule update.
	ErrInvalidState = errors.New("invalid state")

	// ErrUnauthorized: the acting doctor is not the request's target doctor.
	ErrUnauthorized = errors.New("unauthorized actor")

	// ErrFatal: optimistic-concurrency retries were exhausted while applying
	// an approved change. The owning request is left APPROVED and needs
	// operator attention.
	ErrFatal = errors.New("schedule apply failed")

	// ErrVersionConflict: a conditional schedule write lost the version race.
	// Internal to the applier's retry loop; never surfaced directly.
	ErrVersionConflict = errors.New("schedule version conflict")
)
