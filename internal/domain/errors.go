package domain

import "errors"

// Errors returned by the ledger and staged record store. Callers should
// check with errors.Is().
var (
	// ErrRunActive is returned when a new run is started while another run
	// is still RUNNING. The scheduler should skip the cycle, not retry.
	ErrRunActive = errors.New("a crawl run is already in progress")

	// ErrNotFound is returned when a run or record id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when a terminal transition is attempted
	// on an already-terminal run, or when a claim loses the race to another
	// worker. For claims this is benign: treat it as "already taken".
	ErrInvalidState = errors.New("invalid state for transition")
)
