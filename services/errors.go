package services

import "errors"

// Domain errors returned by the pool, prop and stats services. The calling
// layer maps these onto user-facing responses; anything not listed here is a
// store-level failure and is returned wrapped.
var (
	ErrPoolNotFound   = errors.New("pool not found")
	ErrPropNotFound   = errors.New("prop not found")
	ErrPlayerNotFound = errors.New("player not found")

	// ErrInvalidOption means an option index outside the prop's current
	// option range was supplied.
	ErrInvalidOption = errors.New("option index out of range")

	// ErrPoolNotLocked means a resolve/void/delete was attempted while the
	// pool is not in locked status and picks are not frozen yet.
	ErrPoolNotLocked = errors.New("pool is not locked")

	// ErrAlreadyVoided means a voided prop was resolved or voided again;
	// voiding is terminal.
	ErrAlreadyVoided = errors.New("prop is already voided")

	// ErrInvalidTransition means a pool lifecycle move that is not the next
	// forward step (draft -> open -> locked -> completed).
	ErrInvalidTransition = errors.New("invalid pool status transition")

	ErrNameTaken   = errors.New("player name already taken")
	ErrPicksClosed = errors.New("pool is not accepting picks")
)
