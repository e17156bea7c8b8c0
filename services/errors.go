package services

import "errors"

var (
	ErrChallengeNotFound       = errors.New("challenge not found")
	ErrActiveChallengeExists   = errors.New("an active challenge of this type already exists")
	ErrChallengeInactive       = errors.New("challenge is complete or deleted")
	ErrChallengeTypeMismatch   = errors.New("operation does not apply to this challenge type")
	ErrSlotNotFound            = errors.New("slot not found")
	ErrSlotCompleted           = errors.New("slot is completed and cannot be changed")
	ErrAlreadyAssigned         = errors.New("already assigned to another slot in this challenge")
	ErrExcluded                = errors.New("already played too far to count toward this challenge")
	ErrInvalidKey              = errors.New("invalid slot key")
	ErrLetterMismatch          = errors.New("game title does not start with this letter")
	ErrGenreMismatch           = errors.New("concept is not tagged with this genre")
	ErrGameNotFound            = errors.New("game not found")
	ErrConceptNotFound         = errors.New("concept not found")
	ErrProfileNotFound         = errors.New("profile not found")
	ErrRecalculationInProgress = errors.New("recalculation already in progress")
	ErrNotificationNotFound    = errors.New("notification not found")
)
