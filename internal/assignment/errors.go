package assignment

import (
	"errors"
	"fmt"
)

// Precondition errors abort an operation before anything is written.
var (
	ErrNotFound               = errors.New("not found")
	ErrAssignmentWindowClosed = errors.New("task assignment is not allowed at this time")
	ErrQuotaExceeded          = errors.New("participant already holds the required number of tasks")
	ErrParticipantNotVerified = errors.New("participant email is not verified")
)

// Candidate pool errors end a batch before any pairing is attempted.
var (
	ErrInsufficientTasks      = errors.New("no tasks available for assignment")
	ErrNoEligibleParticipants = errors.New("no participants need task assignment")

	// ErrAllSaturated narrows ErrNoEligibleParticipants to the case where
	// verified participants exist but all of them already hold their quota.
	ErrAllSaturated = fmt.Errorf("%w: every participant holds the required number of tasks", ErrNoEligibleParticipants)
)

// Ledger errors.
var (
	ErrDuplicatePair          = errors.New("task is already assigned to this participant")
	ErrInvalidStateTransition = errors.New("invalid assignment state transition")
)

// Submission and evaluation errors.
var (
	ErrSubmissionClosed = errors.New("hackathon is not accepting submissions")
	ErrNotOwner         = errors.New("assignment belongs to another participant")
	ErrInvalidScore     = errors.New("score must be between 0 and 100")
	ErrNotLatest        = errors.New("only the latest submission can be evaluated")
)

// Enrollment errors.
var (
	ErrEnrollmentClosed = errors.New("hackathon is not accepting enrollments")
	ErrAlreadyEnrolled  = errors.New("participant is already enrolled")
	ErrHackathonFull    = errors.New("hackathon has reached its participant capacity")
)
