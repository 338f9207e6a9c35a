package share

import "errors"

var (
	// ErrSelfInvite indicates a participant invited themself.
	ErrSelfInvite = errors.New("cannot invite yourself")
	// ErrAlreadySharing indicates the acting participant is already in a session.
	ErrAlreadySharing = errors.New("already sharing")
	// ErrTargetSharing indicates the other participant is already in a session.
	ErrTargetSharing = errors.New("target already sharing")
	// ErrNotSharing indicates the participant has no active session.
	ErrNotSharing = errors.New("not sharing")
	// ErrNoInvitation indicates no matching pending invitation exists.
	ErrNoInvitation = errors.New("no valid invitation")
	// ErrInvitationExpired indicates the invitation outlived its timeout.
	ErrInvitationExpired = errors.New("invitation expired")
	// ErrUnreachable indicates a participant required for live delivery is offline.
	ErrUnreachable = errors.New("participant unreachable")
	// ErrSessionConflict indicates a registry insert would break the one-session rule.
	ErrSessionConflict = errors.New("participant already mapped to another session")
)
