package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/endershare/internal/command"
	"github.com/rpggio/endershare/internal/domain/share"
)

var (
	// ErrUnknownPlayer indicates the named player has never joined.
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrOffline indicates the player must be online for the action.
	ErrOffline = errors.New("player offline")
	// ErrNoView indicates the player has no container open.
	ErrNoView = errors.New("no container open")
	// ErrInvalidSlot indicates a slot outside the open container.
	ErrInvalidSlot = errors.New("invalid slot")
	// ErrMissingPlayer indicates the player argument was empty.
	ErrMissingPlayer = errors.New("player is required")
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrMissingPlayer):
		return &APIError{Code: "INVALID_INPUT", Message: "player is required", RecoveryHint: "Pass the player name"}
	case errors.Is(err, ErrUnknownPlayer):
		return &APIError{Code: "UNKNOWN_PLAYER", Message: "player has never joined", RecoveryHint: "Call join first"}
	case errors.Is(err, ErrOffline):
		return &APIError{Code: "PLAYER_OFFLINE", Message: "player is offline", RecoveryHint: "Call join first"}
	case errors.Is(err, ErrNoView):
		return &APIError{Code: "NO_VIEW", Message: "no container open", RecoveryHint: "Call interact first"}
	case errors.Is(err, ErrInvalidSlot):
		return &APIError{Code: "INVALID_SLOT", Message: "slot outside the open container", RecoveryHint: "Check the view size"}
	case errors.Is(err, command.ErrUsage):
		return &APIError{Code: "USAGE", Message: "missing arguments"}
	case errors.Is(err, command.ErrUnknownSubcommand):
		return &APIError{Code: "UNKNOWN_SUBCOMMAND", Message: "unknown subcommand", RecoveryHint: "Run help"}
	case errors.Is(err, command.ErrPlayerNotFound):
		return &APIError{Code: "PLAYER_NOT_FOUND", Message: "target player is not online"}
	case errors.Is(err, share.ErrSelfInvite):
		return &APIError{Code: "SELF_INVITE", Message: "cannot invite yourself"}
	case errors.Is(err, share.ErrAlreadySharing):
		return &APIError{Code: "ALREADY_SHARING", Message: "already in a session", RecoveryHint: "Unshare first"}
	case errors.Is(err, share.ErrTargetSharing):
		return &APIError{Code: "TARGET_SHARING", Message: "target already in a session"}
	case errors.Is(err, share.ErrNoInvitation):
		return &APIError{Code: "NO_INVITATION", Message: "no matching invitation", RecoveryHint: "Ask for a new invitation"}
	case errors.Is(err, share.ErrInvitationExpired):
		return &APIError{Code: "INVITATION_EXPIRED", Message: "invitation expired", RecoveryHint: "Ask for a new invitation"}
	case errors.Is(err, share.ErrUnreachable):
		return &APIError{Code: "UNREACHABLE", Message: "participant offline"}
	case errors.Is(err, share.ErrNotSharing):
		return &APIError{Code: "NOT_SHARING", Message: "not in a session"}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
