package command

import (
	"errors"

	"github.com/rpggio/endershare/internal/domain/share"
)

var (
	// ErrUsage indicates missing arguments.
	ErrUsage = errors.New("usage")
	// ErrUnknownSubcommand indicates an unrecognised subcommand.
	ErrUnknownSubcommand = errors.New("unknown subcommand")
	// ErrPlayerNotFound indicates a named player is not online.
	ErrPlayerNotFound = errors.New("player not found")
)

// MapError converts a command or domain error into the message shown to
// the actor. target is the display name of the other player, when known.
func MapError(sub, target string, err error) string {
	switch {
	case errors.Is(err, ErrUsage):
		switch sub {
		case "invite", "accept":
			return "Usage: /endershare " + sub + " <player>"
		}
		return usage
	case errors.Is(err, ErrUnknownSubcommand):
		return "Unknown subcommand. Use " + subcommandList
	case errors.Is(err, ErrPlayerNotFound):
		if sub == "accept" {
			return "Inviter not found."
		}
		return "Target player not found."
	case errors.Is(err, share.ErrSelfInvite):
		return "You cannot invite yourself."
	case errors.Is(err, share.ErrAlreadySharing):
		return "You are already sharing your Ender Chest."
	case errors.Is(err, share.ErrTargetSharing):
		return target + " is already sharing their Ender Chest."
	case errors.Is(err, share.ErrNoInvitation):
		return "No valid invitation found from " + target
	case errors.Is(err, share.ErrInvitationExpired):
		return "Your invitation from " + target + " has expired."
	case errors.Is(err, share.ErrUnreachable):
		return "Inviter not found."
	case errors.Is(err, share.ErrNotSharing):
		return "You are not currently in a sharing session."
	default:
		return "Something went wrong. Please try again."
	}
}
