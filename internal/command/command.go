// Package command implements the /endershare chat command.
package command

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rpggio/endershare/internal/domain/share"
)

const (
	subcommandList = "/endershare <invite|accept|unshare|status|help>"
	usage          = "Usage: " + subcommandList
)

var subcommands = []string{"invite", "accept", "unshare", "status", "help"}

var helpLines = []string{
	"/endershare invite <player> - invite an online player to share Ender Chests",
	"/endershare accept <player> - accept a pending invitation",
	"/endershare unshare - end your session and split the shared chest",
	"/endershare status - show who you are sharing with",
}

// Sharing is the lifecycle surface the dispatcher drives.
type Sharing interface {
	Invite(ctx context.Context, inviter, invitee uuid.UUID) (*share.Invitation, error)
	Accept(ctx context.Context, invitee, inviter uuid.UUID) (*share.Session, error)
	Unshare(ctx context.Context, participant uuid.UUID) (*share.UnshareResult, error)
	Status(participant uuid.UUID) (uuid.UUID, bool)
}

// Directory resolves player names and delivers feedback.
type Directory interface {
	// Lookup resolves the name of an online player.
	Lookup(name string) (uuid.UUID, bool)
	Name(id uuid.UUID) string
	Notify(id uuid.UUID, message string)
}

// Dispatcher routes subcommands to the sharing lifecycle. It must be used
// from the same goroutine as the lifecycle it drives.
type Dispatcher struct {
	sharing Sharing
	players Directory
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(sharing Sharing, players Directory, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{sharing: sharing, players: players, logger: logger}
}

// Execute runs one command for actor. Every outcome, including
// rejections, is reported to the actor; the returned error is the
// rejection cause, if any.
func (d *Dispatcher) Execute(ctx context.Context, actor uuid.UUID, args []string) error {
	var sub string
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
	}

	target, err := d.run(ctx, actor, sub, args)
	if err != nil {
		d.players.Notify(actor, MapError(sub, target, err))
		d.logger.Debug("command rejected", "actor", actor, "subcommand", sub, "error", err)
	}
	return err
}

func (d *Dispatcher) run(ctx context.Context, actor uuid.UUID, sub string, args []string) (string, error) {
	switch sub {
	case "":
		return "", ErrUsage
	case "invite":
		if len(args) < 2 {
			return "", ErrUsage
		}
		target, ok := d.players.Lookup(args[1])
		if !ok {
			return args[1], ErrPlayerNotFound
		}
		_, err := d.sharing.Invite(ctx, actor, target)
		return d.players.Name(target), err
	case "accept":
		if len(args) < 2 {
			return "", ErrUsage
		}
		inviter, ok := d.players.Lookup(args[1])
		if !ok {
			return args[1], ErrPlayerNotFound
		}
		_, err := d.sharing.Accept(ctx, actor, inviter)
		return d.players.Name(inviter), err
	case "unshare":
		_, err := d.sharing.Unshare(ctx, actor)
		return "", err
	case "status":
		other, ok := d.sharing.Status(actor)
		if !ok {
			d.players.Notify(actor, "You are not in an active sharing session.")
			return "", nil
		}
		d.players.Notify(actor, "You are sharing with: "+d.players.Name(other))
		return "", nil
	case "help":
		for _, line := range helpLines {
			d.players.Notify(actor, line)
		}
		return "", nil
	default:
		return "", ErrUnknownSubcommand
	}
}

// Complete returns completion candidates for the partially typed args.
// online lists the names of online players.
func Complete(args []string, online []string) []string {
	var candidates []string
	var prefix string
	switch len(args) {
	case 0:
		return append([]string(nil), subcommands...)
	case 1:
		candidates, prefix = subcommands, args[0]
	case 2:
		switch strings.ToLower(args[0]) {
		case "invite", "accept":
			candidates, prefix = online, args[1]
		default:
			return nil
		}
	default:
		return nil
	}

	prefix = strings.ToLower(prefix)
	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), prefix) {
			out = append(out, c)
		}
	}
	if len(args) == 2 {
		sort.Strings(out)
	}
	return out
}
