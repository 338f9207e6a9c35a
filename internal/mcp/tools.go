package mcp

import (
	"context"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/endershare/internal/command"
	"github.com/rpggio/endershare/internal/container"
	"github.com/rpggio/endershare/internal/domain/share"
	"github.com/rpggio/endershare/internal/host"
)

type tools struct {
	manager    *share.Manager
	host       *host.Memory
	runner     Runner
	dispatcher *command.Dispatcher
	logger     *slog.Logger
}

func (t *tools) register(server *sdkmcp.Server) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "join",
		Description: "Bring a player online, creating them on first join. Delivers any pending Ender Chest restoration.",
	}, t.join)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "quit",
		Description: "Take a player offline. An open shared view is saved first.",
	}, t.quit)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "command",
		Description: "Run /endershare <invite|accept|unshare|status|help> as a player and return the chat feedback.",
	}, t.command)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "complete",
		Description: "Tab completion candidates for /endershare arguments.",
	}, t.complete)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "interact",
		Description: "Open the player's Ender Chest. Sharing players get the shared chest instead.",
	}, t.interact)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "click",
		Description: "Set one slot of the player's open container.",
	}, t.click)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "drag",
		Description: "Set several slots of the player's open container in one gesture.",
	}, t.drag)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "close",
		Description: "Close the player's open container. Closing the shared chest saves it.",
	}, t.close)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "inbox",
		Description: "Return and clear the chat messages a player has received.",
	}, t.inbox)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "view",
		Description: "Inspect a player's open container, Ender Chest and session.",
	}, t.view)
}

// run executes fn on the loop and maps its error for the client.
func (t *tools) run(ctx context.Context, fn func() error) error {
	var err error
	if doErr := t.runner.Do(ctx, func() { err = fn() }); doErr != nil {
		return doErr
	}
	return mapError(err)
}

func (t *tools) lookup(name string, online bool) (*host.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingPlayer
	}
	p, ok := t.host.Player(host.PlayerID(name))
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if online && !p.Online {
		return nil, ErrOffline
	}
	return p, nil
}

// viewingShared reports whether p has its session's shared container open.
func (t *tools) viewingShared(p *host.Player) bool {
	if p.View == nil {
		return false
	}
	sess, ok := t.manager.Registry().Get(p.ID)
	return ok && sess.Shared == p.View
}

func (t *tools) join(ctx context.Context, _ *sdkmcp.CallToolRequest, in PlayerParams) (*sdkmcp.CallToolResult, JoinResult, error) {
	var out JoinResult
	err := t.run(ctx, func() error {
		name := strings.TrimSpace(in.Player)
		if name == "" {
			return ErrMissingPlayer
		}
		p := t.host.Connect(name)
		out.Player = p.Name
		out.ID = p.ID.String()
		out.Restored = t.manager.Join(ctx, p.ID)
		out.Messages = nonNil(t.host.Drain(p.ID))
		t.logger.Info("player joined", "player", p.Name, "restored", out.Restored)
		return nil
	})
	return nil, out, err
}

func (t *tools) quit(ctx context.Context, _ *sdkmcp.CallToolRequest, in PlayerParams) (*sdkmcp.CallToolResult, QuitResult, error) {
	var out QuitResult
	err := t.run(ctx, func() error {
		p, err := t.lookup(in.Player, true)
		if err != nil {
			return err
		}
		if t.viewingShared(p) {
			out.Saved = t.manager.ContainerClosed(ctx, p.ID)
		}
		t.host.Disconnect(p.ID)
		t.logger.Info("player quit", "player", p.Name)
		return nil
	})
	return nil, out, err
}

func (t *tools) command(ctx context.Context, _ *sdkmcp.CallToolRequest, in CommandParams) (*sdkmcp.CallToolResult, CommandResult, error) {
	var out CommandResult
	err := t.run(ctx, func() error {
		p, err := t.lookup(in.Player, true)
		if err != nil {
			return err
		}
		// Rejections are player feedback, not tool failures.
		if cmdErr := t.dispatcher.Execute(ctx, p.ID, in.Args); cmdErr != nil {
			out.Error = MapError(cmdErr)
		}
		out.Messages = nonNil(t.host.Drain(p.ID))
		return nil
	})
	return nil, out, err
}

func (t *tools) complete(ctx context.Context, _ *sdkmcp.CallToolRequest, in CompleteParams) (*sdkmcp.CallToolResult, CompleteResult, error) {
	var out CompleteResult
	err := t.run(ctx, func() error {
		out.Candidates = nonNil(command.Complete(in.Args, t.host.OnlineNames()))
		return nil
	})
	return nil, out, err
}

func (t *tools) interact(ctx context.Context, _ *sdkmcp.CallToolRequest, in PlayerParams) (*sdkmcp.CallToolResult, InteractResult, error) {
	var out InteractResult
	err := t.run(ctx, func() error {
		p, err := t.lookup(in.Player, true)
		if err != nil {
			return err
		}
		out.Shared = t.manager.Interact(p.ID)
		if !out.Shared {
			t.host.OpenView(p.ID, p.Chest)
		}
		out.Messages = nonNil(t.host.Drain(p.ID))
		return nil
	})
	return nil, out, err
}

func (t *tools) click(ctx context.Context, _ *sdkmcp.CallToolRequest, in ClickParams) (*sdkmcp.CallToolResult, EditResult, error) {
	return t.edit(ctx, in.Player, []SlotEdit{{Slot: in.Slot, Item: in.Item}})
}

func (t *tools) drag(ctx context.Context, _ *sdkmcp.CallToolRequest, in DragParams) (*sdkmcp.CallToolResult, EditResult, error) {
	return t.edit(ctx, in.Player, in.Slots)
}

func (t *tools) edit(ctx context.Context, player string, edits []SlotEdit) (*sdkmcp.CallToolResult, EditResult, error) {
	var out EditResult
	err := t.run(ctx, func() error {
		p, err := t.lookup(player, true)
		if err != nil {
			return err
		}
		if p.View == nil {
			return ErrNoView
		}
		for _, e := range edits {
			if e.Slot < 0 || e.Slot >= p.View.Size() {
				return ErrInvalidSlot
			}
		}
		for _, e := range edits {
			var item container.Item
			if e.Item != "" {
				item = container.Item(e.Item)
			}
			p.View.Set(e.Slot, item)
		}
		if t.viewingShared(p) {
			out.Shared = t.manager.ContainerChanged(p.ID)
		}
		return nil
	})
	return nil, out, err
}

func (t *tools) close(ctx context.Context, _ *sdkmcp.CallToolRequest, in PlayerParams) (*sdkmcp.CallToolResult, CloseResult, error) {
	var out CloseResult
	err := t.run(ctx, func() error {
		p, err := t.lookup(in.Player, true)
		if err != nil {
			return err
		}
		if p.View == nil {
			return ErrNoView
		}
		if t.viewingShared(p) {
			out.Saved = t.manager.ContainerClosed(ctx, p.ID)
		}
		t.host.CloseView(p.ID)
		return nil
	})
	return nil, out, err
}

func (t *tools) inbox(ctx context.Context, _ *sdkmcp.CallToolRequest, in PlayerParams) (*sdkmcp.CallToolResult, InboxResult, error) {
	var out InboxResult
	err := t.run(ctx, func() error {
		p, err := t.lookup(in.Player, false)
		if err != nil {
			return err
		}
		out.Messages = nonNil(t.host.Drain(p.ID))
		return nil
	})
	return nil, out, err
}

func (t *tools) view(ctx context.Context, _ *sdkmcp.CallToolRequest, in PlayerParams) (*sdkmcp.CallToolResult, ViewResult, error) {
	var out ViewResult
	err := t.run(ctx, func() error {
		p, err := t.lookup(in.Player, false)
		if err != nil {
			return err
		}
		out.Player = p.Name
		out.Online = p.Online
		out.EnderChest = slots(p.Chest)
		out.Pending = t.manager.Restorations().HasPending(p.ID)
		if sess, ok := t.manager.Registry().Get(p.ID); ok {
			out.SessionID = sess.ID
			out.Counterpart = t.host.Name(sess.Counterpart(p.ID))
		}
		if p.View != nil {
			out.ViewOpen = true
			out.ViewShared = t.viewingShared(p)
			out.ViewSize = p.View.Size()
			out.View = slots(p.View)
		}
		return nil
	})
	return nil, out, err
}

func slots(c container.Container) []Slot {
	out := []Slot{}
	for i, item := range container.Contents(c) {
		if !item.Empty() {
			out = append(out, Slot{Slot: i, Item: string(item)})
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
