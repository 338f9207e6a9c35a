// Package host simulates the game environment: named players, their
// private containers, chat inboxes and open container views.
package host

import (
	"strings"

	"github.com/google/uuid"
	"github.com/rpggio/endershare/internal/container"
)

// Player is one known participant.
type Player struct {
	ID     uuid.UUID
	Name   string
	Online bool
	Chest  *container.Chest
	View   container.Container
	Inbox  []string
}

// Memory is an in-memory host. Like the rest of the core it is not safe
// for concurrent use and must be driven from the event loop.
type Memory struct {
	players map[uuid.UUID]*Player
	byName  map[string]uuid.UUID
}

// NewMemory creates an empty host.
func NewMemory() *Memory {
	return &Memory{
		players: make(map[uuid.UUID]*Player),
		byName:  make(map[string]uuid.UUID),
	}
}

// PlayerID derives a stable id from a player name, so the same name maps
// to the same participant across restarts.
func PlayerID(name string) uuid.UUID {
	return uuid.NewMD5(uuid.NameSpaceOID, []byte("OfflinePlayer:"+strings.ToLower(name)))
}

// Connect marks the named player online, creating them on first sight.
func (m *Memory) Connect(name string) *Player {
	id := PlayerID(name)
	p, ok := m.players[id]
	if !ok {
		p = &Player{
			ID:    id,
			Name:  name,
			Chest: container.NewChest(container.PrivateSize),
		}
		m.players[id] = p
		m.byName[strings.ToLower(name)] = id
	}
	p.Online = true
	return p
}

// Disconnect marks the player offline and closes any open view. It
// returns the view that was open.
func (m *Memory) Disconnect(id uuid.UUID) container.Container {
	p, ok := m.players[id]
	if !ok {
		return nil
	}
	view := p.View
	p.View = nil
	p.Online = false
	return view
}

// Lookup resolves the name of an online player.
func (m *Memory) Lookup(name string) (uuid.UUID, bool) {
	id, ok := m.byName[strings.ToLower(name)]
	if !ok || !m.players[id].Online {
		return uuid.Nil, false
	}
	return id, true
}

// Player returns the player with id.
func (m *Memory) Player(id uuid.UUID) (*Player, bool) {
	p, ok := m.players[id]
	return p, ok
}

// OnlineNames lists online player names.
func (m *Memory) OnlineNames() []string {
	var names []string
	for _, p := range m.players {
		if p.Online {
			names = append(names, p.Name)
		}
	}
	return names
}

func (m *Memory) Online(id uuid.UUID) bool {
	p, ok := m.players[id]
	return ok && p.Online
}

func (m *Memory) Name(id uuid.UUID) string {
	if p, ok := m.players[id]; ok {
		return p.Name
	}
	return id.String()
}

func (m *Memory) EnderChest(id uuid.UUID) (container.Container, bool) {
	p, ok := m.players[id]
	if !ok || !p.Online {
		return nil, false
	}
	return p.Chest, true
}

// Notify appends to an online player's inbox. Messages to offline players
// are dropped.
func (m *Memory) Notify(id uuid.UUID, message string) {
	p, ok := m.players[id]
	if !ok || !p.Online {
		return
	}
	p.Inbox = append(p.Inbox, message)
}

func (m *Memory) OpenView(id uuid.UUID, c container.Container) {
	if p, ok := m.players[id]; ok && p.Online {
		p.View = c
	}
}

func (m *Memory) CloseView(id uuid.UUID) {
	if p, ok := m.players[id]; ok {
		p.View = nil
	}
}

// Drain returns and clears the player's inbox.
func (m *Memory) Drain(id uuid.UUID) []string {
	p, ok := m.players[id]
	if !ok {
		return nil
	}
	msgs := p.Inbox
	p.Inbox = nil
	return msgs
}
