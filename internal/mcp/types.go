package mcp

type PlayerParams struct {
	Player string `json:"player" jsonschema:"player name"`
}

type CommandParams struct {
	Player string   `json:"player" jsonschema:"player issuing the command"`
	Args   []string `json:"args" jsonschema:"arguments after /endershare, e.g. [\"invite\", \"Bob\"]"`
}

type CompleteParams struct {
	Args []string `json:"args" jsonschema:"arguments typed so far; the last one may be partial"`
}

type ClickParams struct {
	Player string `json:"player" jsonschema:"player clicking"`
	Slot   int    `json:"slot" jsonschema:"slot index in the open container"`
	Item   string `json:"item,omitempty" jsonschema:"item to place; empty clears the slot"`
}

type SlotEdit struct {
	Slot int    `json:"slot"`
	Item string `json:"item,omitempty"`
}

type DragParams struct {
	Player string     `json:"player" jsonschema:"player dragging"`
	Slots  []SlotEdit `json:"slots" jsonschema:"slots touched by the drag"`
}

// Slot is one non-empty slot of a container.
type Slot struct {
	Slot int    `json:"slot"`
	Item string `json:"item"`
}

type JoinResult struct {
	Player   string   `json:"player"`
	ID       string   `json:"id"`
	Restored bool     `json:"restored"`
	Messages []string `json:"messages"`
}

type QuitResult struct {
	Saved bool `json:"saved"`
}

type CommandResult struct {
	Messages []string  `json:"messages"`
	Error    *APIError `json:"error,omitempty"`
}

type CompleteResult struct {
	Candidates []string `json:"candidates"`
}

type InteractResult struct {
	Shared   bool     `json:"shared"`
	Messages []string `json:"messages"`
}

type EditResult struct {
	Shared bool `json:"shared"`
}

type CloseResult struct {
	Saved bool `json:"saved"`
}

type InboxResult struct {
	Messages []string `json:"messages"`
}

type ViewResult struct {
	Player      string `json:"player"`
	Online      bool   `json:"online"`
	SessionID   string `json:"session_id,omitempty"`
	Counterpart string `json:"counterpart,omitempty"`
	ViewOpen    bool   `json:"view_open"`
	ViewShared  bool   `json:"view_shared"`
	ViewSize    int    `json:"view_size,omitempty"`
	View        []Slot `json:"view,omitempty"`
	EnderChest  []Slot `json:"ender_chest"`
	Pending     bool   `json:"pending_restoration"`
}
