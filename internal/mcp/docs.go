package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `endershare simulates a game server where two players can merge their 27-slot Ender Chests into one shared 54-slot chest.

Core concepts:
- Player: identified by name; must join before acting. Offline players cannot receive chat or open containers.
- Invitation: /endershare invite <player>; expires after the configured timeout (60s by default).
- Session: created by /endershare accept <inviter>. The inviter's items fill slots 0-26, the invitee's 27-53.
- Unshare: either player runs /endershare unshare. Slots 0-26 return to the inviter, 27-53 to the invitee. Offline players get their half when they next join.

Typical flow:
1) join Alice, join Bob.
2) command Alice ["invite","Bob"], command Bob ["accept","Alice"].
3) interact, click/drag, close to edit the shared chest. Edits are saved after a quiet period, closing saves immediately.
4) command either ["unshare"].

Use inbox to read chat feedback and view to inspect containers.

Docs:
- endershare://docs/index
- endershare://docs/persistence
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "endershare://docs/index",
		Name:        "docs_index",
		Title:       "endershare docs index",
		Description: "Tools, commands and the session lifecycle.",
		Content: `# endershare

## Tools
- join / quit: player presence. join delivers pending restorations.
- command: /endershare subcommands. Rejections come back as chat messages plus an error code.
- complete: tab completion for command arguments.
- interact: open the Ender Chest (the shared chest while sharing).
- click / drag: edit the open container.
- close: close the open container.
- inbox / view: read chat and inspect state.

## Commands
- invite <player>: target must be online and not sharing.
- accept <player>: the invitation must come from that player and be younger than the timeout.
- unshare: ends the session for both players.
- status: shows the other participant.
- help: lists commands.
`,
	},
	{
		URI:         "endershare://docs/persistence",
		Name:        "docs_persistence",
		Title:       "endershare persistence",
		Description: "What is stored, when, and how restarts behave.",
		Content: `# Persistence

- Sessions are saved when created, after edits settle, when the shared chest is closed and on shutdown.
- A session's record is deleted when it is unshared.
- Pending restorations for offline players are written immediately and removed once delivered.
- On restart, stored sessions and pending restorations are reloaded. Invitations are not persisted.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
