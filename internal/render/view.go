// Package render formats durable store contents for the terminal.
package render

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/rpggio/endershare/internal/container"
	"github.com/rpggio/endershare/internal/domain/share"
	"github.com/rpggio/endershare/internal/restore"
)

// Snapshot is everything the store holds.
type Snapshot struct {
	Sessions     []share.SessionRecord
	Restorations []restore.Record
}

// Store renders a snapshot.
func Store(snap Snapshot) string {
	return renderView(snap, newStyles())
}

func renderView(snap Snapshot, s styles) string {
	lines := []string{
		s.title.Render("EnderShare store"),
		s.header.Render(fmt.Sprintf("sessions: %d  pending restorations: %d", len(snap.Sessions), len(snap.Restorations))),
	}

	sessions := []string{s.title.Render("Sessions")}
	if len(snap.Sessions) == 0 {
		sessions = append(sessions, s.empty.Render("No active sessions."))
	}
	for _, rec := range snap.Sessions {
		sessions = append(sessions, renderSession(rec, s))
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, sessions...)))

	pending := []string{s.title.Render("Pending restorations")}
	if len(snap.Restorations) == 0 {
		pending = append(pending, s.empty.Render("No pending restorations."))
	}
	for _, rec := range snap.Restorations {
		pending = append(pending, renderRestoration(rec, s))
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, pending...)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSession(rec share.SessionRecord, s styles) string {
	var first, second int
	for slot, item := range rec.Slots {
		if item.Empty() {
			continue
		}
		if slot < container.PrivateSize {
			first++
		} else {
			second++
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		s.id.Render(rec.ID),
		s.detail.Render(fmt.Sprintf("  player1 %s  (%d items in slots 0-26)", rec.Player1, first)),
		s.detail.Render(fmt.Sprintf("  player2 %s  (%d items in slots 27-53)", rec.Player2, second)),
	)
}

func renderRestoration(rec restore.Record, s styles) string {
	items, err := restore.DecodeSlots(rec.Payload, container.PrivateSize)
	if err != nil {
		return lipgloss.JoinHorizontal(lipgloss.Top,
			s.id.Render(rec.ParticipantID), " ", s.warning.Render("unreadable payload"))
	}
	slots := make([]int, 0, len(items))
	for i, item := range items {
		if !item.Empty() {
			slots = append(slots, i)
		}
	}
	sort.Ints(slots)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		s.id.Render(rec.ParticipantID), " ",
		s.detail.Render(fmt.Sprintf("%d items, slots %v", len(slots), slots)))
}
