package restore

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/rpggio/endershare/internal/container"
	"gopkg.in/yaml.v3"
)

type slotDocument struct {
	Slot map[string]string `yaml:"slot,omitempty"`
}

// EncodeSlots serializes the non-empty slots of items as a sparse YAML
// mapping of slot index to base64 item payload.
func EncodeSlots(items []container.Item) (string, error) {
	doc := slotDocument{Slot: make(map[string]string)}
	for i, item := range items {
		if item.Empty() {
			continue
		}
		doc.Slot[strconv.Itoa(i)] = base64.StdEncoding.EncodeToString(item)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode slots: %w", err)
	}
	return string(data), nil
}

// DecodeSlots parses a sparse slot mapping into a fixed array of size
// slots. Unknown, out-of-range or undecodable slots are dropped.
func DecodeSlots(data string, size int) ([]container.Item, error) {
	items := make([]container.Item, size)
	var doc slotDocument
	if err := yaml.Unmarshal([]byte(data), &doc); err != nil {
		return items, fmt.Errorf("decode slots: %w", err)
	}
	for key, raw := range doc.Slot {
		slot, err := strconv.Atoi(key)
		if err != nil || slot < 0 || slot >= size {
			continue
		}
		item, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			continue
		}
		items[slot] = container.Item(item)
	}
	return items, nil
}
