package container

import "bytes"

const (
	// PrivateSize is the slot count of a participant's own container.
	PrivateSize = 27
	// SharedSize is the slot count of a merged container.
	SharedSize = 2 * PrivateSize
)

// Item is an opaque serialized item. A nil Item marks an empty slot.
type Item []byte

// Empty reports whether the slot holds nothing.
func (i Item) Empty() bool {
	return i == nil
}

// Clone returns a copy that does not alias the receiver.
func (i Item) Clone() Item {
	if i == nil {
		return nil
	}
	return bytes.Clone(i)
}

// Container is a fixed-size slot array supplied by the host.
type Container interface {
	Size() int
	Get(slot int) Item
	Set(slot int, item Item)
	Clear()
}

// Contents copies every slot of c, empty slots included.
func Contents(c Container) []Item {
	items := make([]Item, c.Size())
	for i := range items {
		items[i] = c.Get(i).Clone()
	}
	return items
}

// Fill writes items into c starting at offset. Slots beyond c's size are ignored.
func Fill(c Container, offset int, items []Item) {
	for i, item := range items {
		slot := offset + i
		if slot < 0 || slot >= c.Size() {
			continue
		}
		c.Set(slot, item.Clone())
	}
}

// Slice copies n slots of c starting at offset.
func Slice(c Container, offset, n int) []Item {
	items := make([]Item, n)
	for i := range items {
		slot := offset + i
		if slot >= c.Size() {
			break
		}
		items[i] = c.Get(slot).Clone()
	}
	return items
}

// Count returns the number of non-empty slots.
func Count(items []Item) int {
	n := 0
	for _, item := range items {
		if !item.Empty() {
			n++
		}
	}
	return n
}

// Chest is an in-memory Container.
type Chest struct {
	slots []Item
}

// NewChest creates an empty chest with size slots.
func NewChest(size int) *Chest {
	return &Chest{slots: make([]Item, size)}
}

func (c *Chest) Size() int {
	return len(c.slots)
}

func (c *Chest) Get(slot int) Item {
	if slot < 0 || slot >= len(c.slots) {
		return nil
	}
	return c.slots[slot]
}

func (c *Chest) Set(slot int, item Item) {
	if slot < 0 || slot >= len(c.slots) {
		return
	}
	c.slots[slot] = item
}

func (c *Chest) Clear() {
	for i := range c.slots {
		c.slots[i] = nil
	}
}
