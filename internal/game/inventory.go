// internal/game/inventory.go
//
// Word inventory for a single exercise.
// Responsibilities:
//   - Shuffle the exercise's word bank into positional slots.
//   - Move tiles between bank slots and the answer in progress.
//   - Remember which slot every selected tile came from, so returning it
//     restores the exact slot instead of appending.
//   - Cache the first measured width per slot so placeholders keep layout.
//
// Tiles are identified by a handle assigned at shuffle time (the slot they
// were dealt into). Origins are keyed by that handle, not by answer position,
// so reordering the answer and duplicate tokens never confuse the return slot.

package game

import "math/rand"

// Shuffler permutes n elements through swap. rand.Shuffle satisfies it.
type Shuffler func(n int, swap func(i, j int))

// noTile marks an empty slot.
const noTile = -1

// Slot is the read model of one bank position.
type Slot struct {
	Text  string  `json:"text,omitempty"`
	Empty bool    `json:"empty"`
	Width float64 `json:"width,omitempty"` // 0 until measured
}

// Inventory holds the bank slots and the selected words for one exercise.
// It is not safe for concurrent use.
type Inventory struct {
	shuffle  Shuffler
	tiles    []string        // handle -> token
	slots    []int           // slot -> handle or noTile
	selected []int           // answer order, handles
	origins  map[int]int     // handle -> slot it was taken from
	widths   map[int]float64 // slot -> first measured width
	locked   bool
}

// NewInventory returns an empty inventory. A nil shuffler uses math/rand.
func NewInventory(shuffle Shuffler) *Inventory {
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	return &Inventory{
		shuffle: shuffle,
		origins: map[int]int{},
		widths:  map[int]float64{},
	}
}

// Reset deals a fresh shuffled copy of bank into the slots and clears the
// answer, origins, width cache and lock.
func (inv *Inventory) Reset(bank []string) {
	tiles := make([]string, len(bank))
	copy(tiles, bank)
	inv.shuffle(len(tiles), func(i, j int) { tiles[i], tiles[j] = tiles[j], tiles[i] })

	inv.tiles = tiles
	inv.slots = make([]int, len(tiles))
	for i := range inv.slots {
		inv.slots[i] = i
	}
	inv.selected = inv.selected[:0]
	inv.origins = map[int]int{}
	inv.widths = map[int]float64{}
	inv.locked = false
}

// Lock freezes the inventory while feedback is shown.
func (inv *Inventory) Lock() { inv.locked = true }

// Unlock re-enables moves.
func (inv *Inventory) Unlock() { inv.locked = false }

// Locked reports whether moves are currently rejected.
func (inv *Inventory) Locked() bool { return inv.locked }

// MoveToAnswer takes the tile in slot and places it in the answer at
// position at; at < 0 or past the end appends. The slot becomes a
// placeholder. Returns false (no change) when locked or when slot does not
// hold a tile.
func (inv *Inventory) MoveToAnswer(slot, at int) bool {
	if inv.locked || slot < 0 || slot >= len(inv.slots) {
		return false
	}
	h := inv.slots[slot]
	if h == noTile {
		return false
	}
	inv.slots[slot] = noTile
	inv.origins[h] = slot

	if at < 0 || at >= len(inv.selected) {
		inv.selected = append(inv.selected, h)
		return true
	}
	inv.selected = append(inv.selected, 0)
	copy(inv.selected[at+1:], inv.selected[at:])
	inv.selected[at] = h
	return true
}

// MoveToBank removes the word at answer position i and puts it back into
// the slot it came from. If that slot is unknown or taken, the first
// placeholder is used, and failing that the slot list grows.
func (inv *Inventory) MoveToBank(i int) bool {
	if inv.locked || i < 0 || i >= len(inv.selected) {
		return false
	}
	h := inv.selected[i]
	inv.selected = append(inv.selected[:i], inv.selected[i+1:]...)

	slot, ok := inv.origins[h]
	delete(inv.origins, h)
	if ok && slot < len(inv.slots) && inv.slots[slot] == noTile {
		inv.slots[slot] = h
		return true
	}
	for s, v := range inv.slots {
		if v == noTile {
			inv.slots[s] = h
			return true
		}
	}
	inv.slots = append(inv.slots, h)
	return true
}

// Move relocates the selected word at from to position to, shifting the
// words in between (drag-reorder inside the answer).
func (inv *Inventory) Move(from, to int) bool {
	n := len(inv.selected)
	if inv.locked || from < 0 || from >= n || to < 0 || to >= n || from == to {
		return false
	}
	h := inv.selected[from]
	if from < to {
		copy(inv.selected[from:to], inv.selected[from+1:to+1])
	} else {
		copy(inv.selected[to+1:from+1], inv.selected[to:from])
	}
	inv.selected[to] = h
	return true
}

// Reorder permutes the answer so that new position k holds the word that
// was at order[k]. order must be a permutation of the current positions.
func (inv *Inventory) Reorder(order []int) bool {
	if inv.locked || len(order) != len(inv.selected) {
		return false
	}
	seen := make([]bool, len(order))
	next := make([]int, len(order))
	for k, from := range order {
		if from < 0 || from >= len(order) || seen[from] {
			return false
		}
		seen[from] = true
		next[k] = inv.selected[from]
	}
	copy(inv.selected, next)
	return true
}

// RecordSlotWidth stores the measured width of a slot. Only the first
// measurement per slot is kept until the next Reset.
func (inv *Inventory) RecordSlotWidth(slot int, width float64) bool {
	if slot < 0 || slot >= len(inv.slots) || width <= 0 {
		return false
	}
	if _, ok := inv.widths[slot]; ok {
		return false
	}
	inv.widths[slot] = width
	return true
}

// SlotWidth returns the recorded width for slot, if any.
func (inv *Inventory) SlotWidth(slot int) (float64, bool) {
	w, ok := inv.widths[slot]
	return w, ok
}

// Slots returns a copy of the bank for rendering.
func (inv *Inventory) Slots() []Slot {
	out := make([]Slot, len(inv.slots))
	for i, h := range inv.slots {
		out[i].Width = inv.widths[i]
		if h == noTile {
			out[i].Empty = true
			continue
		}
		out[i].Text = inv.tiles[h]
	}
	return out
}

// Selected returns the answer in progress.
func (inv *Inventory) Selected() []string {
	out := make([]string, len(inv.selected))
	for i, h := range inv.selected {
		out[i] = inv.tiles[h]
	}
	return out
}

// SelectedCount is len(Selected()) without the copy.
func (inv *Inventory) SelectedCount() int { return len(inv.selected) }

// BankCount counts slots that still hold a tile.
func (inv *Inventory) BankCount() int {
	n := 0
	for _, h := range inv.slots {
		if h != noTile {
			n++
		}
	}
	return n
}

// Size is the number of tiles dealt by the last Reset.
func (inv *Inventory) Size() int { return len(inv.tiles) }
