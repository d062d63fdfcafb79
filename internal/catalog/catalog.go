package catalog

import (
	"strings"
)

// SlotID identifies a slot within a Catalog. IDs are stable for the lifetime
// of the catalog and index the load-order slice.
type SlotID int

// Slot is one canonical competition event.
type Slot struct {
	Level    string
	Gender   string // "Female", "Male", or empty for ungendered events
	Category string

	// Media-length bounds in seconds. Zero means no bound; a zero MaxLength
	// marks an event that takes no submitted media at all.
	MinLength int
	MaxLength int

	// Name is the canonical key: level, gender qualifier, category.
	Name string
	// ShortName drops the "Solo " qualifier from the category; submissions
	// reference events by this form.
	ShortName string
}

// NewSlot derives the canonical and short keys for a slot definition.
func NewSlot(level, gender, category string, minLength, maxLength int) Slot {
	name := level
	switch gender {
	case "Female":
		name += " Ladies"
	case "Male":
		name += " Mens"
	}
	name += " " + category

	return Slot{
		Level:     level,
		Gender:    gender,
		Category:  category,
		MinLength: minLength,
		MaxLength: maxLength,
		Name:      name,
		ShortName: level + " " + strings.Replace(category, "Solo ", "", 1),
	}
}

// ExpectsMedia reports whether competitors in this slot submit music.
func (s Slot) ExpectsMedia() bool {
	return s.MaxLength > 0
}

// Catalog is the immutable canonical slot set, indexed by canonical name.
type Catalog struct {
	slots  []Slot
	byName map[string]SlotID
}

// New builds a catalog from slot definitions in load order.
func New(slots []Slot) *Catalog {
	c := &Catalog{
		slots:  append([]Slot(nil), slots...),
		byName: make(map[string]SlotID, len(slots)),
	}
	for i, slot := range c.slots {
		c.byName[slot.Name] = SlotID(i)
	}
	return c
}

// Slots returns all slots in load order.
func (c *Catalog) Slots() []Slot {
	return c.slots
}

// Slot returns the slot for an ID. The ID must come from this catalog.
func (c *Catalog) Slot(id SlotID) Slot {
	return c.slots[id]
}

// Len reports the number of slots.
func (c *Catalog) Len() int {
	return len(c.slots)
}

// Lookup finds a slot by canonical name.
func (c *Catalog) Lookup(name string) (SlotID, bool) {
	id, ok := c.byName[name]
	return id, ok
}

// Resolve normalizes a free-text event label and looks it up. It fails with
// an UnrecognizedEventError when the normalized key is not in the catalog,
// and passes through normalization faults such as gender conflicts.
func (c *Catalog) Resolve(rawLabel, gender string) (SlotID, error) {
	name, err := Normalize(rawLabel, gender)
	if err != nil {
		return 0, err
	}
	id, ok := c.byName[name]
	if !ok {
		return 0, &UnrecognizedEventError{Label: rawLabel, Normalized: name}
	}
	return id, nil
}
