package model

// Item is the domain model for a todo entry as the server stores it.
// ID is nil until the server has persisted the item.
type Item struct {
	ID          *int64 `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Draft returns the blank item the add form starts from.
func Draft() Item {
	return Item{Title: "", Description: "", Completed: false}
}

// IsDraft reports whether the item still waits for a create call.
func (it Item) IsDraft() bool { return it.ID == nil }

// IDValue returns the server id, or 0 for a draft.
func (it Item) IDValue() int64 {
	if it.ID == nil {
		return 0
	}
	return *it.ID
}

// WithID returns a copy of it carrying id.
func (it Item) WithID(id int64) Item {
	it.ID = &id
	return it
}

// Toggled returns a full copy with Completed inverted. Updates replace the
// whole record, so callers send this copy rather than a single field.
func (it Item) Toggled() Item {
	if it.ID != nil {
		id := *it.ID
		it.ID = &id
	}
	it.Completed = !it.Completed
	return it
}

// Summary is a one-line description used by `tada show`.
func (it Item) Summary() string {
	if it.Completed {
		return it.Title + " - Completed"
	}
	return it.Title + " - Not Completed"
}

// Stats counts done and pending items.
func Stats(items []Item) (done, pending int) {
	for _, it := range items {
		if it.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

// FindByID returns the item with the given id.
func FindByID(items []Item, id int64) (Item, bool) {
	for _, it := range items {
		if it.ID != nil && *it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}
