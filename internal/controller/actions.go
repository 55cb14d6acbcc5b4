package controller

import "github.com/idilsaglam/tada-remote/internal/model"

// Action is a user intent handed to Dispatch.
type Action interface {
	action()
}

// OpenCreate opens the form on a blank draft.
type OpenCreate struct{}

// OpenEdit opens the form on an existing item, replacing any item being edited.
type OpenEdit struct{ Item model.Item }

// CloseModal dismisses the form without saving.
type CloseModal struct{}

// Submit saves the form: update when Item has an id, create otherwise.
type Submit struct{ Item model.Item }

// Delete removes Item on the server.
type Delete struct{ Item model.Item }

// ToggleComplete flips Completed by sending a full copy of Item.
type ToggleComplete struct{ Item model.Item }

// SetFilter selects which tab is showing. It never talks to the server.
type SetFilter struct{ Completed bool }

// Refresh reloads the collection.
type Refresh struct{}

func (OpenCreate) action()     {}
func (OpenEdit) action()       {}
func (CloseModal) action()     {}
func (Submit) action()         {}
func (Delete) action()         {}
func (ToggleComplete) action() {}
func (SetFilter) action()      {}
func (Refresh) action()        {}
