// Package models defines the domain types for TeleNote.
package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// NoteType classifies a note.
type NoteType string

// Note types.
const (
	NoteTypeNote    NoteType = "note"
	NoteTypeTask    NoteType = "task"
	NoteTypeProject NoteType = "project"
)

// LinkType is the semantic kind of a directed edge between two notes.
type LinkType string

// Link types.
const (
	LinkReference LinkType = "reference"
	LinkParent    LinkType = "parent"
	LinkChild     LinkType = "child"
	LinkRelated   LinkType = "related"
)

// Priority of a task.
type Priority string

// Task priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

// Task statuses.
const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusBlocked    TaskStatus = "blocked"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

var (
	noteTypes  = []interface{}{"note", "task", "project"}
	linkTypes  = []interface{}{"reference", "parent", "child", "related"}
	priorities = []interface{}{"low", "medium", "high", "urgent"}
	statuses   = []interface{}{"todo", "in_progress", "blocked", "completed", "cancelled"}
)

// Validate checks that t is one of the known note types.
func (t NoteType) Validate() error {
	return validation.Validate(string(t), validation.Required, validation.In(noteTypes...))
}

// Validate checks that t is one of the known link types.
func (t LinkType) Validate() error {
	return validation.Validate(string(t), validation.Required, validation.In(linkTypes...))
}

// Validate checks that p is one of the known priorities.
func (p Priority) Validate() error {
	return validation.Validate(string(p), validation.Required, validation.In(priorities...))
}

// Validate checks that s is one of the known statuses.
func (s TaskStatus) Validate() error {
	return validation.Validate(string(s), validation.Required, validation.In(statuses...))
}

// FlagFilter selects rows by a boolean flag. The zero value excludes flagged rows,
// which is what normal listings want.
type FlagFilter int

// Flag filter modes.
const (
	FlagExclude FlagFilter = iota
	FlagOnly
	FlagAny
)

// ParseFlagFilter maps "exclude", "only" and "any" (or "", "true", "all") to a FlagFilter.
func ParseFlagFilter(s string) (FlagFilter, error) {
	switch s {
	case "", "exclude", "false":
		return FlagExclude, nil
	case "only", "true":
		return FlagOnly, nil
	case "any", "all", "include":
		return FlagAny, nil
	}
	return FlagExclude, validation.NewError("validation_flag_filter", "must be one of exclude, only, any")
}

// Direction of graph traversal relative to a note.
type Direction string

// Traversal directions.
const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
)
