package models

import "time"

// NoteLink is a directed, typed edge between two notes.
type NoteLink struct {
	ID           int64     `json:"id"`
	SourceNoteID int64     `json:"source_note_id"`
	TargetNoteID int64     `json:"target_note_id"`
	LinkType     LinkType  `json:"link_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// GraphNode is a note as seen by graph views.
type GraphNode struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	NoteType NoteType `json:"note_type"`
}

// Graph is a set of notes and the edges among them.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []NoteLink  `json:"links"`
}
