package models

// SearchHit is one note matched by a search.
type SearchHit struct {
	NoteID   int64    `json:"note_id"`
	Title    string   `json:"title"`
	NoteType NoteType `json:"note_type"`
	Snippet  string   `json:"snippet"`
}
