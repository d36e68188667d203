package mcpserver

// DataModelContract describes the note model that LLM consumers should
// follow when creating notes and links.
const DataModelContract = `# TeleNote Data Model

## Notes

Every note has a title (1-500 characters), free-form content and a type:

- ` + "`note`" + ` - plain note (default)
- ` + "`task`" + ` - actionable item; may carry task metadata
- ` + "`project`" + ` - groups related notes and tasks

Deleting a note moves it to the trash. Trashed notes keep their links and tags
but drop their task metadata, and they disappear from listings, search and the graph.

## Links

Links are directed and typed. The same pair of notes may be linked once per type.

| Type | Meaning |
|---|---|
| ` + "`reference`" + ` | source mentions target (default) |
| ` + "`parent`" + ` | source is the parent of target |
| ` + "`child`" + ` | source is a child of target |
| ` + "`related`" + ` | loose association |

Both ends must be notes you own and neither may be in the trash.

## Tasks

Only notes of type ` + "`task`" + ` carry task metadata:

- ` + "`priority`" + `: low, medium (default), high, urgent
- ` + "`status`" + `: todo (default), in_progress, blocked, completed, cancelled
- ` + "`due_date`" + `: optional RFC 3339 timestamp

The board lists tasks by priority (urgent first), then by due date with undated tasks last.

## Tags

Tags are shared names with a ` + "`#RRGGBB`" + ` color. Tag names are trimmed and
at most 100 characters. Pass them to create_note as a comma-separated list.
`
