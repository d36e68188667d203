// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes TeleNote tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/telenote/internal/apperr"
	"github.com/starford/telenote/internal/models"
	"github.com/starford/telenote/internal/noteservice"
)

// Server wraps the MCP server with TeleNote tools. Every tool acts as a
// single configured user.
type Server struct {
	mcp      *server.MCPServer
	svc      *noteservice.Service
	identity models.Identity
}

// New creates a new MCP server with all TeleNote tools registered.
func New(svc *noteservice.Service, externalID int64) *Server {
	s := &Server{svc: svc, identity: models.Identity{ExternalID: externalID}}

	s.mcp = server.NewMCPServer(
		"TeleNote",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note titles, content and tag names."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note with its tags, task metadata and links."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note. Read the data model first via "+
			"the get_note_contract tool or the telenote://data-model resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title (1-500 characters)")),
		mcp.WithString("content", mcp.Description("Note body")),
		mcp.WithString("note_type", mcp.Description("note, task or project (default note)"),
			mcp.Enum(string(models.NoteTypeNote), string(models.NoteTypeTask), string(models.NoteTypeProject))),
		mcp.WithString("tags", mcp.Description("Comma-separated tag names")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the TeleNote data model: note types, link types and task fields. "+
			"Call this before creating notes or links."),
	), s.getNoteContract)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes, most recently updated first."),
		mcp.WithString("note_type", mcp.Description("Optional note type filter")),
		mcp.WithString("tag", mcp.Description("Optional tag name filter")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
		mcp.WithNumber("offset", mcp.Description("Page offset")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("link_notes",
		mcp.WithDescription("Create a typed directed link between two notes."),
		mcp.WithNumber("source_id", mcp.Required(), mcp.Description("Source note id")),
		mcp.WithNumber("target_id", mcp.Required(), mcp.Description("Target note id")),
		mcp.WithString("link_type", mcp.Description("reference, parent, child or related (default reference)")),
	), s.linkNotes)

	s.mcp.AddTool(mcp.NewTool("get_links",
		mcp.WithDescription("List outgoing links of a note."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("link_type", mcp.Description("Optional link type filter")),
	), s.getLinks)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("link_type", mcp.Description("Optional link type filter")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("task_board",
		mcp.WithDescription("List tasks ordered by priority then due date."),
		mcp.WithString("status", mcp.Description("Optional status filter")),
		mcp.WithString("priority", mcp.Description("Optional priority filter")),
	), s.taskBoard)

	s.mcp.AddResource(
		mcp.NewResource("telenote://data-model", "Data Model",
			mcp.WithResourceDescription("Note types, link types and task metadata accepted by TeleNote."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDataModelResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) user(ctx context.Context) (*models.User, error) {
	return s.svc.Authenticate(ctx, s.identity)
}

func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found")
	case errors.Is(err, apperr.ErrDuplicateLink):
		return mcp.NewToolResultError("link already exists")
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func requireID(req mcp.CallToolRequest, name string) (int64, error) {
	v, err := req.RequireFloat(name)
	if err != nil {
		return 0, err
	}
	if v < 1 || v != float64(int64(v)) {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return int64(v), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	u, err := s.user(ctx)
	if err != nil {
		return toolError(err), nil
	}
	results, err := s.svc.Search(ctx, u, query, req.GetInt("limit", 20))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(results)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	u, err := s.user(ctx)
	if err != nil {
		return toolError(err), nil
	}
	note, err := s.svc.GetNote(ctx, u, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(note)
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in := noteservice.NoteInput{
		Title:    title,
		Content:  req.GetString("content", ""),
		NoteType: models.NoteType(req.GetString("note_type", "")),
	}
	for _, tag := range strings.Split(req.GetString("tags", ""), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			in.Tags = append(in.Tags, tag)
		}
	}

	u, err := s.user(ctx)
	if err != nil {
		return toolError(err), nil
	}
	note, err := s.svc.CreateNote(ctx, u, in)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %d", note.ID)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	u, err := s.user(ctx)
	if err != nil {
		return toolError(err), nil
	}
	notes, _, err := s.svc.ListNotes(ctx, u, models.NoteFilter{
		NoteType: models.NoteType(req.GetString("note_type", "")),
		Tag:      req.GetString("tag", ""),
		Limit:    req.GetInt("limit", 0),
		Offset:   req.GetInt("offset", 0),
	})
	if err != nil {
		return toolError(err), nil
	}

	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		lines = append(lines, fmt.Sprintf("%d\t%s\t%s", n.ID, n.NoteType, n.Title))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) linkNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := requireID(req, "source_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := requireID(req, "target_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	u, err := s.user(ctx)
	if err != nil {
		return toolError(err), nil
	}
	link, err := s.svc.Link(ctx, u, source, target, models.LinkType(req.GetString("link_type", "")))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(link)
}

func (s *Server) getLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.edges(ctx, req, models.DirectionOutgoing)
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.edges(ctx, req, models.DirectionIncoming)
}

func (s *Server) edges(ctx context.Context, req mcp.CallToolRequest, dir models.Direction) (*mcp.CallToolResult, error) {
	id, err := requireID(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	u, err := s.user(ctx)
	if err != nil {
		return toolError(err), nil
	}
	links, err := s.svc.Links(ctx, u, id, dir, models.LinkType(req.GetString("link_type", "")))
	if err != nil {
		return toolError(err), nil
	}
	if len(links) == 0 {
		return mcp.NewToolResultText("no links found"), nil
	}

	lines := make([]string, 0, len(links))
	for _, l := range links {
		other := l.TargetNoteID
		if dir == models.DirectionIncoming {
			other = l.SourceNoteID
		}
		lines = append(lines, fmt.Sprintf("%d\t%s", other, l.LinkType))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) taskBoard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	u, err := s.user(ctx)
	if err != nil {
		return toolError(err), nil
	}
	tasks, err := s.svc.Board(ctx, u, models.TaskFilter{
		Status:   models.TaskStatus(req.GetString("status", "")),
		Priority: models.Priority(req.GetString("priority", "")),
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(tasks)
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DataModelContract), nil
}

func (s *Server) readDataModelResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "telenote://data-model",
			MIMEType: "text/markdown",
			Text:     DataModelContract,
		},
	}, nil
}
