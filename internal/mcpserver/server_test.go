package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/telenote/internal/noteservice"
	"github.com/starford/telenote/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	db := testutil.TestStore(t)
	return New(noteservice.NewService(db), 777)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"search_notes":      srv.searchNotes,
		"read_note":         srv.readNote,
		"create_note":       srv.createNote,
		"list_notes":        srv.listNotes,
		"link_notes":        srv.linkNotes,
		"get_links":         srv.getLinks,
		"get_backlinks":     srv.getBacklinks,
		"task_board":        srv.taskBoard,
		"get_note_contract": srv.getNoteContract,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadNote(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "create_note", map[string]any{
		"title":   "Test",
		"content": "Hello",
		"tags":    "go, notes ,",
	})
	if text := resultText(r); text != "created: 1" {
		t.Fatalf("create result = %q", text)
	}

	r = callTool(t, srv, "read_note", map[string]any{"id": float64(1)})
	text := resultText(r)
	if r.IsError || !strings.Contains(text, `"title": "Test"`) {
		t.Errorf("read result = %q", text)
	}
	if !strings.Contains(text, `"name": "notes"`) {
		t.Errorf("tags missing from %q", text)
	}
}

func TestCreateNoteInvalidType(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "create_note", map[string]any{"title": "x", "note_type": "memo"})
	if !r.IsError {
		t.Error("expected error for unknown note type")
	}
}

func TestListNotes(t *testing.T) {
	srv := testServer(t)
	callTool(t, srv, "create_note", map[string]any{"title": "a"})
	callTool(t, srv, "create_note", map[string]any{"title": "b", "note_type": "task"})

	r := callTool(t, srv, "list_notes", map[string]any{})
	if lines := strings.Split(resultText(r), "\n"); len(lines) != 2 {
		t.Errorf("list = %q", resultText(r))
	}

	r = callTool(t, srv, "list_notes", map[string]any{"note_type": "task"})
	if text := resultText(r); text != "2\ttask\tb" {
		t.Errorf("filtered list = %q", text)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_note", map[string]any{"id": float64(99)})
	if !r.IsError || resultText(r) != "not found" {
		t.Errorf("expected not found error, got %q", resultText(r))
	}

	r = callTool(t, srv, "read_note", map[string]any{"id": 1.5})
	if !r.IsError {
		t.Error("expected error for fractional id")
	}
}

func TestLinksAndBacklinks(t *testing.T) {
	srv := testServer(t)
	callTool(t, srv, "create_note", map[string]any{"title": "a"})
	callTool(t, srv, "create_note", map[string]any{"title": "b"})

	r := callTool(t, srv, "link_notes", map[string]any{"source_id": float64(1), "target_id": float64(2), "link_type": "parent"})
	if r.IsError {
		t.Fatalf("link error: %s", resultText(r))
	}
	r = callTool(t, srv, "link_notes", map[string]any{"source_id": float64(1), "target_id": float64(2), "link_type": "parent"})
	if !r.IsError || resultText(r) != "link already exists" {
		t.Errorf("duplicate link = %q", resultText(r))
	}

	if text := resultText(callTool(t, srv, "get_links", map[string]any{"id": float64(1)})); text != "2\tparent" {
		t.Errorf("links = %q", text)
	}
	if text := resultText(callTool(t, srv, "get_backlinks", map[string]any{"id": float64(2)})); text != "1\tparent" {
		t.Errorf("backlinks = %q", text)
	}
	if text := resultText(callTool(t, srv, "get_backlinks", map[string]any{"id": float64(1)})); text != "no links found" {
		t.Errorf("backlinks of root = %q", text)
	}
}

func TestSearchAndTaskBoard(t *testing.T) {
	srv := testServer(t)
	callTool(t, srv, "create_note", map[string]any{"title": "Release checklist", "note_type": "task"})

	r := callTool(t, srv, "search_notes", map[string]any{"query": "checklist"})
	if !strings.Contains(resultText(r), "Release checklist") {
		t.Errorf("search = %q", resultText(r))
	}

	// Notes created as tasks without metadata are not on the board.
	r = callTool(t, srv, "task_board", map[string]any{})
	if r.IsError || strings.TrimSpace(resultText(r)) != "[]" {
		t.Errorf("board = %q", resultText(r))
	}

	r = callTool(t, srv, "task_board", map[string]any{"priority": "someday"})
	if !r.IsError {
		t.Error("expected validation error for unknown priority")
	}
}

func TestGetNoteContract(t *testing.T) {
	srv := testServer(t)
	if text := resultText(callTool(t, srv, "get_note_contract", nil)); !strings.Contains(text, "reference") {
		t.Errorf("contract = %q", text)
	}
}
