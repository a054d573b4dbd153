// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Sowilo tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/sowilo/internal/importer"
	"github.com/starford/sowilo/internal/ledger"
	"github.com/starford/sowilo/internal/storage"
)

// Server wraps the MCP server with Sowilo tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	db    ledger.WorkoutLedger
	imp   *importer.Importer
}

// New creates a new MCP server with all Sowilo tools registered.
func New(store storage.Provider, db ledger.WorkoutLedger, imp *importer.Importer) *Server {
	s := &Server{store: store, db: db, imp: imp}

	s.mcp = server.NewMCPServer(
		"Sowilo",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_workouts",
		mcp.WithDescription("Full-text search through workout notes (titles, bodies, workout types)."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchWorkouts)

	s.mcp.AddTool(mcp.NewTool("read_workout_note",
		mcp.WithDescription("Read the full rendered Markdown note for a workout. "+
			"The note format is described by the get_note_contract tool and the "+
			"sowilo://note-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative note path (e.g. Workouts/Running 2024-09-02 13.52.08.md)")),
	), s.readWorkoutNote)

	s.mcp.AddTool(mcp.NewTool("list_workouts",
		mcp.WithDescription("List recent workouts, newest first. Optionally filter by workout type."),
		mcp.WithString("type", mcp.Description("Optional workout type filter (e.g. Running)")),
	), s.listWorkouts)

	s.mcp.AddTool(mcp.NewTool("list_imports",
		mcp.WithDescription("List recent health-export archive imports with workout and error counts."),
	), s.listImports)

	s.mcp.AddTool(mcp.NewTool("import_archive",
		mcp.WithDescription("Import a health-export ZIP archive. Accepts the archive bytes as "+
			"base64. Each workout becomes a Markdown note in the vault; re-importing the same "+
			"archive is a no-op."),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Archive file name (must end with .zip)")),
		mcp.WithString("data", mcp.Required(), mcp.Description("Base64-encoded ZIP archive contents")),
	), s.importArchive)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the canonical Sowilo workout note format contract."),
	), s.getNoteContract)

	// Resource: workout note format contract.
	s.mcp.AddResource(
		mcp.NewResource("sowilo://note-format", "Workout Note Format",
			mcp.WithResourceDescription("Canonical Markdown format of rendered workout notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

func (s *Server) searchWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readWorkoutNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workoutType := ""
	if v, err := req.RequireString("type"); err == nil {
		workoutType = v
	}

	rows, _, err := s.db.ListWorkouts(50, 0, workoutType, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("no workouts found"), nil
	}

	var lines []string
	for _, w := range rows {
		lines = append(lines, fmt.Sprintf("%s\t%s\t%s", w.StartedAt.Format("2006-01-02 15:04"), w.WorkoutType, w.NotePath))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) listImports(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := s.db.ListImports(50)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("no imports yet"), nil
	}
	out, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "sowilo://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
