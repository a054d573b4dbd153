package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/sowilo/internal/importer"
)

const maxArchiveSize = 100 << 20 // 100 MB

var safeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9 ._-]`)

func (s *Server) importArchive(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	encoded, err := req.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filename = sanitizeFilename(filename)
	if !strings.HasSuffix(strings.ToLower(filename), ".zip") {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported file: %s (must end with .zip)", filename)), nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid base64 data: %v", err)), nil
		}
	}
	if len(data) > maxArchiveSize {
		return mcp.NewToolResultError(fmt.Sprintf("archive too large: %d bytes (max %d)", len(data), maxArchiveSize)), nil
	}

	res, err := s.imp.ImportArchive(filename, data)
	if err != nil && !importer.IsAlreadyImported(err) {
		return mcp.NewToolResultError(fmt.Sprintf("import failed: %v", err)), nil
	}

	out, _ := json.Marshal(res)
	return mcp.NewToolResultText(string(out)), nil
}

// sanitizeFilename strips path separators and unsafe characters.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = safeFilenameRe.ReplaceAllString(name, "_")
	if name == "" || name == "." {
		name = "archive.zip"
	}
	return name
}
