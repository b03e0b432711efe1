// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the document tree to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mdtree/internal/models"
	"github.com/starford/mdtree/internal/treestore"
	"github.com/starford/mdtree/internal/treeview"
)

// TreeStore is the slice of the tree store the tools drive.
type TreeStore interface {
	Tree() []*models.Node
	FindNode(id string) *models.Node
	CurrentFileID() string
	AddFolder(parentID, title string) (string, error)
	AddFile(parentID, title string) (string, error)
	RenameItem(id, title string) error
	DeleteItem(id string) error
	UpdateContent(id, content string) error
	Flush(ctx context.Context) error
	Rejections(id string) int
}

// Server wraps the MCP server with the tree tools.
type Server struct {
	mcp    *server.MCPServer
	store  TreeStore
	logger *slog.Logger
}

// New creates a new MCP server with all tree tools registered.
func New(store TreeStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{store: store, logger: logger}

	s.mcp = server.NewMCPServer(
		"mdtree",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_tree",
		mcp.WithDescription("Show the whole document tree with node ids."),
	), s.listTree)

	s.mcp.AddTool(mcp.NewTool("read_file",
		mcp.WithDescription("Read the full Markdown content of a file."),
		mcp.WithString("id", mcp.Required(), mcp.Description("File id as shown by list_tree")),
	), s.readFile)

	s.mcp.AddTool(mcp.NewTool("create_file",
		mcp.WithDescription("Create a file at the root or inside a folder. "+
			"Without content the file starts with a heading built from the title. "+
			"Read the format first via get_document_format or the mdtree://document-format resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title, 1 to 50 characters")),
		mcp.WithString("parent_id", mcp.Description("Folder id; empty for the root")),
		mcp.WithString("content", mcp.Description("Optional initial Markdown content")),
	), s.createFile)

	s.mcp.AddTool(mcp.NewTool("create_folder",
		mcp.WithDescription("Create a folder at the root or inside another folder."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title, 1 to 50 characters")),
		mcp.WithString("parent_id", mcp.Description("Folder id; empty for the root")),
	), s.createFolder)

	s.mcp.AddTool(mcp.NewTool("rename_item",
		mcp.WithDescription("Change the title of a file or folder."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithString("title", mcp.Required(), mcp.Description("New title, 1 to 50 characters")),
	), s.renameItem)

	s.mcp.AddTool(mcp.NewTool("delete_item",
		mcp.WithDescription("Delete a file, or a folder together with everything inside it."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
	), s.deleteItem)

	s.mcp.AddTool(mcp.NewTool("write_file",
		mcp.WithDescription("Replace the full content of a file."),
		mcp.WithString("id", mcp.Required(), mcp.Description("File id")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Complete new Markdown content")),
	), s.writeFile)

	s.mcp.AddTool(mcp.NewTool("get_document_format",
		mcp.WithDescription("Returns the document format notes. "+
			"Call this before creating or editing files."),
	), s.getDocumentFormat)

	s.mcp.AddResource(
		mcp.NewResource("mdtree://tree", "Document Tree",
			mcp.WithResourceDescription("The current document tree rendered as text."),
			mcp.WithMIMEType("text/plain"),
		),
		s.readTreeResource,
	)

	s.mcp.AddResource(
		mcp.NewResource("mdtree://document-format", "Document Format",
			mcp.WithResourceDescription("How files and folders in the tree are shaped."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocumentFormatResource,
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

func (s *Server) renderTree() string {
	return treeview.Render(s.store.Tree(), treeview.Options{ShowIDs: true, Current: s.store.CurrentFileID()})
}

// settle waits for queued mirrors and reports whether the authority refused
// any change to id since the count rejected was taken.
func (s *Server) settle(ctx context.Context, id string, rejected int) (bool, error) {
	if err := s.store.Flush(ctx); err != nil {
		return false, fmt.Errorf("waiting for server: %w", err)
	}
	return s.store.Rejections(id) != rejected, nil
}

func (s *Server) listTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.renderTree()), nil
}

func (s *Server) readFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	node := s.store.FindNode(id)
	if node == nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	if node.IsFolder() {
		return mcp.NewToolResultError(fmt.Sprintf("not a file: %s", id)), nil
	}
	return mcp.NewToolResultText(node.Content), nil
}

func (s *Server) createFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.create(ctx, req, models.KindFile)
}

func (s *Server) createFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.create(ctx, req, models.KindFolder)
}

func (s *Server) create(ctx context.Context, req mcp.CallToolRequest, kind models.Kind) (*mcp.CallToolResult, error) {
	rawTitle, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := treestore.ValidateTitle(rawTitle)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parentID := req.GetString("parent_id", "")

	var id string
	if kind == models.KindFolder {
		id, err = s.store.AddFolder(parentID, title)
	} else {
		id, err = s.store.AddFile(parentID, title)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if content := req.GetString("content", ""); content != "" && kind == models.KindFile {
		if err := s.store.UpdateContent(id, content); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	refused, err := s.settle(ctx, id, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if refused {
		return mcp.NewToolResultError(fmt.Sprintf("server rejected create of %q", title)), nil
	}
	s.logger.Info("mcp: created", slog.String("id", id), slog.String("type", string(kind)))
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", id)), nil
}

func (s *Server) renameItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawTitle, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := treestore.ValidateTitle(rawTitle)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rejected := s.store.Rejections(id)
	if err := s.store.RenameItem(id, title); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refused, err := s.settle(ctx, id, rejected)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if refused {
		return mcp.NewToolResultError(fmt.Sprintf("server rejected rename of %s", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("renamed: %s", id)), nil
}

func (s *Server) deleteItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rejected := s.store.Rejections(id)
	if err := s.store.DeleteItem(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refused, err := s.settle(ctx, id, rejected)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if refused {
		return mcp.NewToolResultError(fmt.Sprintf("server rejected delete of %s", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) writeFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rejected := s.store.Rejections(id)
	if err := s.store.UpdateContent(id, content); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refused, err := s.settle(ctx, id, rejected)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if refused {
		return mcp.NewToolResultError(fmt.Sprintf("server rejected write to %s", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("written: %s", id)), nil
}

func (s *Server) getDocumentFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormat), nil
}

func (s *Server) readTreeResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "mdtree://tree",
			MIMEType: "text/plain",
			Text:     s.renderTree(),
		},
	}, nil
}

func (s *Server) readDocumentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "mdtree://document-format",
			MIMEType: "text/markdown",
			Text:     DocumentFormat,
		},
	}, nil
}
