package mcp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/assessment-forms/internal/config"
	"github.com/a3tai/assessment-forms/internal/descriptions"
	"github.com/a3tai/assessment-forms/internal/logging"
	"github.com/a3tai/assessment-forms/internal/service"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *service.Service
	mcpServer *server.MCPServer
	logger    *zap.Logger
}

// NewServer creates a new MCP server instance
func NewServer(svc *service.Service, logger *zap.Logger) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	cfg := svc.Config()

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		config:    cfg,
		service:   svc,
		mcpServer: mcpServer,
		logger:    logging.OrNop(logger).Named("mcp"),
	}
	s.registerTools()
	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolFillWorkbook,
		mcp.WithDescription(descriptions.FillWorkbookDescription),
		mcp.WithString("paths",
			mcp.Required(),
			mcp.Description("Workbook paths relative to the work directory, comma separated"),
		),
		mcp.WithBoolean("archive",
			mcp.Description("Package all documents into "+service.ArchiveName),
		),
	), s.handleFillWorkbook)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolValidateWorkbook,
		mcp.WithDescription(descriptions.ValidateWorkbookDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Workbook path relative to the work directory"),
		),
	), s.handleValidateWorkbook)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolSearchWorkbooks,
		mcp.WithDescription(descriptions.SearchWorkbooksDescription),
		mcp.WithString("directory",
			mcp.Description("Directory to search (uses the work directory if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Words that must all appear in the file name"),
		),
	), s.handleSearchWorkbooks)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolListInstruments,
		mcp.WithDescription(descriptions.ListInstrumentsDescription),
	), s.handleListInstruments)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolWriteInputTemplate,
		mcp.WithDescription(descriptions.WriteInputTemplateDescription),
	), s.handleWriteInputTemplate)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolTemplateFields,
		mcp.WithDescription(descriptions.TemplateFieldsDescription),
		mcp.WithString("instrument",
			mcp.Required(),
			mcp.Description("Instrument name (e.g. WHODAS) or download slug (e.g. berg-balance-scale)"),
		),
	), s.handleTemplateFields)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.ServerInfoDescription),
	), s.handleServerInfo)
}

// Handler functions
func (s *Server) handleFillWorkbook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("paths")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	archive, _ := request.GetArguments()["archive"].(bool)

	req := service.FillRequest{Paths: splitPaths(raw), Archive: archive}
	result, err := s.service.FillWorkbooks(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(result.Errors) > 0 && len(result.Outputs) == 0 {
		return mcp.NewToolResultError(s.formatFillResult(result)), nil
	}
	return mcp.NewToolResultText(s.formatFillResult(result)), nil
}

func (s *Server) handleValidateWorkbook(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.ValidateWorkbook(service.ValidateRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatValidateResult(result)), nil
}

func (s *Server) handleSearchWorkbooks(_ context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	args := request.GetArguments()

	req := service.SearchRequest{}
	if dir, ok := args["directory"].(string); ok {
		req.Directory = dir
	}
	if q, ok := args["query"].(string); ok {
		req.Query = q
	}

	result, err := s.service.SearchWorkbooks(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.TotalCount == 0 {
		responseText = fmt.Sprintf("No workbooks found in directory: %s", result.Directory)
		if result.SearchQuery != "" {
			responseText += fmt.Sprintf(" (searched for: %s)", result.SearchQuery)
		}
	} else {
		responseText = s.formatSearchResult(result)
	}
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleListInstruments(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatInstruments(s.service.ListInstruments())), nil
}

func (s *Server) handleWriteInputTemplate(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := s.service.SaveInputTemplate()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Input workbook written to %s", path)), nil
}

func (s *Server) handleTemplateFields(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("instrument")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.TemplateFields(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatTemplateFields(result)), nil
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := s.service.ServerInfo(s.config.ServerName, s.config.Version)
	return mcp.NewToolResultText(s.formatServerInfoResult(result)), nil
}

func splitPaths(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Formatting methods
func (s *Server) formatFillResult(result *service.FillResult) string {
	text := fmt.Sprintf("Batch %s\n", result.BatchID)
	if len(result.Outputs) > 0 {
		text += fmt.Sprintf("Wrote %d file(s):\n", len(result.Outputs))
		for _, out := range result.Outputs {
			text += fmt.Sprintf("  • %s\n", out)
		}
	} else {
		text += "No documents were written.\n"
	}

	if len(result.Errors) > 0 {
		text += "\nErrors:\n"
		for _, c := range result.Errors {
			text += fmt.Sprintf("%s:\n", c.Dataset)
			for _, msg := range c.Messages() {
				text += fmt.Sprintf("  - %s\n", msg)
			}
		}
	}
	return text
}

func (s *Server) formatValidateResult(result *service.ValidateResult) string {
	text := fmt.Sprintf("Workbook: %s\n", result.Path)
	if result.Patient != "" {
		text += fmt.Sprintf("Patient: %s\n", result.Patient)
	}
	if len(result.Instruments) > 0 {
		text += fmt.Sprintf("Instruments: %s\n", strings.Join(result.Instruments, ", "))
	}

	if !result.Valid {
		text += fmt.Sprintf("\n%d problem(s) found:\n", len(result.Errors.Errors))
		for _, msg := range result.Errors.Messages() {
			text += fmt.Sprintf("  - %s\n", msg)
		}
		return text
	}

	text += "\nWorkbook is valid.\n"
	for _, score := range result.Scores {
		text += fmt.Sprintf("\n%s\n", score.Instrument)
		keys := make([]string, 0, len(score.Fields))
		for k := range score.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			text += fmt.Sprintf("  %s: %s\n", k, score.Fields[k])
		}
	}
	return text
}

func (s *Server) formatSearchResult(result *service.SearchResult) string {
	text := fmt.Sprintf("Found %d workbook(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		text += fmt.Sprintf("Search query: %s\n", result.SearchQuery)
	}
	text += "\nFiles:\n"

	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		if i < len(result.Files)-1 {
			text += "\n"
		}
	}
	return text
}

func (s *Server) formatInstruments(infos []service.InstrumentInfo) string {
	text := fmt.Sprintf("%d supported instruments\n", len(infos))
	for _, info := range infos {
		status := "template installed"
		if !info.TemplateAvailable {
			status = "template missing"
		}
		text += fmt.Sprintf("\n• %s (%s, %s)\n", info.Name, info.Slug, status)
		text += fmt.Sprintf("  Keys: %s\n", strings.Join(info.Keys, ", "))
	}
	return text
}

func (s *Server) formatTemplateFields(result *service.TemplateFieldsResult) string {
	text := fmt.Sprintf("%s form: %d page(s), %d field(s)\n\n", result.Instrument, result.Pages, len(result.Fields))
	for _, w := range result.Fields {
		text += fmt.Sprintf("p%d %-10s %s [%.1f %.1f %.1f %.1f]\n",
			w.Page, w.Type, w.Name, w.Rect.LLX, w.Rect.LLY, w.Rect.URX, w.Rect.URY)
	}
	return text
}

func (s *Server) formatServerInfoResult(result *service.ServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Work Directory: %s\n", result.WorkDirectory)
	text += fmt.Sprintf("📤 Output Directory: %s\n", result.OutputDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	if result.Flatten {
		text += fmt.Sprintf("🖨️  Flattening: on (zoom %.1f)\n\n", result.Zoom)
	} else {
		text += "🖨️  Flattening: off\n\n"
	}

	if len(result.MissingTemplates) > 0 {
		text += fmt.Sprintf("⚠️  Missing form templates: %s\n\n", strings.Join(result.MissingTemplates, ", "))
	}

	if len(result.Workbooks) > 0 {
		text += fmt.Sprintf("📂 Workbooks (%d found):\n", len(result.Workbooks))
		for i, file := range result.Workbooks {
			if i >= 10 {
				text += fmt.Sprintf("   ... and %d more files\n", len(result.Workbooks)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Workbooks: none found in the work directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Description: %s\n", tool.Description)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	text += "\n" + result.UsageGuidance
	return text
}

// Handler returns the streamable HTTP transport for mounting in the web
// server
func (s *Server) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcpServer)
}

// Run serves MCP over stdin and stdout until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	if !s.config.IsStdioMode() {
		return fmt.Errorf("unsupported mode for stdio transport: %s", s.config.Mode)
	}
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve speaks MCP over the given streams
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Debug("starting stdio transport",
		zap.String("work_dir", s.config.WorkDirectory),
		zap.String("forms_dir", s.config.FormsDirectory),
	)

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
