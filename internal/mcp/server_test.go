package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/assessment-forms/internal/service/servicetest"
)

func newTestServer(t *testing.T) (*Server, *servicetest.Fixture) {
	t.Helper()
	f := servicetest.New(t)
	server, err := NewServer(f.Service, nil)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return server, f
}

func call(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func TestNewServer(t *testing.T) {
	if _, err := NewServer(nil, nil); err == nil {
		t.Error("expected error for nil service")
	}

	server, f := newTestServer(t)
	if server.config != f.Config {
		t.Error("server config not set correctly")
	}
	if server.service != f.Service {
		t.Error("server service not set correctly")
	}
	if server.mcpServer == nil {
		t.Error("mcpServer should be initialized")
	}
	if server.Handler() == nil {
		t.Error("HTTP handler should not be nil")
	}
}

func TestServer_HandleFillWorkbook(t *testing.T) {
	server, f := newTestServer(t)
	f.Workbook(t, "jane.xlsx", servicetest.Scores("2"))

	result, err := server.handleFillWorkbook(context.Background(), call(map[string]interface{}{
		"paths": " jane.xlsx , ",
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", extractTextFromResult(result))
	}

	resultText := extractTextFromResult(result)
	want := filepath.Join(f.Config.OutputDirectory, "jane.pdf")
	if !strings.Contains(resultText, "Wrote 1 file(s)") || !strings.Contains(resultText, want) {
		t.Errorf("unexpected result text: %s", resultText)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestServer_HandleFillWorkbookErrors(t *testing.T) {
	server, f := newTestServer(t)
	scores := servicetest.Scores("2")
	scores[13] = ""
	f.Workbook(t, "blank.xlsx", scores)

	result, err := server.handleFillWorkbook(context.Background(), call(map[string]interface{}{
		"paths":   "blank.xlsx",
		"archive": true,
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if !result.IsError {
		t.Error("expected a tool error when nothing was written")
	}
	resultText := extractTextFromResult(result)
	if !strings.Contains(resultText, "In column 'BBS', the field for '14' is empty") {
		t.Errorf("missing validation message, got: %s", resultText)
	}

	result, err = server.handleFillWorkbook(context.Background(), call(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if !result.IsError {
		t.Error("expected error for missing paths")
	}
}

func TestServer_HandleValidateWorkbook(t *testing.T) {
	server, f := newTestServer(t)
	f.Workbook(t, "jane.xlsx", servicetest.Scores("4"))

	result, err := server.handleValidateWorkbook(context.Background(), call(map[string]interface{}{
		"path": "jane.xlsx",
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	resultText := extractTextFromResult(result)
	for _, want := range []string{"Patient: Jane Doe", "Workbook is valid.", "total: 56"} {
		if !strings.Contains(resultText, want) {
			t.Errorf("result should contain %q, got: %s", want, resultText)
		}
	}

	result, err = server.handleValidateWorkbook(context.Background(), call(map[string]interface{}{
		"path": "/etc/passwd",
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if !result.IsError {
		t.Error("expected error for a path outside the work directory")
	}
}

func TestServer_HandleSearchWorkbooks(t *testing.T) {
	server, f := newTestServer(t)
	f.Workbook(t, "doc1.xlsx", servicetest.Scores("1"))
	f.Workbook(t, "doc2.xlsx", servicetest.Scores("1"))
	if err := os.WriteFile(filepath.Join(f.Config.WorkDirectory, "report.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	result, err := server.handleSearchWorkbooks(context.Background(), call(map[string]interface{}{
		"query": "",
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	resultText := extractTextFromResult(result)
	if !strings.Contains(resultText, "Found 2 workbook(s)") {
		t.Errorf("content should mention 2 workbooks, got: %s", resultText)
	}

	result, err = server.handleSearchWorkbooks(context.Background(), call(map[string]interface{}{
		"query": "missing",
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if !strings.Contains(extractTextFromResult(result), "No workbooks found") {
		t.Errorf("expected empty result, got: %s", extractTextFromResult(result))
	}
}

func TestServer_HandleListInstruments(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleListInstruments(context.Background(), call(nil))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	resultText := extractTextFromResult(result)
	if !strings.Contains(resultText, "10 supported instruments") {
		t.Errorf("unexpected instruments text: %s", resultText)
	}
	if !strings.Contains(resultText, "BBS (berg-balance-scale, template installed)") {
		t.Errorf("BBS should be installed, got: %s", resultText)
	}
}

func TestServer_HandleWriteInputTemplate(t *testing.T) {
	server, f := newTestServer(t)

	result, err := server.handleWriteInputTemplate(context.Background(), call(nil))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", extractTextFromResult(result))
	}
	if _, err := os.Stat(filepath.Join(f.Config.OutputDirectory, "template.xlsx")); err != nil {
		t.Errorf("input workbook not written: %v", err)
	}
}

func TestServer_HandleTemplateFields(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleTemplateFields(context.Background(), call(map[string]interface{}{
		"instrument": "bbs",
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	resultText := extractTextFromResult(result)
	if !strings.Contains(resultText, "BBS form: 1 page(s), 2 field(s)") {
		t.Errorf("unexpected fields text: %s", resultText)
	}

	result, err = server.handleTemplateFields(context.Background(), call(map[string]interface{}{
		"instrument": "honos",
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if !result.IsError {
		t.Error("expected error for a missing template")
	}
}

func TestServer_HandleServerInfo(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleServerInfo(context.Background(), call(nil))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	resultText := extractTextFromResult(result)
	for _, want := range []string{"assessment-forms-test v1.0.0", "Missing form templates", "forms_fill_workbook", "Workflow:"} {
		if !strings.Contains(resultText, want) {
			t.Errorf("server info should contain %q", want)
		}
	}
}

func TestSplitPaths(t *testing.T) {
	got := splitPaths("a.xlsx, b.xlsx,,c.xlsx ")
	if strings.Join(got, "|") != "a.xlsx|b.xlsx|c.xlsx" {
		t.Errorf("splitPaths() = %v", got)
	}
	if splitPaths(" , ") != nil {
		t.Error("expected no paths")
	}
}

func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}
	return ""
}
