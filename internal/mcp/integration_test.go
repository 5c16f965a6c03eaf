package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"
)

type rpcResponse struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// stdioSession drives Serve through a pair of pipes
type stdioSession struct {
	t       *testing.T
	in      *io.PipeWriter
	scanner *bufio.Scanner
	cancel  context.CancelFunc
	done    chan error
	nextID  int
}

func startSession(t *testing.T, s *Server) *stdioSession {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())

	sess := &stdioSession{
		t:       t,
		in:      inW,
		scanner: bufio.NewScanner(outR),
		cancel:  cancel,
		done:    make(chan error, 1),
	}
	sess.scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	go func() {
		sess.done <- s.Serve(ctx, inR, outW)
		outW.Close()
	}()
	return sess
}

func (s *stdioSession) request(method string, params interface{}) rpcResponse {
	s.t.Helper()
	s.nextID++
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      s.nextID,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		s.t.Fatalf("failed to encode request: %v", err)
	}
	if _, err := fmt.Fprintf(s.in, "%s\n", body); err != nil {
		s.t.Fatalf("failed to send request: %v", err)
	}

	if !s.scanner.Scan() {
		s.t.Fatalf("no response to %s: %v", method, s.scanner.Err())
	}
	var resp rpcResponse
	if err := json.Unmarshal(s.scanner.Bytes(), &resp); err != nil {
		s.t.Fatalf("failed to decode response %q: %v", s.scanner.Text(), err)
	}
	if resp.ID != s.nextID {
		s.t.Fatalf("response id = %d, want %d", resp.ID, s.nextID)
	}
	return resp
}

func (s *stdioSession) close() {
	s.t.Helper()
	s.cancel()
	s.in.Close()
	select {
	case err := <-s.done:
		if err != nil {
			s.t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		s.t.Error("Serve did not stop after cancel")
	}
}

func TestStdioSession(t *testing.T) {
	server, f := newTestServer(t)
	f.Workbook(t, "jane.xlsx", nil)

	sess := startSession(t, server)
	defer sess.close()

	resp := sess.request("initialize", map[string]interface{}{
		"protocolVersion": "2025-03-26",
		"capabilities":    map[string]interface{}{},
		"clientInfo":      map[string]interface{}{"name": "test-client", "version": "1.0.0"},
	})
	if resp.Error != nil {
		t.Fatalf("initialize failed: %s", resp.Error.Message)
	}
	var initResult struct {
		ServerInfo struct {
			Name string `json:"name"`
		} `json:"serverInfo"`
	}
	if err := json.Unmarshal(resp.Result, &initResult); err != nil {
		t.Fatalf("failed to decode initialize result: %v", err)
	}
	if initResult.ServerInfo.Name != f.Config.ServerName {
		t.Errorf("server name = %q, want %q", initResult.ServerInfo.Name, f.Config.ServerName)
	}

	resp = sess.request("tools/list", map[string]interface{}{})
	var tools struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(resp.Result, &tools); err != nil {
		t.Fatalf("failed to decode tools: %v", err)
	}
	if len(tools.Tools) != 7 {
		t.Errorf("expected 7 tools, got %d", len(tools.Tools))
	}
	for _, tool := range tools.Tools {
		if !strings.HasPrefix(tool.Name, "forms_") {
			t.Errorf("unexpected tool name %q", tool.Name)
		}
	}

	resp = sess.request("tools/call", map[string]interface{}{
		"name":      "forms_validate_workbook",
		"arguments": map[string]interface{}{"path": "jane.xlsx"},
	})
	if !strings.Contains(string(resp.Result), "No assessment columns with values were found") {
		t.Errorf("expected extraction error for a workbook without answers, got: %s", resp.Result)
	}
}
