// Package mcpserver exposes the agent-facing MCP tool surface (spec §2
// C12, §4.5, §6) on top of a room.Manager, grounded on the Streamable
// HTTP wiring pattern used elsewhere in the corpus for mark3labs/mcp-go.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/workspace/room-relay/internal/room"
)

type ctxKey int

const roomIDKey ctxKey = 0

// defaultExecuteTimeoutMs is the execute tool's default per spec §6.
const defaultExecuteTimeoutMs = 30000

// Executor runs a shell command on behalf of the bash tool. Command
// execution is sandboxed outside the relay process; LocalPeerExecutor is
// the only built-in implementation here, forwarding to the room's local peer.
type Executor interface {
	Execute(ctx context.Context, rm *room.Room, command, workdir string, timeoutMs int) (stdout, stderr string, exitCode int, err error)
}

// LocalPeerExecutor forwards bash.execute to whatever local peer is
// currently admitted to the room (spec §4.5).
type LocalPeerExecutor struct{}

func (LocalPeerExecutor) Execute(ctx context.Context, rm *room.Room, command, workdir string, timeoutMs int) (string, string, int, error) {
	return rm.BashExecute(ctx, command, workdir, timeoutMs)
}

// CodeRunner drives a browser session by running agent-authored code in a
// sandbox, on behalf of the execute tool (spec §6: "execute(code,
// timeout=30000) — drives the browser via an internal sandboxed runner").
// That runner is an out-of-scope external collaborator (spec §1); it is
// not the Local peer's bash.execute, and it is not implemented by this
// relay. The seam exists so a concrete runner can be injected by whatever
// process embeds this package.
type CodeRunner interface {
	Run(ctx context.Context, rm *room.Room, code string, timeoutMs int) (result string, err error)
}

// UnimplementedCodeRunner is the default CodeRunner: it reports that no
// sandboxed runner is wired into this process rather than silently
// behaving like the bash tool (see DESIGN.md's Open Questions).
type UnimplementedCodeRunner struct{}

func (UnimplementedCodeRunner) Run(ctx context.Context, rm *room.Room, code string, timeoutMs int) (string, error) {
	return "", errors.New("execute: no sandboxed code runner is configured for this relay")
}

// Handler is the http.Handler mounted at /room/{roomId}/mcp-server.
type Handler struct {
	manager    *room.Manager
	executor   Executor
	codeRunner CodeRunner
	stream     *server.StreamableHTTPServer
}

// New builds the MCP tool surface. Tool handlers resolve their target
// room from request context, populated per-request by the context func
// wired below, rather than from a closed-over Room, so the handler
// stays valid across every tenant sharing this process.
func New(manager *room.Manager, executor Executor, codeRunner CodeRunner) *Handler {
	if executor == nil {
		executor = LocalPeerExecutor{}
	}
	if codeRunner == nil {
		codeRunner = UnimplementedCodeRunner{}
	}
	h := &Handler{manager: manager, executor: executor, codeRunner: codeRunner}

	mcpServer := server.NewMCPServer(
		"room-relay",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	mcpServer.AddTool(mcp.Tool{
		Name:        "execute",
		Description: "Run agent-authored code against the attached browser session via the sandboxed code runner",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"code":    map[string]interface{}{"type": "string", "description": "Code to run in the sandbox"},
				"timeout": map[string]interface{}{"type": "integer", "description": "Timeout in milliseconds", "default": defaultExecuteTimeoutMs},
			},
			Required: []string{"code"},
		},
	}, h.executeCode)

	mcpServer.AddTool(mcp.Tool{
		Name:        "bash",
		Description: "Run a shell command in the local machine's workspace and wait for it to finish",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"command": map[string]interface{}{"type": "string", "description": "Shell command to run"},
				"workdir": map[string]interface{}{"type": "string", "description": "Working directory, relative to the workspace root"},
				"timeout": map[string]interface{}{"type": "integer", "description": "Timeout in milliseconds"},
			},
			Required: []string{"command"},
		},
	}, h.bash)

	mcpServer.AddTool(mcp.Tool{
		Name:        "read_file",
		Description: "Read a file from the local machine's workspace, recording its mtime for later writes",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{"type": "string", "description": "Path to read, relative to the workspace root"},
			},
			Required: []string{"path"},
		},
	}, h.readFile)

	mcpServer.AddTool(mcp.Tool{
		Name:        "write_file",
		Description: "Write a file in the local machine's workspace; fails if the file has not been read in this session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path":    map[string]interface{}{"type": "string", "description": "Path to write, relative to the workspace root"},
				"content": map[string]interface{}{"type": "string", "description": "New file content"},
			},
			Required: []string{"path", "content"},
		},
	}, h.writeFile)

	h.stream = server.NewStreamableHTTPServer(
		mcpServer,
		server.WithEndpointPath("/"),
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return context.WithValue(ctx, roomIDKey, r.PathValue("roomId"))
		}),
	)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.stream.ServeHTTP(w, r)
}

func (h *Handler) roomFromContext(ctx context.Context) *room.Room {
	id, _ := ctx.Value(roomIDKey).(string)
	return h.manager.GetOrCreate(id)
}

func (h *Handler) bash(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Command string `json:"command"`
		Workdir string `json:"workdir"`
		Timeout int    `json:"timeout"`
	}
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	rm := h.roomFromContext(ctx)
	stdout, stderr, exitCode, err := h.executor.Execute(ctx, rm, args.Command, args.Workdir, args.Timeout)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultStructuredOnly(map[string]interface{}{
		"stdout":   stdout,
		"stderr":   stderr,
		"exitCode": exitCode,
	}), nil
}

// executeCode implements the execute tool (spec §6): agent-authored code
// run against the attached browser session by the sandboxed code runner,
// distinct from bash's command execution against the Local peer.
func (h *Handler) executeCode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Code    string `json:"code"`
		Timeout int    `json:"timeout"`
	}
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.Timeout <= 0 {
		args.Timeout = defaultExecuteTimeoutMs
	}

	rm := h.roomFromContext(ctx)
	result, err := h.codeRunner.Run(ctx, rm, args.Code, args.Timeout)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(result), nil
}

func (h *Handler) readFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Path string `json:"path"`
	}
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	rm := h.roomFromContext(ctx)
	content, err := rm.ReadFile(ctx, args.Path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(content), nil
}

func (h *Handler) writeFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	rm := h.roomFromContext(ctx)
	if err := rm.WriteFile(ctx, args.Path, args.Content); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultStructuredOnly(map[string]interface{}{"success": true}), nil
}
