package room

import "encoding/json"

// AgentCommand is the envelope an Agent peer sends for protocol commands
// (spec §6, "From Agent to relay").
type AgentCommand struct {
	ID        int             `json:"id"`
	Method    string          `json:"method"`
	Params    json.RawMessage `json:"params,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
}

// AgentError is the `error` member of a reply sent to an Agent.
type AgentError struct {
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}

// AgentReply is a reply to an AgentCommand (spec §6, "From relay to Agent").
type AgentReply struct {
	ID        int         `json:"id"`
	Result    interface{} `json:"result,omitempty"`
	Error     *AgentError `json:"error,omitempty"`
	SessionID string      `json:"sessionId,omitempty"`
}

// AgentEvent is an unsolicited event delivered to an Agent peer, either
// synthesized by the Command Router or forwarded from the browser peer.
type AgentEvent struct {
	Method    string      `json:"method"`
	Params    interface{} `json:"params,omitempty"`
	SessionID string      `json:"sessionId,omitempty"`
}

// browserForwardParams is the inner payload of a forwardCDPCommand envelope.
type browserForwardParams struct {
	Method    string          `json:"method"`
	SessionID string          `json:"sessionId,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// browserCommand is what the relay sends to the Browser peer for a
// forwarded protocol command (spec §6, "From relay to Browser").
type browserCommand struct {
	ID     int                  `json:"id"`
	Method string               `json:"method"`
	Params browserForwardParams `json:"params"`
}

// browserResponse is what the Browser peer sends back for a forwarded
// command, a forwarded event, a log line, or a pong.
type browserResponse struct {
	ID     int             `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// forwardedCDPEvent is the inner payload of a forwardCDPEvent envelope.
type forwardedCDPEvent struct {
	Method    string          `json:"method"`
	SessionID string          `json:"sessionId,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// logParams is the payload of a browser "log" control message.
type logParams struct {
	Level string   `json:"level"`
	Args  []string `json:"args"`
}

// localCommand is what the relay sends to the Local peer (spec §6).
type localCommand struct {
	ID     int         `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// localResponse mirrors browserResponse for the Local peer's wire shape.
type localResponse struct {
	ID     int             `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type fileReadParams struct {
	Path string `json:"path"`
}

type fileReadResult struct {
	Content string  `json:"content"`
	Mtime   float64 `json:"mtime"`
}

type fileWriteParams struct {
	Path          string  `json:"path"`
	Content       string  `json:"content"`
	ExpectedMtime float64 `json:"expectedMtime,omitempty"`
}

type fileWriteResult struct {
	Success bool    `json:"success"`
	Mtime   float64 `json:"mtime"`
}

type bashExecuteParams struct {
	Command string `json:"command"`
	Workdir string `json:"workdir,omitempty"`
	Timeout int    `json:"timeout,omitempty"`
}

type bashExecuteResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exitCode"`
}

// pingMessage is the application-level keepalive sent to back-end peers.
type pingMessage struct {
	Method string `json:"method"`
}
