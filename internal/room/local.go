package room

import (
	"context"
	"encoding/json"
	"time"

	"github.com/workspace/room-relay/internal/metrics"
	"github.com/workspace/room-relay/internal/roomerr"
)

// callLocal forwards a command to the local-machine peer (spec §4.5, C4).
func (r *Room) callLocal(ctx context.Context, method string, params interface{}, timeout time.Duration) (json.RawMessage, error) {
	r.mu.Lock()
	local := r.peers.lookupLocal()
	r.mu.Unlock()
	if local == nil {
		return nil, &roomerr.NotConnected{Peer: "Local client"}
	}

	id := r.localMux.nextID()
	if timeout <= 0 {
		timeout = r.cfg.LocalRPCTimeout
	}
	pr := r.localMux.register(id, method, "", timeout)

	cmd := localCommand{ID: id, Method: method, Params: params}

	metrics.RPCRequests.WithLabelValues("local", method).Inc()
	start := time.Now()
	if err := local.WriteJSON(cmd); err != nil {
		r.localMux.resolveWithError(id, err)
	}

	select {
	case res := <-pr.resultCh:
		outcome := "ok"
		if res.err != nil {
			outcome = "error"
		}
		metrics.RPCDuration.WithLabelValues("local", outcome).Observe(time.Since(start).Seconds())
		return res.result, res.err
	case <-ctx.Done():
		r.localMux.resolveWithError(id, ctx.Err())
		return nil, ctx.Err()
	}
}

// HandleLocalMessage dispatches one inbound message from the local peer:
// an RPC response, or a log/pong control message.
func (r *Room) HandleLocalMessage(raw []byte) {
	var msg localResponse
	if err := json.Unmarshal(raw, &msg); err != nil {
		r.logger.Error("malformed local message", "error", err)
		return
	}

	switch {
	case msg.Method == "log":
		r.logger.Info("local client log", "raw", string(raw))
	case msg.Method == "pong":
		// Consumed silently (spec §4.7).
	case msg.ID != 0:
		r.localMux.resolve(msg.ID, msg.Result, msg.Error)
	default:
		r.logger.Warn("unrecognized local message", "raw", string(raw))
	}
}

// ReadFile implements the file.read tool (spec §4.5, §6). On success the
// ledger records path -> mtime for later write validation (C8).
func (r *Room) ReadFile(ctx context.Context, path string) (string, error) {
	raw, err := r.callLocal(ctx, "file.read", fileReadParams{Path: path}, 0)
	if err != nil {
		return "", err
	}
	var res fileReadResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", err
	}

	r.mu.Lock()
	r.ledger.recordRead(path, res.Mtime)
	r.mu.Unlock()

	return res.Content, nil
}

// WriteFile implements the write_file tool (spec §4.5, §6, §7.6). A write
// with no prior successful read fails synchronously, before any message
// is sent to the local peer.
func (r *Room) WriteFile(ctx context.Context, path, content string) error {
	r.mu.Lock()
	expected, ok := r.ledger.expectedMtime(path)
	r.mu.Unlock()
	if !ok {
		return &roomerr.WriteBeforeRead{Path: path}
	}

	raw, err := r.callLocal(ctx, "file.write", fileWriteParams{Path: path, Content: content, ExpectedMtime: expected}, 0)
	if err != nil {
		return err
	}
	var res fileWriteResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return err
	}

	r.mu.Lock()
	r.ledger.recordWrite(path, res.Mtime)
	r.mu.Unlock()

	return nil
}

// BashExecute implements the bash tool (spec §4.5, §6). The RPC's outer
// deadline is timeout+slack so that a command which legitimately uses its
// full budget still gets a reply before the relay gives up on it.
func (r *Room) BashExecute(ctx context.Context, command, workdir string, timeoutMs int) (stdout, stderr string, exitCode int, err error) {
	slack := r.cfg.BashExecSlack
	if slack <= 0 {
		slack = 5 * time.Second
	}
	cmdTimeout := time.Duration(timeoutMs) * time.Millisecond
	if cmdTimeout <= 0 {
		cmdTimeout = 30 * time.Second
	}
	outerTimeout := cmdTimeout + slack

	raw, callErr := r.callLocal(ctx, "bash.execute", bashExecuteParams{Command: command, Workdir: workdir, Timeout: timeoutMs}, outerTimeout)
	if callErr != nil {
		return "", "", 0, callErr
	}
	var res bashExecuteResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", "", 0, err
	}
	return res.Stdout, res.Stderr, res.ExitCode, nil
}
