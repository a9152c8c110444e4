package room

import (
	"context"
	"encoding/json"
	"time"

	"github.com/workspace/room-relay/internal/metrics"
	"github.com/workspace/room-relay/internal/roomerr"
)

// CallBrowser forwards a protocol command to the browser peer and waits
// for its response (spec §4.4, C3). originClientID is recorded on the
// PendingRequest for observability only; replies are delivered to
// whichever agent dispatched the call by its own caller, not by the
// multiplexer.
func (r *Room) CallBrowser(ctx context.Context, method string, params json.RawMessage, sessionID, originClientID string) (json.RawMessage, error) {
	r.mu.Lock()
	browser := r.peers.lookupBrowser()
	r.mu.Unlock()
	if browser == nil {
		return nil, &roomerr.NotConnected{Peer: "Extension"}
	}

	id := r.browserMux.nextID()
	timeout := r.cfg.BrowserRPCTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pr := r.browserMux.register(id, method, originClientID, timeout)

	cmd := browserCommand{
		ID:     id,
		Method: "forwardCDPCommand",
		Params: browserForwardParams{Method: method, SessionID: sessionID, Params: params},
	}

	metrics.RPCRequests.WithLabelValues("browser", method).Inc()
	start := time.Now()
	if err := browser.WriteJSON(cmd); err != nil {
		r.browserMux.resolveWithError(id, err)
	}

	select {
	case res := <-pr.resultCh:
		outcome := "ok"
		if res.err != nil {
			outcome = "error"
		}
		metrics.RPCDuration.WithLabelValues("browser", outcome).Observe(time.Since(start).Seconds())
		return res.result, res.err
	case <-ctx.Done():
		r.browserMux.resolveWithError(id, ctx.Err())
		return nil, ctx.Err()
	}
}

// HandleBrowserMessage dispatches one inbound message from the browser
// peer: an RPC response, a forwarded CDP event, a log line, or a pong
// (spec §4.4).
func (r *Room) HandleBrowserMessage(raw []byte) {
	var msg browserResponse
	if err := json.Unmarshal(raw, &msg); err != nil {
		r.logger.Error("malformed browser message", "error", err)
		return
	}

	switch {
	case msg.Method == "forwardCDPEvent":
		r.handleBrowserEvent(msg.Params)
	case msg.Method == "log":
		r.handleBrowserLog(msg.Params)
	case msg.Method == "pong":
		// Consumed silently; pongs are not recorded and the keepalive loop
		// does not track liveness (spec §4.7).
	case msg.ID != 0:
		r.browserMux.resolve(msg.ID, msg.Result, msg.Error)
	default:
		r.logger.Warn("unrecognized browser message", "raw", string(raw))
	}
}

func (r *Room) handleBrowserLog(params json.RawMessage) {
	var lp logParams
	if err := json.Unmarshal(params, &lp); err != nil {
		return
	}
	r.logger.Info("extension log", "level", lp.Level, "args", lp.Args)
}

// handleBrowserEvent applies target-registry bookkeeping (C5) before
// fanning the event out verbatim to every agent (C7), per spec §4.4.
func (r *Room) handleBrowserEvent(params json.RawMessage) {
	var evt forwardedCDPEvent
	if err := json.Unmarshal(params, &evt); err != nil {
		r.logger.Error("malformed forwardCDPEvent", "error", err)
		return
	}

	r.mu.Lock()
	switch evt.Method {
	case "Target.attachedToTarget":
		var p struct {
			SessionID string     `json:"sessionId"`
			TargetInfo TargetInfo `json:"targetInfo"`
		}
		if err := json.Unmarshal(evt.Params, &p); err == nil {
			r.targets.attach(p.SessionID, p.TargetInfo.TargetID, p.TargetInfo)
		}
	case "Target.detachedFromTarget":
		var p struct {
			SessionID string `json:"sessionId"`
		}
		if err := json.Unmarshal(evt.Params, &p); err == nil {
			r.targets.detach(p.SessionID)
		}
	case "Target.targetInfoChanged":
		var p struct {
			TargetInfo TargetInfo `json:"targetInfo"`
		}
		if err := json.Unmarshal(evt.Params, &p); err == nil {
			r.targets.infoChanged(p.TargetInfo.TargetID, p.TargetInfo)
		}
	case "Page.frameNavigated":
		var p struct {
			Frame struct {
				Name     string `json:"name"`
				URL      string `json:"url"`
				ParentID string `json:"parentId"`
			} `json:"frame"`
		}
		if err := json.Unmarshal(evt.Params, &p); err == nil && p.Frame.ParentID == "" && evt.SessionID != "" {
			r.targets.navigateTopFrame(evt.SessionID, p.Frame.URL, p.Frame.Name)
		}
	}
	r.mu.Unlock()

	r.broadcast(AgentEvent{Method: evt.Method, Params: json.RawMessage(evt.Params), SessionID: evt.SessionID})
}
