package room

import (
	"context"
	"encoding/json"
)

// fixedVersion is the descriptor returned for Browser.getVersion (spec
// §4.3, decision table).
type fixedVersion struct {
	ProtocolVersion string `json:"protocolVersion"`
	Product         string `json:"product"`
	Revision        string `json:"revision"`
	UserAgent       string `json:"userAgent"`
	JSVersion       string `json:"jsVersion"`
}

var roomVersion = fixedVersion{
	ProtocolVersion: "1.3",
	Product:         "Chrome/Cloudflare-Relay",
	Revision:        "1.0.0",
	UserAgent:       "room-relay/1.0 (+https://github.com/workspace/room-relay)",
	JSVersion:       "V8",
}

type emptyResult struct{}

type attachedToTargetParams struct {
	SessionID          string     `json:"sessionId"`
	TargetInfo         TargetInfo `json:"targetInfo"`
	WaitingForDebugger bool       `json:"waitingForDebugger"`
}

type targetCreatedParams struct {
	TargetInfo TargetInfo `json:"targetInfo"`
}

type setAutoAttachParams struct {
	SessionID string `json:"sessionId,omitempty"`
}

type setDiscoverTargetsParams struct {
	Discover bool `json:"discover"`
}

type attachToTargetParams struct {
	TargetID string `json:"targetId"`
}

type getTargetInfoParams struct {
	TargetID  string `json:"targetId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

type getTargetInfoResult struct {
	TargetInfo TargetInfo `json:"targetInfo"`
}

type getTargetsResult struct {
	TargetInfos []TargetInfo `json:"targetInfos"`
}

type detachFromTargetParams struct {
	SessionID string `json:"sessionId,omitempty"`
}

// RouteAgentCommand implements the Command Router decision table (spec
// §4.3, C6). It replies to the originating agent (synthesizing zero or
// more events first) and, for forwarded methods, calls through to the
// browser peer. agent is the requesting peer; its ClientID is passed to
// CallBrowser as the originClientID recorded on the pending request.
func (r *Room) RouteAgentCommand(ctx context.Context, agent *Peer, cmd AgentCommand) {
	switch cmd.Method {
	case "Browser.getVersion":
		r.reply(agent, cmd.ID, cmd.SessionID, roomVersion, nil)

	case "Browser.setDownloadBehavior":
		r.reply(agent, cmd.ID, cmd.SessionID, emptyResult{}, nil)

	case "Target.setAutoAttach":
		var p setAutoAttachParams
		_ = json.Unmarshal(cmd.Params, &p)
		if p.SessionID != "" {
			r.forwardAndReply(ctx, agent, cmd)
			return
		}
		r.mu.Lock()
		targets := r.targets.snapshot()
		r.mu.Unlock()
		for _, t := range targets {
			info := t.Info
			info.Attached = true
			r.sendToAgent(agent, AgentEvent{
				Method: "Target.attachedToTarget",
				Params: attachedToTargetParams{SessionID: t.SessionID, TargetInfo: info, WaitingForDebugger: false},
			})
		}
		r.reply(agent, cmd.ID, cmd.SessionID, emptyResult{}, nil)

	case "Target.setDiscoverTargets":
		var p setDiscoverTargetsParams
		_ = json.Unmarshal(cmd.Params, &p)
		if p.Discover {
			r.mu.Lock()
			targets := r.targets.snapshot()
			r.mu.Unlock()
			for _, t := range targets {
				r.sendToAgent(agent, AgentEvent{Method: "Target.targetCreated", Params: targetCreatedParams{TargetInfo: t.Info}})
			}
		}
		r.reply(agent, cmd.ID, cmd.SessionID, emptyResult{}, nil)

	case "Target.attachToTarget":
		var p attachToTargetParams
		_ = json.Unmarshal(cmd.Params, &p)
		r.mu.Lock()
		t, ok := r.targets.byTargetID(p.TargetID)
		r.mu.Unlock()
		if !ok {
			r.reply(agent, cmd.ID, cmd.SessionID, nil, &AgentError{Message: "Target " + p.TargetID + " not found in connected targets"})
			return
		}
		r.sendToAgent(agent, AgentEvent{
			Method: "Target.attachedToTarget",
			Params: attachedToTargetParams{SessionID: t.SessionID, TargetInfo: t.Info, WaitingForDebugger: false},
		})
		r.reply(agent, cmd.ID, cmd.SessionID, map[string]string{"sessionId": t.SessionID}, nil)

	case "Target.getTargetInfo":
		var p getTargetInfoParams
		_ = json.Unmarshal(cmd.Params, &p)
		r.mu.Lock()
		var t *Target
		var ok bool
		if p.SessionID != "" {
			t, ok = r.targets.bySessionID(p.SessionID)
		} else if p.TargetID != "" {
			t, ok = r.targets.byTargetID(p.TargetID)
		}
		if !ok {
			// Legacy fallback: neither id resolves, return the first known
			// target (spec §4.3, §9 open question — kept as-is rather than
			// guessing a stricter intent).
			t, ok = r.targets.first()
		}
		r.mu.Unlock()
		if !ok {
			r.reply(agent, cmd.ID, cmd.SessionID, nil, &AgentError{Message: "No target found"})
			return
		}
		r.reply(agent, cmd.ID, cmd.SessionID, getTargetInfoResult{TargetInfo: t.Info}, nil)

	case "Target.getTargets":
		r.mu.Lock()
		targets := r.targets.snapshot()
		r.mu.Unlock()
		infos := make([]TargetInfo, 0, len(targets))
		for _, t := range targets {
			info := t.Info
			info.Attached = true
			infos = append(infos, info)
		}
		r.reply(agent, cmd.ID, cmd.SessionID, getTargetsResult{TargetInfos: infos}, nil)

	case "Target.detachFromTarget":
		var p detachFromTargetParams
		_ = json.Unmarshal(cmd.Params, &p)
		r.mu.Lock()
		_, owned := r.targets.bySessionID(p.SessionID)
		r.mu.Unlock()
		if !owned {
			r.reply(agent, cmd.ID, cmd.SessionID, emptyResult{}, nil)
			return
		}
		r.forwardAndReply(ctx, agent, cmd)

	default:
		r.forwardAndReply(ctx, agent, cmd)
	}
}

// reply sends exactly one AgentReply (spec §4.3: "zero or more synthesized
// events followed by exactly one reply").
func (r *Room) reply(agent *Peer, id int, sessionID string, result interface{}, agentErr *AgentError) {
	r.sendToAgent(agent, AgentReply{ID: id, Result: result, Error: agentErr, SessionID: sessionID})
}

// forwardAndReply forwards a command verbatim to the browser peer and
// relays its outcome back to the originating agent (spec §4.3 "any
// other"; §7.2 routing error when no browser is connected).
func (r *Room) forwardAndReply(ctx context.Context, agent *Peer, cmd AgentCommand) {
	result, err := r.CallBrowser(ctx, cmd.Method, cmd.Params, cmd.SessionID, agent.ClientID)
	if err != nil {
		r.reply(agent, cmd.ID, cmd.SessionID, nil, &AgentError{Message: err.Error()})
		return
	}
	r.reply(agent, cmd.ID, cmd.SessionID, json.RawMessage(result), nil)
}
