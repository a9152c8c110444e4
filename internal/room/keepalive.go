package room

// Keepalive (spec §4.7, C9). A periodic timer runs whenever at least one
// back-end peer (Browser or Local) is connected, sending an
// application-level {"method":"ping"} to each. Pongs are consumed but not
// otherwise acted upon — the relay relies on transport-level closure to
// detect dead peers (spec §9, open question).

import "time"

func (r *Room) ensureKeepalive() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.keepaliveOn {
		return
	}
	if r.peers.lookupBrowser() == nil && r.peers.lookupLocal() == nil {
		return
	}

	r.keepaliveOn = true
	r.keepaliveStop = make(chan struct{})
	stop := r.keepaliveStop
	go r.runKeepalive(stop)
}

func (r *Room) maybeStopKeepalive() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.keepaliveOn {
		return
	}
	if r.peers.lookupBrowser() != nil || r.peers.lookupLocal() != nil {
		return
	}
	close(r.keepaliveStop)
	r.keepaliveOn = false
}

func (r *Room) runKeepalive(stop chan struct{}) {
	interval := r.cfg.KeepaliveInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			browser := r.peers.lookupBrowser()
			local := r.peers.lookupLocal()
			r.mu.Unlock()

			if browser != nil {
				if err := browser.WriteJSON(pingMessage{Method: "ping"}); err != nil {
					r.logger.Warn("keepalive ping to browser failed", "error", err)
				}
			}
			if local != nil {
				if err := local.WriteJSON(pingMessage{Method: "ping"}); err != nil {
					r.logger.Warn("keepalive ping to local failed", "error", err)
				}
			}
		}
	}
}
