package app

import (
	"log/slog"
	"sync"

	"ttx-deepfake/internal/domain"
)

// NoticeType tags what a Sink is being told.
type NoticeType string

const (
	NoticeEvent              NoticeType = "event"
	NoticeClientConnected    NoticeType = "client_connected"
	NoticeClientDisconnected NoticeType = "client_disconnected"
)

// Notice is one message routed to an admin.
type Notice struct {
	Type   NoticeType
	Client domain.ConnectionInfo
	Event  domain.Event // set for NoticeEvent
}

// Sink accepts notices for one connection. Deliver must not block; it returns
// false when the notice was dropped.
type Sink interface {
	Deliver(n Notice) bool
}

// DropReason explains why Publish forwarded nothing.
type DropReason string

const (
	DropNone          DropReason = ""
	DropUnknownOrigin DropReason = "unknown_origin"
	DropNotClient     DropReason = "origin_not_client"
	DropNoWatcher     DropReason = "no_watcher"
)

// Delivery reports the outcome of one Publish.
type Delivery struct {
	Delivered int
	Full      int
	Reason    DropReason
}

// AtMostOnce is the router's delivery policy: every notice is offered to each
// eligible sink exactly once, never queued in the router, never retried. A sink
// that cannot take it immediately loses it.
const AtMostOnce = "at-most-once, no buffering"

// Router fans client events out to the admins watching that client, and
// connection changes out to every admin.
type Router struct {
	registry *Registry
	logger   *slog.Logger

	mu       sync.RWMutex
	sinks    map[domain.ConnectionID]Sink
	watching map[domain.ConnectionID]domain.ConnectionID // admin -> client
}

func NewRouter(registry *Registry, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		registry: registry,
		logger:   logger,
		sinks:    make(map[domain.ConnectionID]Sink),
		watching: make(map[domain.ConnectionID]domain.ConnectionID),
	}
	registry.AddListener(r)
	return r
}

// Attach connects the outbound side of a connection.
func (r *Router) Attach(id domain.ConnectionID, sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[id] = sink
}

// Detach forgets a connection's sink and any watch it held.
func (r *Router) Detach(id domain.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sinks, id)
	delete(r.watching, id)
}

// Watch points admin at client; events from client are forwarded to admin from
// now on. An admin watches at most one client.
func (r *Router) Watch(admin, client domain.ConnectionID) error {
	a, ok := r.registry.Get(admin)
	if !ok {
		return domain.ErrConnectionNotFound
	}
	if a.Role != domain.RoleAdmin {
		return domain.ErrNotAdmin
	}
	c, ok := r.registry.Get(client)
	if !ok {
		return domain.ErrConnectionNotFound
	}
	if c.Role != domain.RoleClient {
		return domain.ErrNotClient
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.watching[admin] = client
	return nil
}

// Unwatch stops forwarding events to admin.
func (r *Router) Unwatch(admin domain.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.watching, admin)
}

// Watching returns the client admin is watching.
func (r *Router) Watching(admin domain.ConnectionID) (domain.ConnectionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.watching[admin]
	return client, ok
}

// Publish forwards ev from origin to every admin watching origin. Events from
// connections the registry does not know yet are dropped; that race with
// registration is accepted.
func (r *Router) Publish(ev domain.Event, origin domain.ConnectionID) Delivery {
	info, ok := r.registry.Get(origin)
	if !ok {
		r.logger.Debug("dropping event from unknown origin", "origin", origin, "kind", ev.Kind())
		return Delivery{Reason: DropUnknownOrigin}
	}
	if info.Role != domain.RoleClient {
		return Delivery{Reason: DropNotClient}
	}

	notice := Notice{Type: NoticeEvent, Client: info, Event: ev}
	var d Delivery

	r.mu.RLock()
	for _, admin := range r.registry.Admins() {
		if r.watching[admin.ID] != origin {
			continue
		}
		sink, ok := r.sinks[admin.ID]
		if !ok {
			continue
		}
		if sink.Deliver(notice) {
			d.Delivered++
		} else {
			d.Full++
		}
	}
	r.mu.RUnlock()

	if d.Full > 0 {
		r.logger.Debug("event dropped for slow admin", "origin", origin, "kind", ev.Kind(), "dropped", d.Full)
	}
	if d.Delivered == 0 && d.Full == 0 {
		d.Reason = DropNoWatcher
	}
	return d
}

// ClientConnected tells every admin, regardless of what it watches.
func (r *Router) ClientConnected(info domain.ConnectionInfo) {
	r.broadcastAdmins(Notice{Type: NoticeClientConnected, Client: info})
}

// ClientDisconnected tells every admin and drops watches on the client.
func (r *Router) ClientDisconnected(info domain.ConnectionInfo) {
	r.mu.Lock()
	for admin, client := range r.watching {
		if client == info.ID {
			delete(r.watching, admin)
		}
	}
	r.mu.Unlock()
	r.broadcastAdmins(Notice{Type: NoticeClientDisconnected, Client: info})
}

func (r *Router) broadcastAdmins(n Notice) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, admin := range r.registry.Admins() {
		if sink, ok := r.sinks[admin.ID]; ok {
			sink.Deliver(n)
		}
	}
}
