package app

import (
	"sort"
	"sync"
	"time"

	"ttx-deepfake/internal/domain"
)

// RegistryListener is told when clients appear and disappear.
type RegistryListener interface {
	ClientConnected(info domain.ConnectionInfo)
	ClientDisconnected(info domain.ConnectionInfo)
}

// PresenceRecorder mirrors connection liveness into an external store (Redis).
// Calls are best effort.
type PresenceRecorder interface {
	MarkOnline(info domain.ConnectionInfo)
	Touch(id domain.ConnectionID)
	MarkOffline(id domain.ConnectionID)
}

// Registry tracks every live connection and the role it has claimed.
type Registry struct {
	now func() time.Time

	mu        sync.RWMutex
	conns     map[domain.ConnectionID]*domain.ConnectionInfo
	listeners []RegistryListener
	presence  PresenceRecorder
}

func NewRegistry() *Registry {
	return NewRegistryWithClock(time.Now)
}

// NewRegistryWithClock allows deterministic timestamps in tests.
func NewRegistryWithClock(now func() time.Time) *Registry {
	return &Registry{
		now:   now,
		conns: make(map[domain.ConnectionID]*domain.ConnectionInfo),
	}
}

// AddListener subscribes l to client connect/disconnect notifications.
func (r *Registry) AddListener(l RegistryListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// SetPresence installs an external liveness recorder.
func (r *Registry) SetPresence(p PresenceRecorder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presence = p
}

// Connect records a new unclaimed connection.
func (r *Registry) Connect(id domain.ConnectionID) domain.ConnectionInfo {
	now := r.now()
	info := &domain.ConnectionInfo{
		ID:             id,
		Role:           domain.RoleUnclaimed,
		ConnectedAt:    now,
		LastActivityAt: now,
	}

	r.mu.Lock()
	r.conns[id] = info
	presence := r.presence
	r.mu.Unlock()

	if presence != nil {
		presence.MarkOnline(*info)
	}
	return *info
}

// Register sets the role of a connection, replacing any earlier role. The
// identity, when given, is attached for display.
func (r *Registry) Register(id domain.ConnectionID, role domain.Role, identity *domain.Identity) (domain.ConnectionInfo, error) {
	if role != domain.RoleClient && role != domain.RoleAdmin {
		return domain.ConnectionInfo{}, domain.ErrInvalidRole
	}

	r.mu.Lock()
	info, ok := r.conns[id]
	if !ok {
		r.mu.Unlock()
		return domain.ConnectionInfo{}, domain.ErrConnectionNotFound
	}
	wasClient := info.Role == domain.RoleClient
	info.Role = role
	info.LastActivityAt = r.now()
	if identity != nil {
		info.UserID = identity.UserID
		info.UserName = identity.Name
		info.UserEmail = identity.Email
	} else if role != domain.RoleClient {
		info.UserID, info.UserName, info.UserEmail = "", "", ""
	}
	snapshot := *info
	listeners := append([]RegistryListener(nil), r.listeners...)
	presence := r.presence
	r.mu.Unlock()

	if presence != nil {
		presence.MarkOnline(snapshot)
	}
	for _, l := range listeners {
		switch {
		case role == domain.RoleClient:
			l.ClientConnected(snapshot)
		case wasClient:
			l.ClientDisconnected(snapshot)
		}
	}
	return snapshot, nil
}

// Touch bumps LastActivityAt. It reports whether the connection is known.
func (r *Registry) Touch(id domain.ConnectionID) bool {
	r.mu.Lock()
	info, ok := r.conns[id]
	if ok {
		info.LastActivityAt = r.now()
	}
	presence := r.presence
	r.mu.Unlock()

	if ok && presence != nil {
		presence.Touch(id)
	}
	return ok
}

// Unregister removes a connection. Listeners hear about it when it was a client.
func (r *Registry) Unregister(id domain.ConnectionID) (domain.ConnectionInfo, bool) {
	r.mu.Lock()
	info, ok := r.conns[id]
	if !ok {
		r.mu.Unlock()
		return domain.ConnectionInfo{}, false
	}
	delete(r.conns, id)
	snapshot := *info
	listeners := append([]RegistryListener(nil), r.listeners...)
	presence := r.presence
	r.mu.Unlock()

	if presence != nil {
		presence.MarkOffline(id)
	}
	if snapshot.Role == domain.RoleClient {
		for _, l := range listeners {
			l.ClientDisconnected(snapshot)
		}
	}
	return snapshot, true
}

// Get returns the record for id.
func (r *Registry) Get(id domain.ConnectionID) (domain.ConnectionInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.conns[id]
	if !ok {
		return domain.ConnectionInfo{}, false
	}
	return *info, true
}

// List returns the registered clients ordered by connect time. Admins observe
// clients, so admin and unclaimed connections are never listed.
func (r *Registry) List() []domain.ConnectionInfo {
	return r.byRole(domain.RoleClient)
}

// Admins returns every connection registered as admin.
func (r *Registry) Admins() []domain.ConnectionInfo {
	return r.byRole(domain.RoleAdmin)
}

func (r *Registry) byRole(role domain.Role) []domain.ConnectionInfo {
	r.mu.RLock()
	out := make([]domain.ConnectionInfo, 0, len(r.conns))
	for _, info := range r.conns {
		if info.Role == role {
			out = append(out, *info)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].ConnectedAt.Before(out[j].ConnectedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
