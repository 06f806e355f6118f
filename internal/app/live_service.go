package app

import (
	"log/slog"

	"ttx-deepfake/internal/domain"
)

// LedgerStore abstracts where per-session ledgers live.
type LedgerStore interface {
	GetOrCreate(id domain.ConnectionID) *Ledger
	Get(id domain.ConnectionID) (*Ledger, bool)
	Delete(id domain.ConnectionID) bool
	Sessions() []domain.ConnectionID
}

// TokenVerifier turns a bearer token into the identity it was issued for.
type TokenVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// SessionView is the admin drill-down for one client session.
type SessionView struct {
	SessionID domain.ConnectionID     `json:"sessionId"`
	Client    *domain.ConnectionInfo  `json:"client"`
	Entries   []domain.RiskCardResult `json:"entries"`
	Chart     []domain.ChartEntry     `json:"chart"`
	// Rows holds the drill-down table per card id, with placeholders for
	// slots that were never observed.
	Rows map[string][]domain.QuestionRow `json:"rows"`
}

// LiveService wires the registry, router and ledgers behind the live socket.
type LiveService struct {
	registry *Registry
	router   *Router
	ledgers  LedgerStore
	verifier TokenVerifier
	logger   *slog.Logger
}

// NewLiveService builds the service. A nil verifier disables identity checks:
// tokens are ignored and anyone may register as admin.
func NewLiveService(registry *Registry, router *Router, ledgers LedgerStore, verifier TokenVerifier, logger *slog.Logger) *LiveService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveService{
		registry: registry,
		router:   router,
		ledgers:  ledgers,
		verifier: verifier,
		logger:   logger,
	}
}

// Connect records a new connection and attaches its outbound sink.
func (s *LiveService) Connect(sink Sink) domain.ConnectionInfo {
	id := domain.NewConnectionID()
	s.router.Attach(id, sink)
	return s.registry.Connect(id)
}

// Register claims a role for a connection. An admin must present a token for an
// admin account when a verifier is configured.
func (s *LiveService) Register(id domain.ConnectionID, role domain.Role, token string) (domain.ConnectionInfo, error) {
	var identity *domain.Identity
	if s.verifier != nil && token != "" {
		ident, err := s.verifier.Verify(token)
		if err != nil {
			return domain.ConnectionInfo{}, err
		}
		identity = &ident
	}
	if role == domain.RoleAdmin && s.verifier != nil && (identity == nil || !identity.IsAdmin) {
		return domain.ConnectionInfo{}, domain.ErrNotAdmin
	}

	info, err := s.registry.Register(id, role, identity)
	if err != nil {
		return domain.ConnectionInfo{}, err
	}
	if role != domain.RoleAdmin {
		s.router.Unwatch(id)
	}
	s.logger.Info("connection registered", "connection", id, "role", role, "user", info.UserEmail)
	return info, nil
}

// HandleEvent folds an inbound client event into that client's ledger and
// relays it to the admins watching the client.
func (s *LiveService) HandleEvent(id domain.ConnectionID, ev domain.Event) Delivery {
	if !s.registry.Touch(id) {
		return s.router.Publish(ev, id)
	}
	info, _ := s.registry.Get(id)
	if info.Role == domain.RoleClient {
		if _, changed := s.ledgers.GetOrCreate(id).Apply(ev); !changed && ev.Kind() == domain.KindAnswerSelection {
			s.logger.Debug("answer before question ignored", "connection", id, "card", ev.Card())
		}
	}
	return s.router.Publish(ev, id)
}

// Touch records activity that carries no event (pings, control messages).
func (s *LiveService) Touch(id domain.ConnectionID) {
	s.registry.Touch(id)
}

// Watch points an admin at a client and returns the client's session so far.
func (s *LiveService) Watch(admin, client domain.ConnectionID) (SessionView, error) {
	s.registry.Touch(admin)
	if err := s.router.Watch(admin, client); err != nil {
		return SessionView{}, err
	}
	return s.Session(client)
}

// Unwatch stops mirroring for an admin.
func (s *LiveService) Unwatch(admin domain.ConnectionID) {
	s.registry.Touch(admin)
	s.router.Unwatch(admin)
}

// Clients lists the connected clients.
func (s *LiveService) Clients() []domain.ConnectionInfo {
	return s.registry.List()
}

// IsAdmin reports whether id is registered as admin.
func (s *LiveService) IsAdmin(id domain.ConnectionID) bool {
	info, ok := s.registry.Get(id)
	return ok && info.Role == domain.RoleAdmin
}

// Session returns the ledger view for a client session. Sessions of
// disconnected clients stay available until cleared.
func (s *LiveService) Session(id domain.ConnectionID) (SessionView, error) {
	view := SessionView{SessionID: id}
	if info, ok := s.registry.Get(id); ok && info.Role == domain.RoleClient {
		view.Client = &info
	}
	ledger, ok := s.ledgers.Get(id)
	if !ok && view.Client == nil {
		return SessionView{}, domain.ErrSessionNotFound
	}
	snapshot := map[string]domain.RiskCardResult{}
	view.Entries = []domain.RiskCardResult{}
	if ok {
		snapshot = ledger.Snapshot()
		view.Entries = ledger.Entries()
	}
	view.Chart = ProjectChart(snapshot)
	view.Rows = make(map[string][]domain.QuestionRow, len(snapshot))
	for id, entry := range snapshot {
		view.Rows[id] = DrillDown(entry)
	}
	return view, nil
}

// Sessions lists every session that has a ledger, connected or not.
func (s *LiveService) Sessions() []domain.ConnectionID {
	return s.ledgers.Sessions()
}

// Clear drops a session's ledger. It reports whether there was one.
func (s *LiveService) Clear(id domain.ConnectionID) bool {
	cleared := s.ledgers.Delete(id)
	if cleared {
		s.logger.Info("live session cleared", "session", id)
	}
	return cleared
}

// Disconnect forgets a connection. Its ledger is left in place until cleared.
func (s *LiveService) Disconnect(id domain.ConnectionID) {
	s.router.Detach(id)
	if info, ok := s.registry.Unregister(id); ok {
		s.logger.Info("connection closed", "connection", id, "role", info.Role)
	}
}
