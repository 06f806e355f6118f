// Package watch is a terminal observer that connects to the live socket as an
// admin and mirrors one client session.
package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"ttx-deepfake/internal/app"
	"ttx-deepfake/internal/domain"
)

// Config controls the observer connection.
type Config struct {
	URL          string
	Token        string
	ClientID     domain.ConnectionID // empty watches the first client listed
	WriteTimeout time.Duration
}

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outgoing struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Observer folds relayed events into a local ledger and mirror.
type Observer struct {
	cfg    Config
	logger *slog.Logger

	conn    *websocket.Conn
	client  domain.ConnectionInfo
	entries map[string]*domain.RiskCardResult
	mirror  *app.Mirror
}

func NewObserver(cfg Config, logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &Observer{
		cfg:     cfg,
		logger:  logger,
		entries: make(map[string]*domain.RiskCardResult),
		mirror:  app.NewMirror(),
	}
}

// Run dials, registers as admin, watches a client and redraws to out after
// every change until ctx is done or the server closes the socket.
func (o *Observer) Run(ctx context.Context, out io.Writer) error {
	ws, _, err := websocket.Dial(ctx, o.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", o.cfg.URL, err)
	}
	o.conn = ws
	defer ws.Close(websocket.StatusNormalClosure, "observer done")

	if err := o.write(ctx, "register", map[string]any{"role": domain.RoleAdmin, "token": o.cfg.Token}); err != nil {
		return err
	}
	if err := o.write(ctx, "list", nil); err != nil {
		return err
	}

	for {
		var msg message
		if err := wsjson.Read(ctx, ws, &msg); err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return err
		}
		changed, err := o.handle(ctx, msg)
		if err != nil {
			return err
		}
		if changed {
			fmt.Fprint(out, Render(o.client, o.mirror.State(), o.Chart(), o.Rows()))
		}
	}
}

// handle applies one server message. It reports whether the view changed.
func (o *Observer) handle(ctx context.Context, msg message) (bool, error) {
	switch msg.Type {
	case "error":
		var p struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(msg.Payload, &p)
		if o.mirror.Watched() == "" {
			return false, errors.New(p.Message)
		}
		o.logger.Warn("server error", "message", p.Message)
		return false, nil

	case "clients":
		var clients []domain.ConnectionInfo
		if err := json.Unmarshal(msg.Payload, &clients); err != nil {
			return false, err
		}
		if o.mirror.Watched() != "" {
			return false, nil
		}
		target := pickClient(clients, o.cfg.ClientID)
		if target == "" {
			o.logger.Info("no client to watch yet", "want", o.cfg.ClientID)
			return false, nil
		}
		return false, o.write(ctx, "watch", map[string]any{"clientId": target})

	case "client_connected":
		if o.mirror.Watched() == "" {
			return false, o.write(ctx, "list", nil)
		}
		return false, nil

	case "client_disconnected":
		var info domain.ConnectionInfo
		if err := json.Unmarshal(msg.Payload, &info); err != nil {
			return false, err
		}
		if info.ID == o.mirror.Watched() {
			o.logger.Info("watched client left", "client", info.ID)
		}
		return false, nil

	case "watching":
		var view app.SessionView
		if len(msg.Payload) == 0 {
			return false, nil
		}
		if err := json.Unmarshal(msg.Payload, &view); err != nil {
			return false, err
		}
		o.Load(view)
		return true, nil

	case "event":
		var p struct {
			Client domain.ConnectionInfo `json:"client"`
			Event  domain.Envelope       `json:"event"`
		}
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return false, err
		}
		ev, err := domain.DecodeEvent(p.Event)
		if err != nil {
			o.logger.Warn("skipping undecodable event", "err", err)
			return false, nil
		}
		return o.Apply(domain.RoutedEvent{Origin: p.Client, Event: ev}), nil
	}
	return false, nil
}

// Load resets local state to a session snapshot.
func (o *Observer) Load(view app.SessionView) {
	o.entries = make(map[string]*domain.RiskCardResult, len(view.Entries))
	for i := range view.Entries {
		entry := view.Entries[i]
		o.entries[entry.CardID] = &entry
	}
	if view.Client != nil {
		o.client = *view.Client
	} else {
		o.client = domain.ConnectionInfo{ID: view.SessionID}
	}
	o.mirror.Watch(view.SessionID)
}

// Apply folds one relayed event into the ledger and mirror.
func (o *Observer) Apply(ev domain.RoutedEvent) bool {
	if ev.Origin.ID != o.mirror.Watched() {
		return false
	}
	next, changed := app.Reduce(o.entries[ev.Event.Card()], ev.Event)
	if changed {
		o.entries[ev.Event.Card()] = next
	}
	return o.mirror.Apply(ev) || changed
}

// Chart projects the local ledger.
func (o *Observer) Chart() []domain.ChartEntry {
	snapshot := make(map[string]domain.RiskCardResult, len(o.entries))
	for id, entry := range o.entries {
		snapshot[id] = *entry
	}
	return app.ProjectChart(snapshot)
}

// Rows projects the drill-down table of every local ledger entry.
func (o *Observer) Rows() map[string][]domain.QuestionRow {
	out := make(map[string][]domain.QuestionRow, len(o.entries))
	for id, entry := range o.entries {
		out[id] = app.DrillDown(*entry)
	}
	return out
}

// Entry returns the local ledger entry for a card.
func (o *Observer) Entry(cardID string) (domain.RiskCardResult, bool) {
	entry, ok := o.entries[cardID]
	if !ok {
		return domain.RiskCardResult{}, false
	}
	return *entry, true
}

// State returns the mirrored screen.
func (o *Observer) State() domain.MirroredState {
	return o.mirror.State()
}

func (o *Observer) write(ctx context.Context, typ string, payload any) error {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.WriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, o.conn, outgoing{Type: typ, Payload: payload})
}

func pickClient(clients []domain.ConnectionInfo, want domain.ConnectionID) domain.ConnectionID {
	if want != "" {
		for _, c := range clients {
			if c.ID == want {
				return c.ID
			}
		}
		return ""
	}
	if len(clients) == 0 {
		return ""
	}
	sort.SliceStable(clients, func(i, j int) bool { return clients[i].ConnectedAt.Before(clients[j].ConnectedAt) })
	return clients[0].ID
}
