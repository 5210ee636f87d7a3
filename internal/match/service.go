// Package match provides the HTTP handlers that drive live matches:
// setup, ball-by-ball scoring, corrections, and the read views (snapshot,
// scorecard, delivery ledger).
//
// Each match is owned by one scoring.Engine held in memory. The store
// keeps the latest snapshot, written in the background by the autosaver,
// and an append-only delivery ledger written as balls are scored.
package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/crease/match-engine/internal/delivery"
	"github.com/crease/match-engine/internal/metrics"
	"github.com/crease/match-engine/internal/model"
	"github.com/crease/match-engine/internal/rules"
	"github.com/crease/match-engine/internal/scorecard"
	"github.com/crease/match-engine/internal/scoring"
	"github.com/crease/match-engine/internal/stats"
	"github.com/crease/match-engine/internal/store"
)

// DefaultAutosaveDelay is how long a match must be quiet before its
// snapshot is written.
const DefaultAutosaveDelay = 500 * time.Millisecond

// Options tune a Service. The zero value is usable.
type Options struct {
	// AutosaveDelay debounces snapshot writes. Zero uses DefaultAutosaveDelay.
	AutosaveDelay time.Duration

	// RulesFile is a YAML rule set applied to new matches that do not
	// carry their own rules.
	RulesFile string
}

// Service owns the live matches of this instance. Commands on one match
// are serialised by that match's session lock; different matches proceed
// in parallel.
type Service struct {
	store     store.Store
	wsHub     *WSHub // optional WebSocket hub for live broadcasts
	saver     *Autosaver
	rulesFile string
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu          sync.Mutex // one command (and its ledger row) at a time
	engine      *scoring.Engine
	unsubscribe []func()
	deleted     bool
}

// NewService creates a new match service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, hub *WSHub, opts Options) *Service {
	delay := opts.AutosaveDelay
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	return &Service{
		store:     st,
		wsHub:     hub,
		saver:     NewAutosaver(st, delay),
		rulesFile: opts.RulesFile,
		now:       func() time.Time { return time.Now().UTC() },
		sessions:  make(map[string]*session),
	}
}

// Routes registers the match API on r.
func (s *Service) Routes(r chi.Router) {
	r.Get("/matches", s.ListMatches)
	r.Post("/matches", s.CreateMatch)
	r.Get("/matches/{matchID}", s.GetMatch)
	r.Put("/matches/{matchID}", s.LoadMatch)
	r.Delete("/matches/{matchID}", s.DeleteMatch)

	r.Post("/matches/{matchID}/openers", s.SelectOpeners)
	r.Post("/matches/{matchID}/balls", s.RecordBall)
	r.Post("/matches/{matchID}/wickets", s.RecordWicket)
	r.Post("/matches/{matchID}/bowler", s.ChangeBowler)
	r.Post("/matches/{matchID}/batter", s.ChangeBatter)
	r.Post("/matches/{matchID}/second-innings", s.StartSecondInnings)
	r.Post("/matches/{matchID}/undo", s.UndoLastBall)
	r.Post("/matches/{matchID}/substitute", s.ImpactSubstitute)
	r.Put("/matches/{matchID}/preferences", s.SetPreferences)

	r.Get("/matches/{matchID}/deliveries", s.GetDeliveries)
	r.Get("/matches/{matchID}/summary", s.GetSummary)
}

// Close writes any snapshot still waiting on the autosave timer.
func (s *Service) Close(ctx context.Context) error {
	return s.saver.Flush(ctx)
}

// --- Request/Response types ---

// BallRequest is the JSON body for POST /balls. Outcome uses the scorer's
// tokens: "0".."6", "W", "WD", "NB", "LB", "LB2", "B4".
type BallRequest struct {
	Outcome *delivery.Outcome `json:"outcome"`
}

// BowlerRequest is the JSON body for POST /bowler.
type BowlerRequest struct {
	Bowler string `json:"bowler"`
}

// ErrorResponse is the JSON body of every failed request. Code is set for
// engine rejections only.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// --- HTTP Handlers ---

// CreateMatch handles POST /api/v1/matches
func (s *Service) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req model.SetupData
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Rules == nil && s.rulesFile != "" {
		// An unknown format is left for the engine to reject.
		if f, err := delivery.ParseFormat(string(req.Format)); err == nil {
			rs, err := rules.Load(s.rulesFile, f)
			if err != nil {
				slog.Error("rules file unreadable", "path", s.rulesFile, "err", err)
				writeError(w, "failed to load match rules", http.StatusInternalServerError)
				return
			}
			req.Rules = &rs
		}
	}

	id := uuid.New().String()
	seed := model.NewMatchState()
	seed.MatchID = id
	eng := scoring.NewFrom(seed)

	state, err := eng.SetupMatch(req)
	if err != nil {
		writeCommandError(w, model.CommandSetup, err)
		return
	}

	if err := s.store.CreateMatch(r.Context(), model.NewMatchRecord(state, s.now())); err != nil {
		slog.Error("create match failed", "id", id, "err", err)
		writeError(w, "failed to save match", http.StatusInternalServerError)
		return
	}
	s.attach(id, eng)
	metrics.CommandsTotal.WithLabelValues(string(model.CommandSetup)).Inc()

	slog.Info("match created",
		"id", id,
		"title", model.Title(state),
		"format", state.Details.Format,
		"overs", state.Details.TotalOvers,
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(newStateMessage(state, model.CommandSetup))
	}
	writeJSON(w, http.StatusCreated, state)
}

// ListMatches handles GET /api/v1/matches
// Returns the stored matches, newest first, optionally filtered by
// ?status=<status>.
func (s *Service) ListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.store.ListMatches(r.Context())
	if err != nil {
		writeError(w, "failed to list matches", http.StatusInternalServerError)
		return
	}

	if status := model.MatchStatus(r.URL.Query().Get("status")); status != "" {
		var filtered []model.MatchRecord
		for _, m := range matches {
			if m.Status == status {
				filtered = append(filtered, m)
			}
		}
		matches = filtered
	}
	if matches == nil {
		matches = []model.MatchRecord{}
	}

	writeJSON(w, http.StatusOK, matches)
}

// GetMatch handles GET /api/v1/matches/{matchID}
func (s *Service) GetMatch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.engine.State())
}

// GetSummary handles GET /api/v1/matches/{matchID}/summary
// Returns the scorecard with rates and the chase equation.
func (s *Service) GetSummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, scorecard.Build(sess.engine.State()))
}

// GetDeliveries handles GET /api/v1/matches/{matchID}/deliveries
// Returns the ball-by-ball ledger, undo rows included.
func (s *Service) GetDeliveries(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.lookup(w, r); !ok {
		return
	}
	matchID := chi.URLParam(r, "matchID")

	entries, err := s.store.GetDeliveries(r.Context(), matchID)
	if err != nil {
		writeError(w, "failed to get deliveries", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []model.DeliveryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// SelectOpeners handles POST /api/v1/matches/{matchID}/openers
func (s *Service) SelectOpeners(w http.ResponseWriter, r *http.Request) {
	var req model.Openers
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.dispatch(w, r, model.Command{Kind: model.CommandOpeners, Openers: &req})
}

// RecordBall handles POST /api/v1/matches/{matchID}/balls
func (s *Service) RecordBall(w http.ResponseWriter, r *http.Request) {
	var req BallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid outcome: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Outcome == nil {
		writeError(w, "outcome is required", http.StatusBadRequest)
		return
	}
	s.dispatch(w, r, model.Command{Kind: model.CommandBall, Outcome: req.Outcome})
}

// RecordWicket handles POST /api/v1/matches/{matchID}/wickets
func (s *Service) RecordWicket(w http.ResponseWriter, r *http.Request) {
	var req model.WicketInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.BatterID == "" {
		writeError(w, "batter_id is required", http.StatusBadRequest)
		return
	}
	s.dispatch(w, r, model.Command{Kind: model.CommandWicket, Wicket: &req})
}

// ChangeBowler handles POST /api/v1/matches/{matchID}/bowler
func (s *Service) ChangeBowler(w http.ResponseWriter, r *http.Request) {
	var req BowlerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Bowler == "" {
		writeError(w, "bowler is required", http.StatusBadRequest)
		return
	}
	s.dispatch(w, r, model.Command{Kind: model.CommandChangeBowler, Bowler: req.Bowler})
}

// ChangeBatter handles POST /api/v1/matches/{matchID}/batter
// Retires or substitutes a batter between deliveries.
func (s *Service) ChangeBatter(w http.ResponseWriter, r *http.Request) {
	var req model.BatterChange
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.OutgoingID == "" {
		writeError(w, "outgoing_id is required", http.StatusBadRequest)
		return
	}
	s.dispatch(w, r, model.Command{Kind: model.CommandChangeBatter, Batter: &req})
}

// StartSecondInnings handles POST /api/v1/matches/{matchID}/second-innings
func (s *Service) StartSecondInnings(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, model.Command{Kind: model.CommandSecondInnings})
}

// UndoLastBall handles POST /api/v1/matches/{matchID}/undo
func (s *Service) UndoLastBall(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, model.Command{Kind: model.CommandUndo})
}

// ImpactSubstitute handles POST /api/v1/matches/{matchID}/substitute
func (s *Service) ImpactSubstitute(w http.ResponseWriter, r *http.Request) {
	var req model.Substitution
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.dispatch(w, r, model.Command{Kind: model.CommandImpact, Substitution: &req})
}

// SetPreferences handles PUT /api/v1/matches/{matchID}/preferences
func (s *Service) SetPreferences(w http.ResponseWriter, r *http.Request) {
	var req model.Preferences
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.dispatch(w, r, model.Command{Kind: model.CommandSetPreferences, Preferences: &req})
}

// LoadMatch handles PUT /api/v1/matches/{matchID}
// Replaces the match with a client-held snapshot, creating it if needed.
func (s *Service) LoadMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	var snapshot model.MatchState
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	snapshot.MatchID = matchID

	s.mu.Lock()
	_, live := s.sessions[matchID]
	s.mu.Unlock()
	if live {
		s.dispatch(w, r, model.Command{Kind: model.CommandLoad, Snapshot: &snapshot})
		return
	}

	state, err := scoring.LoadMatch(&snapshot)
	if err != nil {
		writeCommandError(w, model.CommandLoad, err)
		return
	}
	if err := s.store.SaveMatch(r.Context(), model.NewMatchRecord(state, s.now())); err != nil {
		slog.Error("save loaded match failed", "id", matchID, "err", err)
		writeError(w, "failed to save match", http.StatusInternalServerError)
		return
	}
	eng := scoring.NewFrom(state)
	if sess := s.attach(matchID, eng); sess.engine != eng {
		// Another request brought the match live first. Load onto its engine.
		s.dispatch(w, r, model.Command{Kind: model.CommandLoad, Snapshot: &snapshot})
		return
	}
	metrics.CommandsTotal.WithLabelValues(string(model.CommandLoad)).Inc()
	slog.Info("match loaded", "id", matchID, "status", state.Status)

	if s.wsHub != nil {
		s.wsHub.Broadcast(newStateMessage(state, model.CommandLoad))
	}
	writeJSON(w, http.StatusOK, state)
}

// DeleteMatch handles DELETE /api/v1/matches/{matchID}
func (s *Service) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	s.detach(matchID)
	s.saver.Forget(matchID)

	if err := s.store.DeleteMatch(r.Context(), matchID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "match not found", http.StatusNotFound)
			return
		}
		slog.Error("delete match failed", "id", matchID, "err", err)
		writeError(w, "failed to delete match", http.StatusInternalServerError)
		return
	}

	slog.Info("match deleted", "id", matchID)
	w.WriteHeader(http.StatusNoContent)
}

// --- Sessions ---

// lookup resolves the {matchID} URL parameter to a live session, loading
// it from the store on first use. It writes the error response itself.
func (s *Service) lookup(w http.ResponseWriter, r *http.Request) (*session, bool) {
	matchID := chi.URLParam(r, "matchID")

	sess, err := s.session(r.Context(), matchID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, "match not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		slog.Error("load match failed", "id", matchID, "err", err)
		writeError(w, "failed to load match", http.StatusInternalServerError)
		return nil, false
	}
	return sess, true
}

func (s *Service) session(ctx context.Context, id string) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		return sess, nil
	}

	rec, err := s.store.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	state, err := scoring.LoadMatch(rec.State)
	if err != nil {
		return nil, fmt.Errorf("restore match %s: %w", id, err)
	}
	state.MatchID = id
	return s.attach(id, scoring.NewFrom(state)), nil
}

// attach registers eng as the live engine of id and subscribes the
// autosaver and the hub to it. If another request won the race to load
// id, that session is returned instead.
func (s *Service) attach(id string, eng *scoring.Engine) *session {
	sess := &session{engine: eng}
	sess.unsubscribe = append(sess.unsubscribe, eng.Subscribe(s.saver.Notify))
	if s.wsHub != nil {
		sess.unsubscribe = append(sess.unsubscribe, eng.Subscribe(s.wsHub.Notify))
	}

	s.mu.Lock()
	if existing, ok := s.sessions[id]; ok {
		s.mu.Unlock()
		sess.close()
		return existing
	}
	s.sessions[id] = sess
	s.mu.Unlock()

	metrics.ActiveMatches.Inc()
	return sess
}

// detach drops the live session of id after any in-flight command ends.
func (s *Service) detach(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return
	}

	sess.mu.Lock()
	sess.deleted = true
	sess.close()
	sess.mu.Unlock()
	metrics.ActiveMatches.Dec()
}

func (sess *session) close() {
	for _, unsubscribe := range sess.unsubscribe {
		unsubscribe()
	}
	sess.unsubscribe = nil
}

// --- Commands ---

// dispatch runs cmd on the match named by the URL and writes the new state.
func (s *Service) dispatch(w http.ResponseWriter, r *http.Request, cmd model.Command) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.deleted {
		writeError(w, "match not found", http.StatusNotFound)
		return
	}

	prev := sess.engine.State()
	start := time.Now()
	next, err := sess.engine.Dispatch(cmd)
	metrics.CommandLatency.WithLabelValues(string(cmd.Kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		writeCommandError(w, cmd.Kind, err)
		return
	}

	if next != prev {
		metrics.CommandsTotal.WithLabelValues(string(cmd.Kind)).Inc()
		s.recordLedger(context.WithoutCancel(r.Context()), next, cmd)

		slog.Info("command applied",
			"match", next.MatchID,
			"kind", cmd.Kind,
			"status", next.Status,
			"score", fmt.Sprintf("%d/%d", next.BattingTeam.Score, next.BattingTeam.Wickets),
			"overs", stats.OversNotation(next.BattingTeam.LegalBalls()),
		)
	}

	writeJSON(w, http.StatusOK, next)
}

// recordLedger appends the ledger row for a ball or undo command. A failed
// write is logged and counted but does not fail the command, which has
// already been applied.
func (s *Service) recordLedger(ctx context.Context, next *model.MatchState, cmd model.Command) {
	team := next.BattingTeam
	var entry *model.DeliveryEntry

	switch {
	case cmd.ProducesBall():
		if len(next.CurrentOver) == 0 {
			return
		}
		b := next.CurrentOver[len(next.CurrentOver)-1]
		entry = &model.DeliveryEntry{
			Kind:     model.LedgerBall,
			Over:     b.Over,
			Ball:     b.Ball,
			Outcome:  b.Outcome.String(),
			Runs:     b.Runs,
			IsWicket: b.IsWicket,
			Bowler:   b.Bowler,
			Batter:   b.Batter,
		}
		metrics.DeliveriesTotal.WithLabelValues(string(b.Outcome.Kind)).Inc()
		if b.IsWicket {
			metrics.WicketsTotal.WithLabelValues(string(lastDismissal(next))).Inc()
		}
	case cmd.Kind == model.CommandUndo:
		entry = &model.DeliveryEntry{
			Kind: model.LedgerUndo,
			Over: team.Overs,
			Ball: team.Balls,
		}
	default:
		return
	}

	entry.ID = uuid.New().String()
	entry.MatchID = next.MatchID
	entry.Innings = next.InningsNumber()
	entry.Score = team.Score
	entry.Wickets = team.Wickets
	entry.RecordedAt = s.now()

	if err := s.store.InsertDelivery(ctx, entry); err != nil {
		metrics.PersistenceFailures.WithLabelValues("ledger").Inc()
		slog.Error("ledger write failed", "match", next.MatchID, "kind", entry.Kind, "err", err)
	}
}

// lastDismissal returns how the most recent wicket fell.
func lastDismissal(s *model.MatchState) model.DismissalType {
	if len(s.FallOfWickets) == 0 {
		return ""
	}
	name := s.FallOfWickets[len(s.FallOfWickets)-1].BatterName
	for i := len(s.AllBatters) - 1; i >= 0; i-- {
		if b := s.AllBatters[i]; b.Name == name && b.IsOut {
			return b.Dismissal.Type
		}
	}
	return ""
}

// writeCommandError maps an engine error onto a response: rejections are
// 409 with their stable code, anything else is a 500.
func writeCommandError(w http.ResponseWriter, kind model.CommandKind, err error) {
	var ce *scoring.CommandError
	if errors.As(err, &ce) {
		metrics.CommandRejections.WithLabelValues(string(ce.Code)).Inc()
		slog.Info("command rejected", "kind", kind, "code", ce.Code, "err", err)
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: string(ce.Code)})
		return
	}
	slog.Error("command failed", "kind", kind, "err", err)
	writeError(w, "internal error", http.StatusInternalServerError)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
