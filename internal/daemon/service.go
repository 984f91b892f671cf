// Package daemon provides the long-running background budget monitor service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/cbudget/internal/model"
	"github.com/theirongolddev/cbudget/internal/notify"
	"github.com/theirongolddev/cbudget/internal/pipeline"
	"github.com/theirongolddev/cbudget/internal/store"
)

// Event types.
const (
	EventSnapshot          = "snapshot"
	EventLedgerDelta       = "ledger_delta"
	EventObjectiveViolated = "objective_violated"
)

// Config controls the daemon runtime behavior.
type Config struct {
	DataDir      string
	Payday       int
	TopN         int
	UseCache     bool
	Interval     time.Duration
	Addr         string
	EventsBuffer int

	// Rename maps categories to their configured names. Nil keeps them as-is.
	Rename func(string) string
	// Publisher receives newly violated objectives. Nil disables publishing.
	Publisher notify.Publisher
	// Now defaults to time.Now.
	Now func() time.Time
}

// Snapshot is a compact budget state for status/event payloads.
type Snapshot struct {
	At           time.Time `json:"at"`
	Period       string    `json:"period"`
	Transactions int       `json:"transactions"`
	Income       float64   `json:"income"`
	Expenses     float64   `json:"expenses"`
	Savings      float64   `json:"savings"`
	Balance      float64   `json:"balance"`
	SavingsRate  float64   `json:"savings_rate"`
	HealthScore  int       `json:"health_score"`
	Violations   int       `json:"violations"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Transactions int     `json:"transactions"`
	Income       float64 `json:"income"`
	Expenses     float64 `json:"expenses"`
	Savings      float64 `json:"savings"`
	Balance      float64 `json:"balance"`
	HealthScore  int     `json:"health_score"`
}

func (d Delta) isZero() bool {
	return d.Transactions == 0 &&
		d.Income == 0 &&
		d.Expenses == 0 &&
		d.Savings == 0 &&
		d.Balance == 0 &&
		d.HealthScore == 0
}

// Event is emitted whenever the budget snapshot updates or an objective
// becomes violated.
type Event struct {
	ID        int64                  `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Snapshot  Snapshot               `json:"snapshot"`
	Delta     Delta                  `json:"delta"`
	Objective *model.ObjectiveStatus `json:"objective,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	DataDir         string    `json:"data_dir"`
	Payday          int       `json:"payday,omitempty"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config

	mu           sync.RWMutex
	startedAt    time.Time
	lastPollAt   time.Time
	pollCount    int64
	lastError    string
	hasSnapshot  bool
	snapshot     Snapshot
	dashboard    *model.Dashboard
	violated     map[string]bool
	nextEventID  int64
	events       []Event
	nextSubID    int
	subs         map[int]chan Event
	publishQueue []*notify.ObjectiveViolation
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 15 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.TopN < 1 {
		cfg.TopN = pipeline.DefaultTopN
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		cfg:       cfg,
		startedAt: cfg.Now(),
		violated:  make(map[string]bool),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/dashboard", s.handleDashboard)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("daemon http server: %w", err)
		}
		return nil
	})
	log.Info().Str("addr", s.cfg.Addr).Dur("interval", s.cfg.Interval).Msg("daemon listening")

	g.Go(func() error {
		// Seed initial snapshot so status is useful immediately.
		s.pollOnce(ctx)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case <-ticker.C:
				s.pollOnce(ctx)
			}
		}
	})

	return g.Wait()
}

func (s *Service) pollOnce(ctx context.Context) {
	start := s.cfg.Now()
	ledger, err := s.loadLedger(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = start
		s.pollCount++
		s.mu.Unlock()
		log.Error().Err(err).Msg("daemon poll failed")
		return
	}
	if s.cfg.Rename != nil {
		ledger = pipeline.RenameCategories(ledger, s.cfg.Rename)
	}

	now := s.cfg.Now()
	d := pipeline.BuildDashboard(ledger, pipeline.DashboardParams{
		Period: pipeline.CurrentPeriod(now, s.cfg.Payday),
		Payday: s.cfg.Payday,
		Now:    now,
		TopN:   s.cfg.TopN,
	})
	snap := snapshotFromDashboard(d, now)

	var pending []Event

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.dashboard = &d
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		pending = append(pending, Event{Type: EventSnapshot, Snapshot: snap})
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		pending = append(pending, Event{Type: EventLedgerDelta, Snapshot: snap, Delta: delta})
	}

	for _, st := range s.newlyViolated(d) {
		pending = append(pending, Event{Type: EventObjectiveViolated, Snapshot: snap, Objective: &st})
		s.publishQueue = append(s.publishQueue, notify.NewObjectiveViolation(d.Period, st, now))
	}

	for i := range pending {
		s.nextEventID++
		pending[i].ID = s.nextEventID
		pending[i].Timestamp = now
	}
	queue := s.publishQueue
	s.publishQueue = nil
	s.mu.Unlock()

	for _, ev := range pending {
		s.publishEvent(ev)
	}
	s.flushNotifications(ctx, queue)

	log.Debug().
		Str("period", snap.Period).
		Int("transactions", snap.Transactions).
		Int("events", len(pending)).
		Dur("took", time.Since(start)).
		Msg("daemon poll")
}

// newlyViolated returns the violated objectives of d that were not violated
// on the previous poll for the same period. Caller must hold s.mu.
func (s *Service) newlyViolated(d model.Dashboard) []model.ObjectiveStatus {
	current := make(map[string]bool)
	var fresh []model.ObjectiveStatus
	for _, st := range d.Objectives {
		if !st.Violated {
			continue
		}
		key := violationKey(d.Period, st.Objective)
		current[key] = true
		if !s.violated[key] {
			fresh = append(fresh, st)
		}
	}
	s.violated = current
	return fresh
}

func violationKey(p model.Period, o model.Objective) string {
	id := o.ID
	if id == "" {
		id = string(o.Type) + "/" + o.Category
	}
	return p.String() + "|" + id
}

// flushNotifications publishes queued violations. Failed messages are put
// back in the queue for the next poll.
func (s *Service) flushNotifications(ctx context.Context, queue []*notify.ObjectiveViolation) {
	if s.cfg.Publisher == nil || len(queue) == 0 {
		return
	}
	var failed []*notify.ObjectiveViolation
	for _, msg := range queue {
		if err := s.cfg.Publisher.PublishViolation(ctx, msg); err != nil {
			log.Warn().Err(err).Str("category", msg.Category).Msg("publishing objective violation")
			failed = append(failed, msg)
		}
	}
	if len(failed) > 0 {
		s.mu.Lock()
		s.publishQueue = append(failed, s.publishQueue...)
		s.mu.Unlock()
	}
}

func (s *Service) loadLedger(ctx context.Context) (model.Ledger, error) {
	if s.cfg.UseCache {
		cache, err := store.Open(pipeline.CachePath())
		if err == nil {
			defer func() { _ = cache.Close() }()
			cr, loadErr := pipeline.LoadWithCache(ctx, s.cfg.DataDir, cache, nil)
			if loadErr == nil {
				return cr.Ledger, nil
			}
			log.Warn().Err(loadErr).Msg("cached load failed, reading snapshots directly")
		}
	}

	result, err := pipeline.Load(ctx, s.cfg.DataDir, nil)
	if err != nil {
		return model.Ledger{}, err
	}
	return result.Ledger, nil
}

func snapshotFromDashboard(d model.Dashboard, at time.Time) Snapshot {
	violations := 0
	for _, st := range d.Objectives {
		if st.Violated {
			violations++
		}
	}
	return Snapshot{
		At:           at,
		Period:       d.Period.String(),
		Transactions: d.Totals.Count,
		Income:       d.Totals.Income,
		Expenses:     d.Totals.Expenses(),
		Savings:      d.Totals.Savings,
		Balance:      d.Totals.Balance,
		SavingsRate:  d.Totals.SavingsRate,
		HealthScore:  d.Health.Score,
		Violations:   violations,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Transactions: curr.Transactions - prev.Transactions,
		Income:       curr.Income - prev.Income,
		Expenses:     curr.Expenses - prev.Expenses,
		Savings:      curr.Savings - prev.Savings,
		Balance:      curr.Balance - prev.Balance,
		HealthScore:  curr.HealthScore - prev.HealthScore,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DataDir:         s.cfg.DataDir,
		Payday:          s.cfg.Payday,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	d := s.dashboard
	s.mu.RUnlock()

	if d == nil {
		http.Error(w, "no dashboard yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(d)
}

// handleEvents returns buffered events, optionally only those after ?since=<id>.
func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	var since int64
	if v := r.URL.Query().Get("since"); v != "" {
		if _, err := fmt.Sscan(v, &since); err != nil {
			http.Error(w, "invalid since", http.StatusBadRequest)
			return
		}
	}

	s.mu.RLock()
	i := sort.Search(len(s.events), func(i int) bool { return s.events[i].ID > since })
	events := make([]Event, len(s.events)-i)
	copy(events, s.events[i:])
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: s.cfg.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
