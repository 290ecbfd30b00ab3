package poll

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"issuesync/internal/events"
	"issuesync/internal/models"
)

// Pipeline names one of the two polling jobs.
type Pipeline string

const (
	PipelineBacklog Pipeline = "backlog"
	PipelineRefresh Pipeline = "refresh"
)

// State is a pipeline's scheduling state.
type State string

const (
	StateIdle    State = "idle"
	StateArmed   State = "armed"
	StateTicking State = "ticking"
)

const (
	DefaultInitialDelay = 8 * time.Second
	DefaultInterval     = 5 * time.Minute
)

// TickFunc performs one unit of pipeline work.
type TickFunc func(ctx context.Context) error

// SchedulerConfig holds timing for both pipelines.
type SchedulerConfig struct {
	InitialDelay time.Duration
	Interval     time.Duration
}

// PipelineStatus is a point-in-time view of one pipeline.
type PipelineStatus struct {
	Pipeline   Pipeline           `json:"pipeline"`
	State      State              `json:"state"`
	Generation uint64             `json:"generation"`
	Ticks      uint64             `json:"ticks"`
	LastTick   *time.Time         `json:"last_tick,omitempty"`
	LastError  string             `json:"last_error,omitempty"`
	Context    models.WorkContext `json:"context"`
}

// Scheduler arms the backlog and refresh pipelines on trigger events. A new
// trigger supersedes the previous arming of each pipeline.
type Scheduler struct {
	cfg      SchedulerConfig
	contexts ContextSource
	logger   *slog.Logger

	pipelines []*pipeline
	wg        sync.WaitGroup
}

type pipeline struct {
	name    Pipeline
	tick    TickFunc
	armable func(models.WorkContext) bool

	// tickMu allows at most one tick of this pipeline at a time.
	tickMu sync.Mutex

	mu         sync.Mutex
	state      State
	generation uint64
	cancel     context.CancelFunc
	ticks      uint64
	lastTick   time.Time
	lastErr    string
	wc         models.WorkContext
}

// NewScheduler wires the two pipelines. backlog arms only in project
// contexts; refresh arms in any context.
func NewScheduler(cfg SchedulerConfig, contexts ContextSource, backlog, refresh TickFunc, logger *slog.Logger) *Scheduler {
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultInitialDelay
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:      cfg,
		contexts: contexts,
		logger:   logger.With("component", "poll.scheduler"),
		pipelines: []*pipeline{
			{name: PipelineBacklog, tick: backlog, armable: models.WorkContext.IsProject, state: StateIdle},
			{name: PipelineRefresh, tick: refresh, armable: func(wc models.WorkContext) bool { return !wc.IsZero() }, state: StateIdle},
		},
	}
}

// Run consumes trigger events until ctx is cancelled. The active context at
// start is treated as an initial trigger.
func (s *Scheduler) Run(ctx context.Context, triggers <-chan events.Event) error {
	defer s.wg.Wait()
	defer s.disarmAll()

	s.handle(ctx, events.Event{Kind: events.ManualTrigger})
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-triggers:
			if !ok {
				<-ctx.Done()
				return ctx.Err()
			}
			s.handle(ctx, ev)
		}
	}
}

// Status reports every pipeline's state.
func (s *Scheduler) Status() []PipelineStatus {
	out := make([]PipelineStatus, 0, len(s.pipelines))
	for _, p := range s.pipelines {
		p.mu.Lock()
		st := PipelineStatus{
			Pipeline:   p.name,
			State:      p.state,
			Generation: p.generation,
			Ticks:      p.ticks,
			LastError:  p.lastErr,
			Context:    p.wc,
		}
		if !p.lastTick.IsZero() {
			last := p.lastTick
			st.LastTick = &last
		}
		p.mu.Unlock()
		out = append(out, st)
	}
	return out
}

func (s *Scheduler) handle(ctx context.Context, ev events.Event) {
	wc := ev.Context
	if ev.Kind != events.ContextChanged || wc.IsZero() {
		resolved, err := s.contexts.ActiveContext(ctx)
		if err != nil {
			// Re-arm on the last known context so the trigger still supersedes.
			wc = s.lastContext()
			s.logger.Warn("resolve active context", "event", ev.Kind, "fallback", wc.Type, "error", err)
		} else {
			wc = resolved
		}
	}

	for _, p := range s.pipelines {
		s.rearm(ctx, p, wc)
	}
	s.logger.Debug("trigger handled", "event", ev.Kind, "context", wc.Type, "context_id", wc.ID)
}

// rearm cancels the pipeline's current arming and starts a new generation
// when the context allows it.
func (s *Scheduler) rearm(ctx context.Context, p *pipeline, wc models.WorkContext) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.generation++
	p.wc = wc
	armGeneration.WithLabelValues(string(p.name)).Set(float64(p.generation))

	if p.tick == nil || !p.armable(wc) {
		p.state = StateIdle
		return
	}

	armCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.state = StateArmed
	gen := p.generation

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx, armCtx, p, gen)
	}()
}

func (s *Scheduler) loop(runCtx, armCtx context.Context, p *pipeline, gen uint64) {
	timer := time.NewTimer(s.cfg.InitialDelay)
	defer timer.Stop()

	select {
	case <-armCtx.Done():
		return
	case <-timer.C:
	}
	s.runTick(runCtx, armCtx, p, gen)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-armCtx.Done():
			return
		case <-ticker.C:
			s.runTick(runCtx, armCtx, p, gen)
		}
	}
}

// runTick executes the tick under the run context so that a superseded
// arming finishes the tick it already started.
func (s *Scheduler) runTick(runCtx, armCtx context.Context, p *pipeline, gen uint64) {
	p.tickMu.Lock()
	defer p.tickMu.Unlock()

	if armCtx.Err() != nil {
		return
	}
	p.setState(gen, StateTicking)

	err := p.tick(runCtx)
	ticksTotal.WithLabelValues(string(p.name)).Inc()

	p.mu.Lock()
	p.ticks++
	p.lastTick = time.Now()
	p.lastErr = ""
	if err != nil {
		p.lastErr = err.Error()
	}
	if p.generation == gen && p.state == StateTicking {
		p.state = StateArmed
	}
	p.mu.Unlock()

	if err != nil {
		level := slog.LevelWarn
		if IsFetchError(err) {
			level = slog.LevelInfo
		}
		s.logger.Log(runCtx, level, "tick failed", "pipeline", p.name, "generation", gen, "error", err)
	}
}

func (s *Scheduler) lastContext() models.WorkContext {
	p := s.pipelines[0]
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wc
}

func (p *pipeline) setState(gen uint64, state State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation == gen {
		p.state = state
	}
}

func (s *Scheduler) disarmAll() {
	for _, p := range s.pipelines {
		p.mu.Lock()
		if p.cancel != nil {
			p.cancel()
			p.cancel = nil
		}
		p.state = StateIdle
		p.mu.Unlock()
	}
}

// BacklogTick adapts an Importer to a TickFunc.
func BacklogTick(im *Importer) TickFunc {
	return func(ctx context.Context) error {
		_, err := im.Tick(ctx)
		return err
	}
}

// RefreshTick adapts a Refresher to a TickFunc.
func RefreshTick(r *Refresher) TickFunc {
	return func(ctx context.Context) error {
		_, err := r.Tick(ctx)
		return err
	}
}
