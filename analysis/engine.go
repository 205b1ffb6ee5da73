package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/casualjim/chartwise/events"
	"github.com/casualjim/chartwise/pkg/slogx"
	"github.com/casualjim/chartwise/prompt"
	"github.com/casualjim/chartwise/provider"
	"github.com/fogfish/opts"
	"github.com/go-openapi/strfmt"
)

// DefaultHistoryLimit is the number of records retained when no limit is configured.
const DefaultHistoryLimit = 100

// ProviderLookup resolves providers by id. *providers.Registry satisfies it.
type ProviderLookup interface {
	Get(id string) (provider.Provider, bool)
}

// CategoryLookup resolves category configs. *prompt.Manager satisfies it.
type CategoryLookup interface {
	CategoryConfig(templateID, categoryKey string) (prompt.CategoryConfig, bool)
	CategoryKeys(templateID string) []string
	HasTemplate(id string) bool
}

// Engine runs analyses against providers and keeps a bounded history of
// their records. It is safe for concurrent use.
type Engine struct {
	providers ProviderLookup
	prompts   CategoryLookup

	historyLimit int
	callTimeout  time.Duration
	hooks        []events.Hook
	clock        func() time.Time

	hook    events.Hook
	history *history
	seq     atomic.Uint64
}

// WithHistoryLimit caps the number of retained records.
func WithHistoryLimit(limit int) opts.Option[Engine] {
	return opts.Type[Engine](func(e *Engine) error {
		if limit <= 0 {
			return fmt.Errorf("history limit must be positive, got %d", limit)
		}
		e.historyLimit = limit
		return nil
	})
}

// WithCallTimeout bounds every provider call. Zero disables the bound.
func WithCallTimeout(d time.Duration) opts.Option[Engine] {
	return opts.Type[Engine](func(e *Engine) error {
		if d < 0 {
			return fmt.Errorf("call timeout must not be negative, got %s", d)
		}
		e.callTimeout = d
		return nil
	})
}

// WithHook adds a receiver for lifecycle events. It can be given more than once.
func WithHook(hook events.Hook) opts.Option[Engine] {
	return opts.Type[Engine](func(e *Engine) error {
		if hook != nil {
			e.hooks = append(e.hooks, hook)
		}
		return nil
	})
}

// WithClock replaces the time source used for ids, timestamps and durations.
func WithClock(clock func() time.Time) opts.Option[Engine] {
	return opts.Type[Engine](func(e *Engine) error {
		if clock == nil {
			return errors.New("clock is required")
		}
		e.clock = clock
		return nil
	})
}

// NewEngine creates an engine. Invalid options are logged and skipped.
func NewEngine(providers ProviderLookup, prompts CategoryLookup, options ...opts.Option[Engine]) *Engine {
	e := &Engine{
		providers:    providers,
		prompts:      prompts,
		historyLimit: DefaultHistoryLimit,
		clock:        time.Now,
	}
	for _, opt := range options {
		if err := opts.Apply(e, []opts.Option[Engine]{opt}); err != nil {
			slog.Warn("ignoring invalid engine option", slogx.Error(err))
		}
	}
	e.hook = events.Multi(e.hooks...)
	e.history = newHistory(e.historyLimit)
	return e
}

// RunAnalysis runs one category of a template against a provider. It never
// returns an error: every failure is reported in the Result and, once the
// run has started, in its Record.
func (e *Engine) RunAnalysis(ctx context.Context, cfg Config) Result {
	id := e.nextID(cfg.ProviderID, cfg.TemplateID, cfg.CategoryKey)
	run := events.Run{
		AnalysisID:  id,
		ProviderID:  cfg.ProviderID,
		TemplateID:  cfg.TemplateID,
		CategoryKey: cfg.CategoryKey,
	}

	p, category, err := e.resolve(cfg)
	if err != nil {
		slog.WarnContext(ctx, "analysis rejected", slogx.Run(id, cfg.ProviderID, cfg.TemplateID, cfg.CategoryKey), slogx.Error(err))
		e.hook.OnFailed(ctx, events.Failed{Run: run, Error: err.Error(), Timestamp: e.now()})
		return Result{Error: err.Error(), AnalysisID: id}
	}

	start := e.now()
	e.history.insert(Record{
		ID:          id,
		ProviderID:  cfg.ProviderID,
		TemplateID:  cfg.TemplateID,
		CategoryKey: cfg.CategoryKey,
		StartTime:   start,
		Status:      StatusRunning,
	})
	e.hook.OnStarted(ctx, events.Started{Run: run, Timestamp: start})

	resp, err := e.call(ctx, p, provider.CompletionParams{
		SystemPrompt: category.SystemPrompt,
		UserPrompt:   cfg.UserPrompt,
		Schema:       category.OutputSchema,
		Options:      cfg.Options,
	})
	end := e.now()
	elapsed := time.Time(end).Sub(time.Time(start))

	if err != nil {
		msg := err.Error()
		e.history.finish(id, func(r *Record) {
			r.Status = StatusFailed
			r.EndTime = &end
			r.Error = msg
		})
		slog.WarnContext(ctx, "analysis failed",
			slogx.Run(id, cfg.ProviderID, cfg.TemplateID, cfg.CategoryKey),
			slogx.Duration(elapsed),
			slogx.Error(err),
		)
		e.hook.OnFailed(ctx, events.Failed{Run: run, Error: msg, Timestamp: end})
		return Result{Error: msg, AnalysisID: id}
	}

	e.history.finish(id, func(r *Record) {
		r.Status = StatusCompleted
		r.EndTime = &end
	})
	slog.InfoContext(ctx, "analysis completed",
		slogx.Run(id, cfg.ProviderID, cfg.TemplateID, cfg.CategoryKey),
		slogx.Duration(elapsed),
		slog.String("model", resp.Model),
	)
	e.hook.OnCompleted(ctx, events.Completed{
		Run:        run,
		Model:      resp.Model,
		DurationMS: resp.DurationMS,
		Usage:      resp.Usage,
		KeyUsed:    resp.KeyUsed,
		Timestamp:  end,
	})
	return Result{Success: true, Data: resp, AnalysisID: id}
}

// RunBatchAnalysis runs every category of the template concurrently and
// returns one item per category in template order. A failing category does
// not affect the others. The only error is ErrTemplateNotFound.
func (e *Engine) RunBatchAnalysis(ctx context.Context, cfg BatchConfig) ([]BatchItem, error) {
	if !e.prompts.HasTemplate(cfg.TemplateID) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, cfg.TemplateID)
	}
	keys := e.prompts.CategoryKeys(cfg.TemplateID)

	items := make([]BatchItem, len(keys))
	var wg sync.WaitGroup
	wg.Add(len(keys))
	for i, key := range keys {
		go func(i int, key string) {
			defer wg.Done()
			items[i] = BatchItem{
				CategoryKey: key,
				Result: e.RunAnalysis(ctx, Config{
					ProviderID:  cfg.ProviderID,
					TemplateID:  cfg.TemplateID,
					CategoryKey: key,
					UserPrompt:  cfg.UserPrompt,
					Options:     cfg.Options,
				}),
			}
		}(i, key)
	}
	wg.Wait()
	return items, nil
}

// AnalysisStatus returns the record of a retained run.
func (e *Engine) AnalysisStatus(id string) (Record, bool) {
	return e.history.get(id)
}

// RunningAnalyses returns the records still running, oldest first.
func (e *Engine) RunningAnalyses() []Record {
	return e.history.running()
}

// Statistics summarizes the records currently held in the history.
func (e *Engine) Statistics() Statistics {
	return e.history.statistics()
}

// ClearHistory drops every record, including those of runs still in flight.
func (e *Engine) ClearHistory() {
	e.history.clear()
}

func (e *Engine) resolve(cfg Config) (provider.Provider, prompt.CategoryConfig, error) {
	p, ok := e.providers.Get(cfg.ProviderID)
	if !ok || p == nil {
		return nil, prompt.CategoryConfig{}, fmt.Errorf("%w: %q", ErrProviderNotFound, cfg.ProviderID)
	}
	category, ok := e.prompts.CategoryConfig(cfg.TemplateID, cfg.CategoryKey)
	if !ok {
		return nil, prompt.CategoryConfig{}, fmt.Errorf("%w: %q in template %q", ErrCategoryNotFound, cfg.CategoryKey, cfg.TemplateID)
	}
	if v := prompt.Validate(category); !v.Valid {
		return nil, prompt.CategoryConfig{}, &InvalidCategoryConfigError{
			TemplateID:  cfg.TemplateID,
			CategoryKey: cfg.CategoryKey,
			Violations:  v.Errors,
		}
	}
	return p, category, nil
}

// call invokes the provider with the configured timeout and turns panics and
// empty answers into errors.
func (e *Engine) call(ctx context.Context, p provider.Provider, params provider.CompletionParams) (resp *provider.Response, err error) {
	if e.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.callTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = fmt.Errorf("%s provider panicked: %v", p.DisplayName(), r)
		}
	}()

	resp, err = p.CallAPI(ctx, params)
	switch {
	case errors.Is(err, context.DeadlineExceeded) && e.callTimeout > 0:
		return nil, fmt.Errorf("%s analysis timed out after %s: %w", p.DisplayName(), e.callTimeout, err)
	case errors.Is(err, context.Canceled):
		return nil, fmt.Errorf("%s analysis canceled: %w", p.DisplayName(), err)
	case err != nil:
		return nil, err
	case resp == nil:
		return nil, fmt.Errorf("%w: %s returned no response", provider.ErrEmptyResponse, p.DisplayName())
	}
	return resp, nil
}

// nextID derives the analysis id from the run identifiers and the start
// millisecond. The counter suffix keeps ids unique within the process.
func (e *Engine) nextID(providerID, templateID, categoryKey string) string {
	return fmt.Sprintf("%s-%s-%s-%d-%d",
		providerID, templateID, categoryKey, e.clock().UnixMilli(), e.seq.Add(1))
}

func (e *Engine) now() strfmt.DateTime {
	return strfmt.DateTime(e.clock().UTC())
}
