package chartwise

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/casualjim/chartwise/analysis"
	"github.com/casualjim/chartwise/events"
	"github.com/casualjim/chartwise/internal/broker"
	"github.com/casualjim/chartwise/pkg/slogx"
	"github.com/casualjim/chartwise/prompt"
	"github.com/casualjim/chartwise/prompt/templates"
	"github.com/casualjim/chartwise/provider"
	"github.com/casualjim/chartwise/providers"
	"github.com/casualjim/chartwise/secrets"
	"github.com/fogfish/opts"
	"github.com/nats-io/nats.go"
)

// DefaultEventsSubject is the topic lifecycle events are published on.
const DefaultEventsSubject = "chartwise.analysis"

// App owns the provider registry, the template catalog and the analysis engine.
type App struct {
	secrets         provider.SecretStore
	providerOptions []providers.BuiltInOption
	engineOptions   []opts.Option[analysis.Engine]
	templateFiles   []string
	skipBuiltIns    bool
	extraProviders  []provider.Provider
	natsConn        *nats.Conn
	eventsSubject   string

	providers *providers.Registry
	prompts   *prompt.Manager
	engine    *analysis.Engine
	topic     broker.Topic
}

// WithSecrets sets the store API keys are read from. The default is the
// environment plus a .env file in the working directory.
func WithSecrets(store provider.SecretStore) opts.Option[App] {
	return opts.Type[App](func(a *App) error {
		if store == nil {
			return fmt.Errorf("secret store is required")
		}
		a.secrets = store
		return nil
	})
}

// WithProviderOptions configures the transport of the built-in providers.
func WithProviderOptions(options ...providers.BuiltInOption) opts.Option[App] {
	return opts.Type[App](func(a *App) error {
		a.providerOptions = append(a.providerOptions, options...)
		return nil
	})
}

// WithProviders registers additional providers after the built-in ones. A
// provider with a built-in id replaces it.
func WithProviders(p ...provider.Provider) opts.Option[App] {
	return opts.Type[App](func(a *App) error {
		a.extraProviders = append(a.extraProviders, p...)
		return nil
	})
}

// WithoutBuiltIns skips registering the bundled providers and templates.
func WithoutBuiltIns() opts.Option[App] {
	return opts.Type[App](func(a *App) error {
		a.skipBuiltIns = true
		return nil
	})
}

// WithEngineOptions forwards options to the analysis engine.
func WithEngineOptions(options ...opts.Option[analysis.Engine]) opts.Option[App] {
	return opts.Type[App](func(a *App) error {
		a.engineOptions = append(a.engineOptions, options...)
		return nil
	})
}

// WithTemplateFiles loads extra templates from JSON or YAML files.
func WithTemplateFiles(paths ...string) opts.Option[App] {
	return opts.Type[App](func(a *App) error {
		a.templateFiles = append(a.templateFiles, paths...)
		return nil
	})
}

// WithNATS publishes lifecycle events on a NATS subject instead of in-process.
func WithNATS(conn *nats.Conn) opts.Option[App] {
	return opts.Type[App](func(a *App) error {
		if conn == nil {
			return fmt.Errorf("nats connection is required")
		}
		a.natsConn = conn
		return nil
	})
}

var WithEventsSubject = opts.ForName[App, string]("eventsSubject")

// New builds the registries, loads templates and creates the engine.
func New(options ...opts.Option[App]) (*App, error) {
	a := &App{eventsSubject: DefaultEventsSubject}
	if err := opts.Apply(a, options); err != nil {
		return nil, err
	}
	if a.secrets == nil {
		a.secrets = secrets.Env(".env")
	}

	a.providers = providers.NewRegistry()
	a.prompts = prompt.NewManager()
	if !a.skipBuiltIns {
		if err := a.providers.RegisterBuiltIns(a.secrets, a.providerOptions...); err != nil {
			return nil, err
		}
		if err := templates.RegisterBuiltIns(a.prompts); err != nil {
			return nil, err
		}
	}
	for _, p := range a.extraProviders {
		a.providers.Register(p)
	}
	for _, path := range a.templateFiles {
		t, err := prompt.LoadTemplateFile(path)
		if err != nil {
			return nil, err
		}
		if err := a.prompts.RegisterTemplate(t); err != nil {
			return nil, err
		}
		slog.Info("loaded template file", slog.String("path", path), slogx.Template(t.ID))
	}

	var b broker.Broker
	if a.natsConn != nil {
		b = broker.NATS(a.natsConn)
	} else {
		b = broker.Local()
	}
	a.topic = b.Topic(context.Background(), a.eventsSubject)

	engineOptions := append([]opts.Option[analysis.Engine]{analysis.WithHook(broker.Publisher(a.topic))}, a.engineOptions...)
	a.engine = analysis.NewEngine(a.providers, a.prompts, engineOptions...)
	return a, nil
}

// GetProvider returns the provider registered under id.
func (a *App) GetProvider(id string) (provider.Provider, bool) {
	return a.providers.Get(id)
}

// CategoryConfig returns the prompt and output schema of a template category.
func (a *App) CategoryConfig(templateID, categoryKey string) (prompt.CategoryConfig, bool) {
	return a.prompts.CategoryConfig(templateID, categoryKey)
}

// RunAnalysis runs one category of a template against one provider.
//
// Parameters:
//   - ctx: bounds the provider call; cancellation fails the run.
//   - cfg: the provider, template, category and patient data to analyze.
//
// Returns:
//   - analysis.Result: the envelope of the run. Failures are reported in the
//     envelope, never as a panic or a separate error.
func (a *App) RunAnalysis(ctx context.Context, cfg analysis.Config) analysis.Result {
	return a.engine.RunAnalysis(ctx, cfg)
}

// RunBatchAnalysis runs every category of a template concurrently.
//
// Parameters:
//   - ctx: bounds every provider call of the batch.
//   - cfg: the provider, template and patient data to analyze.
//
// Returns:
//   - []analysis.BatchItem: one item per category in template order.
//   - error: analysis.ErrTemplateNotFound when the template is unknown.
func (a *App) RunBatchAnalysis(ctx context.Context, cfg analysis.BatchConfig) ([]analysis.BatchItem, error) {
	return a.engine.RunBatchAnalysis(ctx, cfg)
}

// Subscribe forwards lifecycle events to hook until ctx ends or the returned
// function is called.
func (a *App) Subscribe(ctx context.Context, hook events.Hook) (func(), error) {
	sub, err := a.topic.Subscribe(ctx, hook)
	if err != nil {
		return nil, err
	}
	return sub.Unsubscribe, nil
}

// Providers returns the provider registry.
func (a *App) Providers() *providers.Registry { return a.providers }

// Prompts returns the template catalogue.
func (a *App) Prompts() *prompt.Manager { return a.prompts }

// Engine returns the analysis engine.
func (a *App) Engine() *analysis.Engine { return a.engine }
