package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/ChamsBouzaiene/pagechat/internal/chat"
	"github.com/ChamsBouzaiene/pagechat/internal/config"
	"github.com/ChamsBouzaiene/pagechat/internal/engine"
	"github.com/ChamsBouzaiene/pagechat/internal/engine/protocol"
	"github.com/ChamsBouzaiene/pagechat/internal/extract"
	"github.com/ChamsBouzaiene/pagechat/internal/kv"
	"github.com/ChamsBouzaiene/pagechat/internal/page"
	"github.com/ChamsBouzaiene/pagechat/internal/providers"
	"github.com/ChamsBouzaiene/pagechat/internal/session"
)

// pageFlags selects where page content comes from.
type pageFlags struct {
	url     string
	file    string
	browser bool
}

func (p *pageFlags) register(cmd interface {
	StringVar(*string, string, string, string)
	BoolVar(*bool, string, bool, string)
}) {
	cmd.StringVar(&p.url, "url", "", "URL of the page to chat about")
	cmd.StringVar(&p.file, "file", "", "Local HTML file to chat about")
	cmd.BoolVar(&p.browser, "browser", false, "Render the page in headless Chrome before extracting")
}

type runtimeEnv struct {
	ConfigManager *config.Manager
	Config        *config.Config
	Store         kv.Store
	Sessions      *session.Manager
	Credentials   *session.Credentials
	Dispatcher    *engine.Dispatcher
	Logger        *log.Logger

	browser *page.Browser
	tabs    []*page.BrowserLoader
	ports   []*protocol.Port

	extractors  []*extract.DOMExtractor
	controllers []*chat.Controller
}

func (r *runtimeEnv) Close() {
	for _, p := range r.ports {
		p.Close()
		p.Wait()
	}
	for _, t := range r.tabs {
		if err := t.Close(); err != nil {
			log.Printf("⚠️  Failed to close tab: %v", err)
		}
	}
	if r.browser != nil {
		if err := r.browser.Close(); err != nil {
			log.Printf("⚠️  Failed to close browser: %v", err)
		}
	}
	if r.Store != nil {
		if err := r.Store.Close(); err != nil {
			log.Printf("⚠️  Failed to close store: %v", err)
		}
	}
}

func prepareRuntimeEnv(ctx context.Context) (*runtimeEnv, error) {
	logger := componentLogger()

	cfgManager, err := config.NewManager()
	if err != nil {
		return nil, err
	}
	cfg, err := cfgManager.LoadWithEnv()
	if err != nil {
		log.Printf("⚠️  Failed to load user config: %v", err)
		cfg = &config.Config{}
	} else if verbose {
		log.Printf("User config loaded from: %s", cfgManager.GetConfigPath())
	}

	store, err := openStore(cfgManager, cfg)
	if err != nil {
		return nil, err
	}

	creds := session.NewCredentials(store)
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && !creds.Saved(ctx) {
		if err := creds.Set(ctx, key); err != nil {
			log.Printf("⚠️  Failed to seed API key from environment: %v", err)
		} else {
			log.Println("🔑 API key seeded from OPENAI_API_KEY")
		}
	}

	factory, err := providers.NewClientFactory(cfg.Provider, cfg.BaseURL, nil)
	if err != nil {
		store.Close()
		return nil, err
	}

	hooks := engine.Hooks{&credentialNotice{}}
	if verbose {
		hooks = append(hooks, engine.LoggerHook{L: log.Default()})
	}

	return &runtimeEnv{
		ConfigManager: cfgManager,
		Config:        cfg,
		Store:         store,
		Sessions:      session.NewManager(store, session.WithLogger(logger)),
		Credentials:   creds,
		Dispatcher:    engine.NewDispatcher(creds, factory, cfg.Dispatch(), hooks),
		Logger:        logger,
	}, nil
}

func openStore(m *config.Manager, cfg *config.Config) (kv.Store, error) {
	if ephemeral {
		return kv.NewMemoryStore(), nil
	}
	path := dbPath
	if path == "" {
		path = cfg.DBPath
	}
	if path == "" {
		path = m.DefaultDBPath()
	}
	store, err := kv.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", path, err)
	}
	return store, nil
}

// credentialNotice points the user at `key set` the first time a dispatch
// is skipped for lack of a key.
type credentialNotice struct {
	engine.NopHook
	once sync.Once
}

func (n *credentialNotice) OnMissingCredential(context.Context) {
	n.once.Do(func() {
		log.Println("🔑 No API key saved. Run `pagechat key set` or export OPENAI_API_KEY.")
	})
}

// loader builds the page loader selected by flags. A nil loader means no page.
func (r *runtimeEnv) loader(p pageFlags) page.Loader {
	switch {
	case p.file != "":
		return page.FileLoader{Path: p.file}
	case p.url == "":
		return nil
	case p.browser || r.Config.BrowserURL != "":
		if r.browser == nil {
			r.browser = page.NewBrowser(r.Config.BrowserURL, r.Logger)
		}
		tab := page.NewBrowserLoader(r.browser, p.url)
		r.tabs = append(r.tabs, tab)
		return tab
	default:
		return page.NewHTTPLoader(p.url,
			page.WithUserAgent(r.Config.UserAgent),
			page.WithLogger(r.Logger),
		)
	}
}

func (r *runtimeEnv) extractor(l page.Loader) extract.Extractor {
	x := extract.NewDOMExtractor(l)
	x.Settle = r.Config.Settle()
	x.Logger = r.Logger
	r.extractors = append(r.extractors, x)
	return x
}

// applyConfig pushes a reloaded config into the running components:
// generation settings, settle wait and history budget. Page source,
// provider and storage changes need a restart.
func (r *runtimeEnv) applyConfig(cfg *config.Config) {
	r.Dispatcher.SetConfig(cfg.Dispatch())
	for _, x := range r.extractors {
		x.SetSettle(cfg.Settle())
	}
	for _, c := range r.controllers {
		c.SetBudget(cfg.ContextBudget)
	}
}

// router answers both message types. Without a page, SCRAPE_REQUEST is unknown.
func (r *runtimeEnv) router(l page.Loader) *protocol.Router {
	router := protocol.NewRouter().Register(protocol.TypeScrapedContent, r.Dispatcher.Handler())
	if l != nil {
		router.Register(protocol.TypeScrapeRequest, extract.Handler(r.extractor(l)))
	}
	return router
}

// controller wires a chat controller with a page port and a background port.
func (r *runtimeEnv) controller(ctx context.Context, l page.Loader) *chat.Controller {
	cfg := chat.Config{
		Sessions:    r.Sessions,
		Credentials: r.Credentials,
		Background:  r.startPort(ctx, r.Dispatcher.Handler()),
		Budget:      r.Config.ContextBudget,
		Logger:      r.Logger,
	}
	if l != nil {
		cfg.Page = r.startPort(ctx, extract.Handler(r.extractor(l)))
	}
	c := chat.NewController(cfg)
	r.controllers = append(r.controllers, c)
	return c
}

func (r *runtimeEnv) startPort(ctx context.Context, h protocol.Handler) *protocol.Port {
	p := protocol.NewPort(h)
	p.Start(ctx)
	r.ports = append(r.ports, p)
	return p
}
