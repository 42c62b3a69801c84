package di

import (
	"fmt"
	"time"

	"browser-dispatch/internal/adapter/tool"
	"browser-dispatch/internal/application/port/output"
	"browser-dispatch/internal/application/service"
	"browser-dispatch/internal/infrastructure/browser/memory"
	"browser-dispatch/internal/infrastructure/browser/rod"
	"browser-dispatch/internal/infrastructure/env"
	"browser-dispatch/internal/infrastructure/logger"
)

const (
	BackendRod    = "rod"
	BackendMemory = "memory"
)

type Container struct {
	Config     Config
	Logger     output.LoggerPort
	Session    *service.Session
	Registry   *service.ToolRegistry
	Dispatcher *service.Dispatcher
}

type Config struct {
	Backend            string
	BrowserHeadless    bool
	BrowserNoSandbox   bool
	BrowserTimeout     time.Duration
	DispatchTimeout    time.Duration
	LeaseDrainGrace    time.Duration
	ScreenshotMaxWidth int
	LogLevel           string
	LogFormat          string
	HTTPAddr           string
}

func DefaultConfig() Config {
	return Config{
		Backend:            BackendRod,
		BrowserHeadless:    true,
		BrowserTimeout:     10 * time.Second,
		DispatchTimeout:    30 * time.Second,
		LeaseDrainGrace:    service.DefaultDrainGrace,
		ScreenshotMaxWidth: 1920,
		LogLevel:           "info",
		LogFormat:          "json",
		HTTPAddr:           ":8080",
	}
}

// ConfigFromEnv reads BROWSER_*, DISPATCH_TIMEOUT, LEASE_DRAIN_GRACE, SCREENSHOT_MAX_WIDTH, LOG_* and HTTP_ADDR over the defaults.
func ConfigFromEnv(e *env.EnvService) Config {
	def := DefaultConfig()
	return Config{
		Backend:            e.GetWithDefault("BROWSER_BACKEND", def.Backend),
		BrowserHeadless:    e.GetBool("BROWSER_HEADLESS", def.BrowserHeadless),
		BrowserNoSandbox:   e.GetBool("BROWSER_NO_SANDBOX", def.BrowserNoSandbox),
		BrowserTimeout:     e.GetDuration("BROWSER_TIMEOUT", def.BrowserTimeout),
		DispatchTimeout:    e.GetDuration("DISPATCH_TIMEOUT", def.DispatchTimeout),
		LeaseDrainGrace:    e.GetDuration("LEASE_DRAIN_GRACE", def.LeaseDrainGrace),
		ScreenshotMaxWidth: e.GetInt("SCREENSHOT_MAX_WIDTH", def.ScreenshotMaxWidth),
		LogLevel:           e.GetWithDefault("LOG_LEVEL", def.LogLevel),
		LogFormat:          e.GetWithDefault("LOG_FORMAT", def.LogFormat),
		HTTPAddr:           e.GetWithDefault("HTTP_ADDR", def.HTTPAddr),
	}
}

func NewContainer(cfg Config) (*Container, error) {
	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Format = cfg.LogFormat
	log, err := logger.NewLoggerAdapter(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	factory, err := browserFactory(cfg)
	if err != nil {
		log.Close()
		return nil, err
	}

	session := service.NewSession(factory, log, service.WithDrainGrace(cfg.LeaseDrainGrace))

	registry := service.NewToolRegistry()
	if err := tool.RegisterAll(registry); err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	log.Info("Container ready", "backend", cfg.Backend, "tools", registry.Len())

	return &Container{
		Config:     cfg,
		Logger:     log,
		Session:    session,
		Registry:   registry,
		Dispatcher: service.NewDispatcher(registry, session, log, cfg.DispatchTimeout),
	}, nil
}

func browserFactory(cfg Config) (output.BrowserFactory, error) {
	switch cfg.Backend {
	case BackendRod, "":
		browserCfg := rod.DefaultConfig()
		browserCfg.Headless = cfg.BrowserHeadless
		browserCfg.NoSandbox = cfg.BrowserNoSandbox
		if cfg.BrowserTimeout > 0 {
			browserCfg.Timeout = cfg.BrowserTimeout
		}
		if cfg.ScreenshotMaxWidth > 0 {
			browserCfg.ScreenshotMaxWidth = cfg.ScreenshotMaxWidth
		}
		return rod.NewFactory(browserCfg), nil
	case BackendMemory:
		return memory.NewFactory(memory.DefaultOptions()), nil
	default:
		return nil, fmt.Errorf("unknown browser backend %q (want %s or %s)", cfg.Backend, BackendRod, BackendMemory)
	}
}

func (c *Container) Close() {
	if c.Session != nil {
		if err := c.Session.Cleanup(); err != nil {
			c.Logger.Warn("Session cleanup failed", "error", err)
		}
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
