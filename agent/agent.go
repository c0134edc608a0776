package agent

import (
	"fmt"
	"sync"

	"github.com/TexhubPro/texhub-telegram-bot-builder/analytics"
	"github.com/TexhubPro/texhub-telegram-bot-builder/cache"
	"github.com/TexhubPro/texhub-telegram-bot-builder/config"
	"github.com/TexhubPro/texhub-telegram-bot-builder/logger"
	"github.com/TexhubPro/texhub-telegram-bot-builder/persistence"
	"github.com/TexhubPro/texhub-telegram-bot-builder/persistence/inmem"
	rd "github.com/TexhubPro/texhub-telegram-bot-builder/persistence/redis"
	"github.com/TexhubPro/texhub-telegram-bot-builder/platform/telegram"
	"github.com/TexhubPro/texhub-telegram-bot-builder/plugin"
	"github.com/TexhubPro/texhub-telegram-bot-builder/record"
	"github.com/TexhubPro/texhub-telegram-bot-builder/rest"
	"github.com/TexhubPro/texhub-telegram-bot-builder/runtime"
)

// Agent wires the whole backend together: storage, record files, plugins,
// the bot supervisor and the http server.
type Agent struct {
	Config config.Config

	storage    persistence.Storage
	records    *record.Store
	plugins    *plugin.Registry
	flows      *cache.FlowCache
	supervisor *runtime.Supervisor
	httpServer *rest.Server

	shutdown     bool
	shutdownLock sync.Mutex
}

func New(conf config.Config) (*Agent, error) {
	a := &Agent{
		Config: conf,
	}
	setup := []func() error{
		a.setupAnalytics,
		a.setupStorage,
		a.setupRecordStore,
		a.setupPlugins,
		a.setupSupervisor,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupAnalytics() error {
	if a.Config.AnalyticsConfig.FileName == "" {
		return nil
	}
	return analytics.InitDataCollector(a.Config.AnalyticsConfig)
}

func (a *Agent) setupStorage() error {
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		a.storage = rd.NewRedisStorage(rd.Config{
			Addrs:     a.Config.RedisConfig.Addrs,
			Namespace: a.Config.RedisConfig.Namespace,
		})
	case config.STORAGE_TYPE_INMEM:
		a.storage = inmem.NewStorage()
	default:
		return fmt.Errorf("unknown storage implementation %s", a.Config.StorageType)
	}
	return nil
}

func (a *Agent) setupRecordStore() error {
	store, err := record.NewStore(a.Config.FilesDir)
	if err != nil {
		return err
	}
	a.records = store
	return nil
}

func (a *Agent) setupPlugins() error {
	registry, err := plugin.LoadDir(a.Config.PluginsDir)
	if err != nil {
		return err
	}
	a.plugins = registry
	return nil
}

func (a *Agent) setupSupervisor() error {
	a.flows = cache.NewFlowCache()
	a.supervisor = runtime.NewSupervisor(a.storage, a.flows, a.records, a.plugins, telegram.NewClient, a.Config.PollTimeout)
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.storage, a.supervisor, a.records)
	return err
}

func (a *Agent) Start() error {
	go func() {
		if err := a.httpServer.Start(); err != nil {
			_ = a.Shutdown()
			panic(err)
		}
	}()
	a.supervisor.Resume()
	return nil
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down server")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true

	shutdown := []func() error{
		func() error {
			a.supervisor.StopAll()
			return nil
		},
		a.httpServer.Stop,
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
