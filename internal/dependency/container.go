// Package dependency wires core personafin services using go.uber.org/dig.
package dependency

import (
	"fmt"
	"path/filepath"

	"go.uber.org/dig"

	"github.com/personafin/personafin/internal/agent"
	"github.com/personafin/personafin/internal/bus"
	"github.com/personafin/personafin/internal/channels"
	"github.com/personafin/personafin/internal/config"
	"github.com/personafin/personafin/internal/convo"
	"github.com/personafin/personafin/internal/cron"
	"github.com/personafin/personafin/internal/llm"
	"github.com/personafin/personafin/internal/persona"
)

// Container holds the resolved core service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	cfgStore   *config.Store
	msgBus     *bus.MessageBus
	loop       *agent.Loop
	channelMgr *channels.Manager
	sweeper    *cron.Sweeper
}

func (c *Container) ConfigStore() *config.Store  { return c.cfgStore }
func (c *Container) MessageBus() *bus.MessageBus { return c.msgBus }
func (c *Container) Loop() *agent.Loop           { return c.loop }
func (c *Container) Channels() *channels.Manager { return c.channelMgr }
func (c *Container) Sweeper() *cron.Sweeper      { return c.sweeper }

// New builds and wires all core services from cfg.
func New(cfg *config.Config, cfgPath string) (*Container, error) {
	d := dig.New()

	if err := d.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := d.Provide(func(c *config.Config) *config.Store {
		return config.NewStore(c, cfgPath)
	}); err != nil {
		return nil, err
	}
	if err := d.Provide(newMessageBus); err != nil {
		return nil, err
	}
	if err := d.Provide(newConversationStore); err != nil {
		return nil, err
	}
	if err := d.Provide(newClient); err != nil {
		return nil, err
	}
	if err := d.Provide(newPersonaLibrary); err != nil {
		return nil, err
	}
	if err := d.Provide(newLoop); err != nil {
		return nil, err
	}
	if err := d.Provide(newChannelManager); err != nil {
		return nil, err
	}
	if err := d.Provide(newSweeper); err != nil {
		return nil, err
	}

	var result *Container
	err := d.Invoke(func(
		cfgStore *config.Store,
		msgBus *bus.MessageBus,
		loop *agent.Loop,
		channelMgr *channels.Manager,
		sweeper *cron.Sweeper,
	) {
		result = &Container{
			cfgStore:   cfgStore,
			msgBus:     msgBus,
			loop:       loop,
			channelMgr: channelMgr,
			sweeper:    sweeper,
		}
	})
	return result, err
}

func newMessageBus() *bus.MessageBus {
	return bus.NewMessageBus(100)
}

func newConversationStore(cfg *config.Config) *convo.Store {
	return convo.NewStore(cfg.HistorySize)
}

func newClient(cfg *config.Config) (*llm.Client, error) {
	if cfg.Provider.APIKey == "" {
		return nil, fmt.Errorf("no API key configured — edit %s", config.ConfigPath())
	}
	return llm.NewClient(cfg.Provider.APIKey, cfg.Provider.APIBase), nil
}

func newPersonaLibrary() *persona.Library {
	return persona.NewLibrary(filepath.Join(config.DataDir(), "personas"))
}

func newLoop(
	b *bus.MessageBus,
	cfgStore *config.Store,
	convs *convo.Store,
	client *llm.Client,
	personas *persona.Library,
) *agent.Loop {
	return agent.New(b, cfgStore, convs, client, personas)
}

func newChannelManager(cfg *config.Config, b *bus.MessageBus) *channels.Manager {
	return channels.NewManager(*cfg, b)
}

func newSweeper(cfg *config.Config, loop *agent.Loop) *cron.Sweeper {
	return cron.NewSweeper(cfg.Sweep.Every, loop.SweepSummaries)
}
