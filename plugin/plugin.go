package plugin

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/TexhubPro/texhub-telegram-bot-builder/logger"
	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
	"go.uber.org/zap"
)

// Result is what a plugin hands back to the traversal: the branch handle
// to follow and variables merged into the rendering scope.
type Result struct {
	Output string
	Vars   map[string]any
}

// Context is the view of the traversal a plugin runs against. Values holds
// the node's configured inputs after jsonpath resolution over the event
// payload; Variables holds everything earlier plugins produced.
type Context struct {
	BotID     string
	Node      model.Node
	Values    map[string]any
	Variables map[string]any
	Payload   map[string]any
	Render    func(text string) string
	Send      func(chatID int64, text string) error
}

type Plugin interface {
	Kind() string
	Run(ctx Context) (Result, error)
}

// Registry maps custom node kinds to their plugin.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

func (r *Registry) Register(p Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[p.Kind()] = p
}

func (r *Registry) Get(kind string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[kind]
	return p, ok
}

// LoadDir registers a javascript plugin for every *.js file in dir, the
// file name (without extension) becoming the node kind it serves. A
// missing dir yields an empty registry.
func LoadDir(dir string) (*Registry, error) {
	registry := NewRegistry()
	if dir == "" {
		return registry, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return registry, nil
		}
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".js") {
			continue
		}
		source, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		kind := strings.TrimSuffix(entry.Name(), ".js")
		registry.Register(NewJsPlugin(kind, string(source)))
		logger.Info("plugin loaded", zap.String("kind", kind))
	}
	return registry, nil
}
