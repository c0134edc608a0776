package plugin

import (
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"
)

var _ Plugin = new(jsPlugin)

// jsPlugin wraps a javascript file defining run(ctx). The script returns
// {output: "true"|"false", vars: {...}}; anything else collapses to the
// false branch.
type jsPlugin struct {
	kind   string
	source string
}

func NewJsPlugin(kind string, source string) *jsPlugin {
	return &jsPlugin{kind: kind, source: source}
}

func (p *jsPlugin) Kind() string {
	return p.kind
}

func (p *jsPlugin) Run(ctx Context) (Result, error) {
	vm := goja.New()
	if err := vm.Set("render", func(text string) string {
		if ctx.Render == nil {
			return text
		}
		return ctx.Render(text)
	}); err != nil {
		return Result{Output: "false"}, err
	}
	if err := vm.Set("send", func(chatID int64, text string) {
		if ctx.Send != nil {
			_ = ctx.Send(chatID, text)
		}
	}); err != nil {
		return Result{Output: "false"}, err
	}
	if _, err := vm.RunString(p.source); err != nil {
		return Result{Output: "false"}, fmt.Errorf("error executing javascript %w", err)
	}
	runFn, ok := goja.AssertFunction(vm.Get("run"))
	if !ok {
		return Result{Output: "false"}, fmt.Errorf("plugin %s defines no run function", p.kind)
	}
	payload := map[string]any{
		"bot_id":    ctx.BotID,
		"node":      map[string]any(ctx.Node.Data),
		"values":    ctx.Values,
		"variables": ctx.Variables,
		"event":     ctx.Payload,
	}
	value, err := runFn(goja.Undefined(), vm.ToValue(payload))
	if err != nil {
		return Result{Output: "false"}, fmt.Errorf("error executing javascript %w", err)
	}
	raw, err := json.Marshal(value.Export())
	if err != nil {
		return Result{Output: "false"}, err
	}
	var decoded struct {
		Output string         `json:"output"`
		Vars   map[string]any `json:"vars"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Result{Output: "false"}, err
	}
	if decoded.Output != "true" {
		decoded.Output = "false"
	}
	return Result{Output: decoded.Output, Vars: decoded.Vars}, nil
}
