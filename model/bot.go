package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

type BotStatus string

const BOT_STATUS_RUNNING BotStatus = "running"
const BOT_STATUS_STOPPED BotStatus = "stopped"

// Bot is the persisted record for one automation bot. Flow is kept as the
// raw JSON the editor produced; the engine parses a view of it on demand and
// never migrates or rewrites it.
type Bot struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Token  string          `json:"token,omitempty"`
	Status BotStatus       `json:"status"`
	Flow   json.RawMessage `json:"flow"`
}

type Flow struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

type Node struct {
	ID   string   `json:"id"`
	Data NodeData `json:"data"`
}

// Edge connects two nodes. SourceHandle discriminates the branch outputs of
// predicate nodes; an empty handle means "true".
type Edge struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
}

func (e Edge) Handle() string {
	if e.SourceHandle == "" {
		return "true"
	}
	return e.SourceHandle
}

// NodeData is the free-form per-kind attribute bag. Typed accessors parse
// with defaults so malformed authoring never fails a traversal.
type NodeData map[string]any

func (d NodeData) Kind() string {
	return d.String("kind")
}

func (d NodeData) String(key string) string {
	v, ok := d[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

func (d NodeData) Int64(key string, def int64) int64 {
	v, ok := d[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int64(n)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}

func (d NodeData) Float(key string, def float64) float64 {
	v, ok := d[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}

func (d NodeData) Bool(key string) bool {
	v, ok := d[key]
	if !ok || v == nil {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true")
	case float64:
		return b != 0
	default:
		return false
	}
}

func (d NodeData) StringList(key string) []string {
	v, ok := d[key]
	if !ok || v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (d NodeData) Map(key string) map[string]any {
	v, ok := d[key]
	if !ok || v == nil {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m
}

// ParseFlow decodes the opaque flow JSON. Malformed or empty input yields an
// empty flow, never an error that could take a running bot down.
func ParseFlow(raw json.RawMessage) Flow {
	var f Flow
	if len(raw) == 0 {
		return f
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return Flow{}
	}
	return f
}
