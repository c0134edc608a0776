package engine

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/TexhubPro/texhub-telegram-bot-builder/condition"
	"github.com/TexhubPro/texhub-telegram-bot-builder/flow"
	"github.com/TexhubPro/texhub-telegram-bot-builder/logger"
	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
	"github.com/TexhubPro/texhub-telegram-bot-builder/platform"
	"github.com/TexhubPro/texhub-telegram-bot-builder/plugin"
	"github.com/TexhubPro/texhub-telegram-bot-builder/record"
	"github.com/TexhubPro/texhub-telegram-bot-builder/status"
	"github.com/TexhubPro/texhub-telegram-bot-builder/template"
	"go.uber.org/zap"
)

// Target is one content node the traversal decided to deliver: where, how
// late, and with which resolved row and plugin variables.
type Target struct {
	Node   model.Node
	Delay  float64
	ChatID int64
	Entry  *model.UserEntry
	Row    map[string]string
	Vars   map[string]any
}

// Engine walks a flow graph breadth-first from a start node, applying
// pass-through side effects as nodes are visited and collecting delayed
// content targets. One instance serves one running bot.
type Engine struct {
	botID   string
	records *record.Store
	status  *status.Service
	plugins *plugin.Registry
	client  platform.Client
}

func New(botID string, records *record.Store, statusSvc *status.Service, plugins *plugin.Registry, client platform.Client) *Engine {
	return &Engine{
		botID:   botID,
		records: records,
		status:  statusSvc,
		plugins: plugins,
		client:  client,
	}
}

type visitKey struct {
	node  string
	chat  int64
	entry int64
}

type workItem struct {
	nodeID       string
	delay        float64
	chatOverride int64
	entry        *model.UserEntry
	recordValue  *string
	fileRef      *record.Ref
	column       string
	row          map[string]string
	vars         map[string]any
}

// Collect runs the live traversal for a trigger message. userID overrides
// the effective user when the message's own sender is not the human who
// caused it, as with callback presses.
func (e *Engine) Collect(ctx context.Context, g *flow.Graph, startID string, msg *model.Message, userID int64) []Target {
	if userID == 0 && msg != nil && msg.From != nil {
		userID = msg.From.ID
	}
	return e.traverse(ctx, g, startID, msg, userID, false)
}

// CollectScheduled runs the recipient-driven traversal used by task loops.
// Broadcast nodes fan the walk out over every stored user.
func (e *Engine) CollectScheduled(ctx context.Context, g *flow.Graph, startID string) []Target {
	return e.traverse(ctx, g, startID, nil, 0, true)
}

func (e *Engine) traverse(ctx context.Context, g *flow.Graph, startID string, msg *model.Message, triggerUserID int64, scheduled bool) []Target {
	var entries []model.UserEntry
	entryByID := make(map[int64]model.UserEntry)
	if scheduled {
		entries = e.status.ListUsers()
		for _, entry := range entries {
			entryByID[entry.UserID] = entry
		}
	}
	var payload map[string]any
	if msg != nil {
		if raw, err := json.Marshal(msg); err == nil {
			json.Unmarshal(raw, &payload)
		}
	}

	visited := make(map[visitKey]bool)
	seen := make(map[visitKey]bool)
	var results []Target
	queue := []workItem{{nodeID: startID}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		key := visitKey{node: item.nodeID, chat: item.chatOverride, entry: entryID(item.entry)}
		if item.nodeID == "" || visited[key] {
			continue
		}
		visited[key] = true
		node, ok := g.Node(item.nodeID)
		if !ok {
			continue
		}
		kind := node.Data.Kind()

		if kind == model.KIND_BROADCAST && scheduled {
			for _, entry := range entries {
				entry := entry
				for _, edge := range g.Outgoing(item.nodeID) {
					queue = append(queue, workItem{
						nodeID:       edge.Target,
						delay:        item.delay,
						chatOverride: entry.UserID,
						entry:        &entry,
						fileRef:      item.fileRef,
						column:       item.column,
						row:          item.row,
						vars:         item.vars,
					})
				}
			}
			continue
		}

		switch kind {
		case model.KIND_RECORD:
			field := node.Data.String("recordField")
			var value string
			if msg != nil {
				value = recordValueFromMessage(msg, field)
			} else {
				value = recordValueFromEntry(item.entry, field)
			}
			item.recordValue = &value
		case model.KIND_EXCEL_FILE, model.KIND_TEXT_FILE:
			name := fileName(node)
			if kind == model.KIND_EXCEL_FILE {
				item.fileRef = &record.Ref{Type: record.FILE_TYPE_EXCEL, Name: name}
			} else {
				item.fileRef = &record.Ref{Type: record.FILE_TYPE_TEXT, Name: name}
				if item.recordValue != nil {
					if err := e.records.AppendLine(e.botID, name, *item.recordValue); err != nil {
						logger.Error("text append failed", zap.String("bot", e.botID), zap.String("file", name), zap.Error(err))
					}
				}
			}
		case model.KIND_EXCEL_COLUMN:
			column := node.Data.String("columnName")
			if column == "" {
				column = "Value"
			}
			item.column = column
			if item.fileRef == nil {
				item.fileRef = e.owningExcelFile(g, item.nodeID)
			}
			if item.fileRef != nil && item.fileRef.Type == record.FILE_TYPE_EXCEL {
				value := ""
				if item.recordValue != nil {
					value = *item.recordValue
				}
				if err := e.records.AppendColumn(e.botID, item.fileRef.Name, column, value); err != nil {
					logger.Error("column append failed", zap.String("bot", e.botID), zap.String("file", item.fileRef.Name), zap.Error(err))
				}
			}
		case model.KIND_CHAT:
			if override := node.Data.Int64("chatId", 0); override != 0 {
				item.chatOverride = override
				if scheduled {
					if entry, ok := entryByID[override]; ok {
						item.entry = &entry
					}
				}
			}
		case model.KIND_STATUS_SET:
			if uid := e.effectiveUserID(item, triggerUserID); uid != 0 {
				e.status.SetStatus(uid, node.Data.String("statusValue"))
			}
		}

		// Predicate nodes constrain which outgoing handles survive. An
		// empty branch means every edge is followed.
		branch := ""
		switch kind {
		case model.KIND_CONDITION:
			pass := false
			if scheduled {
				pass = condition.MatchEntry(node, item.entry)
			} else if msg != nil {
				// Status lookups follow the human who triggered the
				// traversal, not the message author; callbacks arrive
				// authored by the bot itself.
				pass = condition.Match(node, msg, func(int64) string {
					return e.status.GetStatus(e.effectiveUserID(item, triggerUserID))
				})
			}
			branch = boolHandle(pass)
		case model.KIND_SUBSCRIPTION:
			pass := false
			channelID := node.Data.Int64("subscriptionChatId", 0)
			if uid := e.effectiveUserID(item, triggerUserID); channelID != 0 && uid != 0 {
				pass = e.status.IsSubscribed(ctx, channelID, uid)
			}
			branch = boolHandle(pass)
		case model.KIND_FILE_SEARCH:
			pass := e.runFileSearch(g, node, &item, msg)
			branch = boolHandle(pass)
		default:
			if e.plugins != nil {
				if p, ok := e.plugins.Get(kind); ok {
					branch = e.runPlugin(ctx, p, node, &item, msg, payload)
				}
			}
		}

		for _, edge := range g.Outgoing(item.nodeID) {
			target, ok := g.Node(edge.Target)
			if !ok {
				continue
			}
			targetKind := target.Data.Kind()
			// Column children of a search node configure it, they are
			// not a continuation.
			if kind == model.KIND_FILE_SEARCH && targetKind == model.KIND_EXCEL_COLUMN {
				continue
			}
			if branch != "" && edge.Handle() != branch {
				continue
			}
			switch {
			case model.IsContentKind(targetKind):
				chatID := item.chatOverride
				entry := item.entry
				if scheduled {
					if chatID == 0 && entry != nil {
						chatID = entry.UserID
					}
					if chatID == 0 {
						continue
					}
				}
				dedupKey := visitKey{node: target.ID, chat: item.chatOverride, entry: entryID(entry)}
				if seen[dedupKey] {
					continue
				}
				seen[dedupKey] = true
				results = append(results, Target{
					Node:   target,
					Delay:  item.delay,
					ChatID: chatID,
					Entry:  entry,
					Row:    item.row,
					Vars:   item.vars,
				})
				// Deletions and edits keep traversing so cleanup can
				// precede follow-up content in a live flow.
				if !scheduled && (targetKind == model.KIND_DELETE_MESSAGE || targetKind == model.KIND_EDIT_MESSAGE) {
					next := item
					next.nodeID = target.ID
					queue = append(queue, next)
				}
			case targetKind == model.KIND_TIMER:
				next := item
				next.nodeID = target.ID
				next.delay = item.delay + timerSeconds(target)
				queue = append(queue, next)
			case e.isPassThrough(targetKind):
				next := item
				next.nodeID = target.ID
				queue = append(queue, next)
			}
		}
	}
	return results
}

func (e *Engine) effectiveUserID(item workItem, triggerUserID int64) int64 {
	if item.entry != nil {
		return item.entry.UserID
	}
	return triggerUserID
}

func (e *Engine) isPassThrough(kind string) bool {
	switch kind {
	case model.KIND_CONDITION, model.KIND_SUBSCRIPTION, model.KIND_RECORD,
		model.KIND_EXCEL_FILE, model.KIND_TEXT_FILE, model.KIND_EXCEL_COLUMN,
		model.KIND_FILE_SEARCH, model.KIND_BROADCAST, model.KIND_TASK,
		model.KIND_STATUS_SET, model.KIND_STATUS_GET, model.KIND_CHAT:
		return true
	}
	if e.plugins != nil {
		if _, ok := e.plugins.Get(kind); ok {
			return true
		}
	}
	return false
}

// owningExcelFile resolves the excel_file feeding a column node through its
// incoming edges.
func (e *Engine) owningExcelFile(g *flow.Graph, columnID string) *record.Ref {
	for _, edge := range g.Incoming(columnID) {
		source, ok := g.Node(edge.Source)
		if !ok || source.Data.Kind() != model.KIND_EXCEL_FILE {
			continue
		}
		return &record.Ref{Type: record.FILE_TYPE_EXCEL, Name: fileName(source)}
	}
	return nil
}

// runFileSearch resolves which file and column a search node reads, picks
// the search value, and looks for a match. The matched row lands on the
// work item for downstream rendering.
func (e *Engine) runFileSearch(g *flow.Graph, node model.Node, item *workItem, msg *model.Message) bool {
	item.row = nil
	searchColumn := node.Data.String("searchColumnName")
	resolvedFile := item.fileRef
	resolvedColumn := searchColumn
	if resolvedColumn == "" {
		resolvedColumn = item.column
	}

	resolveFromColumn := func(columnNode model.Node) {
		if searchColumn == "" {
			if name := columnNode.Data.String("columnName"); name != "" {
				resolvedColumn = name
			}
		}
		if resolvedFile == nil {
			resolvedFile = e.owningExcelFile(g, columnNode.ID)
		}
	}

	for _, edge := range g.Incoming(node.ID) {
		source, ok := g.Node(edge.Source)
		if !ok {
			continue
		}
		switch source.Data.Kind() {
		case model.KIND_TEXT_FILE:
			if resolvedFile == nil {
				resolvedFile = &record.Ref{Type: record.FILE_TYPE_TEXT, Name: fileName(source)}
			}
		case model.KIND_EXCEL_FILE:
			if resolvedFile == nil {
				resolvedFile = &record.Ref{Type: record.FILE_TYPE_EXCEL, Name: fileName(source)}
			}
		case model.KIND_EXCEL_COLUMN:
			resolveFromColumn(source)
		}
	}
	for _, edge := range g.Outgoing(node.ID) {
		target, ok := g.Node(edge.Target)
		if !ok || target.Data.Kind() != model.KIND_EXCEL_COLUMN {
			continue
		}
		resolveFromColumn(target)
		if resolvedColumn != "" && resolvedFile != nil {
			break
		}
	}

	searchValue := ""
	manual := node.Data.String("searchValue")
	if node.Data.String("searchSource") == "manual" && manual != "" {
		searchValue = template.Render(manual, template.Context{
			Message:   msg,
			Recipient: item.entry,
			ChatID:    item.chatOverride,
			Row:       item.row,
			Vars:      item.vars,
		})
	} else {
		if item.recordValue != nil {
			searchValue = strings.TrimSpace(*item.recordValue)
		}
		if searchValue == "" && msg != nil {
			searchValue = msg.TextValue()
		}
	}

	item.fileRef = resolvedFile
	if resolvedColumn != "" {
		item.column = resolvedColumn
	}
	if resolvedFile == nil || searchValue == "" {
		return false
	}
	switch resolvedFile.Type {
	case record.FILE_TYPE_EXCEL:
		if resolvedColumn == "" {
			return false
		}
		row, found, err := e.records.SearchColumn(e.botID, resolvedFile.Name, resolvedColumn, searchValue)
		if err != nil {
			logger.Error("excel search failed", zap.String("bot", e.botID), zap.String("file", resolvedFile.Name), zap.Error(err))
			return false
		}
		item.row = row
		return found
	case record.FILE_TYPE_TEXT:
		row, found, err := e.records.SearchLine(e.botID, resolvedFile.Name, searchValue)
		if err != nil {
			logger.Error("text search failed", zap.String("bot", e.botID), zap.String("file", resolvedFile.Name), zap.Error(err))
			return false
		}
		item.row = row
		return found
	}
	return false
}

func (e *Engine) runPlugin(ctx context.Context, p plugin.Plugin, node model.Node, item *workItem, msg *model.Message, payload map[string]any) string {
	values := plugin.ResolveValues(payload, node.Data.Map("values"))
	renderCtx := template.Context{
		Message:   msg,
		Recipient: item.entry,
		ChatID:    item.chatOverride,
		Row:       item.row,
		Vars:      item.vars,
	}
	result, err := p.Run(plugin.Context{
		BotID:     e.botID,
		Node:      node,
		Values:    values,
		Variables: item.vars,
		Payload:   payload,
		Render: func(text string) string {
			return template.Render(text, renderCtx)
		},
		Send: func(chatID int64, text string) error {
			_, err := e.client.SendText(ctx, chatID, text, model.Markup{})
			return err
		},
	})
	if err != nil {
		logger.Error("plugin failed", zap.String("bot", e.botID), zap.String("kind", p.Kind()), zap.Error(err))
		return "false"
	}
	if len(result.Vars) > 0 {
		merged := make(map[string]any, len(item.vars)+len(result.Vars))
		for k, v := range item.vars {
			merged[k] = v
		}
		for k, v := range result.Vars {
			merged[k] = v
		}
		item.vars = merged
	}
	return result.Output
}

func entryID(entry *model.UserEntry) int64 {
	if entry == nil {
		return 0
	}
	return entry.UserID
}

func boolHandle(pass bool) string {
	if pass {
		return "true"
	}
	return "false"
}

func fileName(node model.Node) string {
	name := node.Data.String("fileName")
	if name == "" {
		return "data"
	}
	return name
}

func timerSeconds(node model.Node) float64 {
	value := node.Data.Float("timerSeconds", 0)
	if value < 0 {
		return 0
	}
	return value
}
