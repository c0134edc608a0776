package condition

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
)

var digitRe = regexp.MustCompile(`\d`)

// StatusLookup resolves the persisted status tag for a user id. The engine
// binds it to the status store for the owning bot.
type StatusLookup func(userID int64) string

// Match evaluates a condition node against a live message. An empty or
// unrecognized predicate is false, never true by default.
func Match(node model.Node, msg *model.Message, statusOf StatusLookup) bool {
	data := node.Data
	textValue := msg.TextValue()
	conditionType := data.String("conditionType")
	conditionText := data.String("conditionText")
	var checks []bool

	switch conditionType {
	case "text":
		if conditionText == "" {
			return false
		}
		checks = append(checks, strings.EqualFold(textValue, conditionText))
	case "text_contains":
		if conditionText == "" {
			return false
		}
		checks = append(checks, strings.Contains(strings.ToLower(textValue), strings.ToLower(conditionText)))
	case "status":
		if conditionText == "" || statusOf == nil || msg == nil || msg.From == nil {
			return false
		}
		checks = append(checks, strings.EqualFold(statusOf(msg.From.ID), conditionText))
	case "has_text":
		checks = append(checks, textValue != "")
	case "has_number":
		checks = append(checks, digitRe.MatchString(textValue))
	case "has_photo":
		checks = append(checks, msg != nil && msg.PhotoFileID != "")
	case "has_video":
		checks = append(checks, msg != nil && msg.VideoFileID != "")
	case "has_audio":
		checks = append(checks, msg != nil && msg.AudioFileID != "")
	case "has_voice":
		checks = append(checks, msg != nil && msg.VoiceFileID != "")
	case "has_document":
		checks = append(checks, msg != nil && msg.DocumentFileID != "")
	case "has_sticker":
		checks = append(checks, msg != nil && msg.StickerFileID != "")
	case "has_contact":
		checks = append(checks, msg != nil && msg.HasContact)
	case "has_location":
		checks = append(checks, msg != nil && msg.HasLocation)
	default:
		// Legacy nodes: bare conditionText means exact match; otherwise the
		// conditionHas* flag bag.
		if conditionText != "" {
			checks = append(checks, strings.EqualFold(textValue, conditionText))
		} else {
			if data.Bool("conditionHasText") {
				checks = append(checks, textValue != "")
			}
			if data.Bool("conditionHasNumber") {
				checks = append(checks, digitRe.MatchString(textValue))
			}
			if data.Bool("conditionHasPhoto") {
				checks = append(checks, msg != nil && msg.PhotoFileID != "")
			}
			if data.Bool("conditionHasVideo") {
				checks = append(checks, msg != nil && msg.VideoFileID != "")
			}
			if data.Bool("conditionHasAudio") {
				checks = append(checks, msg != nil && msg.AudioFileID != "")
			}
			if data.Bool("conditionHasLocation") {
				checks = append(checks, msg != nil && msg.HasLocation)
			}
		}
	}

	if conditionType == "has_text" || conditionType == "has_number" {
		if lengthCheck, ok := matchLength(data, len(textValue)); ok {
			checks = append(checks, lengthCheck)
		}
	}

	if len(checks) == 0 {
		return false
	}
	for _, c := range checks {
		if !c {
			return false
		}
	}
	return true
}

func matchLength(data model.NodeData, actual int) (bool, bool) {
	op := data.String("conditionLengthOp")
	raw := data.String("conditionLengthValue")
	if op == "" || raw == "" {
		return false, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return false, false
	}
	switch op {
	case "lt":
		return actual < value, true
	case "lte":
		return actual <= value, true
	case "eq":
		return actual == value, true
	case "gte":
		return actual >= value, true
	case "gt":
		return actual > value, true
	}
	return false, false
}

// MatchEntry evaluates a condition node against a stored recipient during
// scheduled and broadcast traversals. Only status predicates apply there.
func MatchEntry(node model.Node, entry *model.UserEntry) bool {
	if entry == nil {
		return false
	}
	data := node.Data
	if data.String("conditionType") != "status" {
		return false
	}
	conditionText := data.String("conditionText")
	if conditionText == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(entry.Status), conditionText)
}
