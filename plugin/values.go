package plugin

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oliveagle/jsonpath"
)

var tokenRe = regexp.MustCompile("{(.*?)}")

// ResolveValues substitutes {$.path} tokens in the node's configured
// inputs with jsonpath lookups against the event payload. Non-string
// values and tokens without the $ prefix pass through untouched.
func ResolveValues(payload map[string]any, params map[string]any) map[string]any {
	output := make(map[string]any)
	resolveParams(payload, params, output)
	return output
}

func resolveParams(payload map[string]any, params map[string]any, output map[string]any) {
	for k, v := range params {
		switch value := v.(type) {
		case map[string]any:
			out := make(map[string]any)
			output[k] = out
			resolveParams(payload, value, out)
		case string:
			output[k] = resolveString(payload, value)
		case []any:
			output[k] = resolveList(payload, value)
		default:
			output[k] = v
		}
	}
}

func resolveString(payload map[string]any, value string) string {
	tokens := tokenRe.FindAllString(value, -1)
	for _, token := range tokens {
		path := strings.TrimSuffix(strings.TrimPrefix(token, "{"), "}")
		if !strings.HasPrefix(path, "$") {
			continue
		}
		resolved, _ := jsonpath.JsonPathLookup(payload, path)
		value = strings.ReplaceAll(value, token, fmt.Sprintf("%v", resolved))
	}
	return value
}

func resolveList(payload map[string]any, list []any) []any {
	var output []any
	for _, v := range list {
		switch value := v.(type) {
		case map[string]any:
			out := make(map[string]any)
			resolveParams(payload, value, out)
			output = append(output, out)
		case string:
			output = append(output, resolveString(payload, value))
		case []any:
			output = append(output, resolveList(payload, value)...)
		default:
			output = append(output, v)
		}
	}
	return output
}
