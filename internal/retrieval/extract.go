package retrieval

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PlaceholderSentinel is the literal template expression the upstream
// workflow returns when it failed to substitute a real code. It means
// "no code", never a credential.
const PlaceholderSentinel = "{{ $json.output }}"

// codeKeys is the probe order for keyed responses. First present, non-empty
// value wins.
var codeKeys = []string{"code_wifi", "wifi_code", "code", "ticket", "wifiCode", "pin", "password"}

// Decode turns a raw webhook body into the loose value ExtractCode walks.
// An empty body decodes to nil; a non-JSON body is kept as raw text, since
// the workflow sometimes answers with the bare code.
func Decode(body []byte) any {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	return v
}

// ExtractCode resolves a decoded response value to an access code. Sequences
// recurse into their first element, text values are used trimmed, keyed
// structures are probed in codeKeys order. The placeholder sentinel counts
// as absent in every wrapping shape.
func ExtractCode(v any) (string, bool) {
	code := extract(v)
	if code == "" || code == PlaceholderSentinel {
		return "", false
	}
	return code, true
}

func extract(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any:
		if len(t) == 0 {
			return ""
		}
		return extract(t[0])
	case map[string]any:
		for _, key := range codeKeys {
			if raw, ok := t[key]; ok {
				if s := coerce(raw); s != "" {
					return s
				}
			}
		}
		return ""
	default:
		// Bare numbers and booleans are not codes.
		return ""
	}
}

func coerce(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		// JSON numbers decode as float64; codes are integral.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}
