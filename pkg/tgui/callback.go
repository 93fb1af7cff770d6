package tgui

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"tgmarkup/pkg/button"
)

// Data formats callback data as "plugin:action:payload". The payload is kept
// as-is; use PackJSON for structured values.
func Data(plugin, action, payload string) string {
	plugin = strings.TrimSpace(plugin)
	action = strings.TrimSpace(action)
	if payload == "" {
		return plugin + ":" + action
	}
	return plugin + ":" + action + ":" + payload
}

// Parse splits data produced by Data. ok is false when there is no action.
func Parse(data string) (plugin, action, payload string, ok bool) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", false
	}
	if len(parts) == 3 {
		payload = parts[2]
	}
	return parts[0], parts[1], payload, true
}

// PackJSON marshals v and base64url encodes it without padding.
func PackJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func UnpackJSON(payload string, v any) error {
	b, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// CallbackButton builds an inline button carrying Data(plugin, action,
// payload). It fails with button.ErrDataTooLong past the server limit.
func CallbackButton(text, plugin, action, payload string) (*button.Button, error) {
	return button.Inline(text, Data(plugin, action, payload))
}
