package extension

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OCAP2/persistentrotation/internal/handlers"
)

// formatDispatchResponse formats a dispatcher result for the host as a JSON
// array: ["ok"], ["ok", <value>], ["error", "<message>"], or for a rejected
// edit ["error", "<message>", "<stored text>"].
func formatDispatchResponse(command string, result any, err error) string {
	if err != nil {
		var revert *handlers.RevertError
		if errors.As(err, &revert) {
			return fmt.Sprintf(`["error", %s, %s]`, quote(err.Error()), quote(revert.Stored))
		}
		return fmt.Sprintf(`["error", %s]`, quote(err.Error()))
	}
	if result == nil {
		return `["ok"]`
	}
	b, err := encode(result)
	if err != nil {
		return fmt.Sprintf(`["error", %s]`, quote(fmt.Sprintf("failed to encode %s result: %v", command, err)))
	}
	return fmt.Sprintf(`["ok", %s]`, b)
}

// encode marshals v without HTML escaping; paths and messages reach the
// host verbatim apart from JSON string escapes.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func quote(s string) string {
	b, _ := encode(s)
	return string(b)
}
