package registration

import (
	"bytes"
	"encoding/json"
)

// ExtractPaymentID pulls the payment ID out of a gateway notification.
// Notification shapes vary across gateway event types, so the lookup order
// is fixed: data.id, then resource.id, then top-level id. Numbers and
// strings are both accepted. Returns "" when no ID is present; the webhook
// handler acknowledges those with 200 so the gateway doesn't retry-storm
// on malformed pings.
func ExtractPaymentID(payload []byte) string {
	var body map[string]interface{}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return ""
	}

	if nested, ok := body["data"].(map[string]interface{}); ok {
		if id := idString(nested["id"]); id != "" {
			return id
		}
	}
	if nested, ok := body["resource"].(map[string]interface{}); ok {
		if id := idString(nested["id"]); id != "" {
			return id
		}
	}
	return idString(body["id"])
}

func idString(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	}
	return ""
}
