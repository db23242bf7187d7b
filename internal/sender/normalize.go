package sender

import (
	"bytes"
	"encoding/json"
)

// Result is the uniform per-recipient outcome the rest of the workflow
// consumes. The backend's endpoints respond inconsistently (a list of
// per-recipient objects or one aggregate object), so every response goes
// through Normalize before anything else sees it.
type Result struct {
	Recipient string                 `json:"recipient,omitempty"`
	IsSuccess bool                   `json:"isSuccess"`
	MessageID string                 `json:"messageId,omitempty"`
	Error     *ErrorInfo             `json:"error,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// recipientResult is shape (a): one element per recipient, with the
// provider's raw response embedded as a JSON string.
type recipientResult struct {
	Recipient       string `json:"recipient"`
	IsSuccess       bool   `json:"isSuccess"`
	ResponseContent string `json:"responseContent"`
}

// Normalize converts either response shape into uniform Result records:
// one per recipient for a list, exactly one for an aggregate object.
func Normalize(body []byte) []Result {
	trimmed := bytes.TrimSpace(body)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []recipientResult
		if err := json.Unmarshal(trimmed, &list); err == nil {
			out := make([]Result, 0, len(list))
			for _, r := range list {
				out = append(out, normalizeRecipient(r))
			}
			return out
		}
	}

	var object map[string]interface{}
	if err := json.Unmarshal(trimmed, &object); err == nil {
		if success, ok := object["success"].(bool); ok {
			res := Result{IsSuccess: success, Details: map[string]interface{}{}}
			if errText, ok := object["error"].(string); ok && errText != "" {
				res.Details["error"] = errText
			}
			return []Result{res}
		}
		// Object without a success flag: a plain payload from an endpoint
		// that only errors via HTTP status.
		return []Result{{IsSuccess: true, Details: object}}
	}

	return []Result{{IsSuccess: true}}
}

func normalizeRecipient(r recipientResult) Result {
	res := Result{Recipient: r.Recipient, IsSuccess: r.IsSuccess}

	payload := map[string]interface{}{}
	if r.ResponseContent != "" {
		// Malformed embedded JSON degrades to an empty payload.
		if err := json.Unmarshal([]byte(r.ResponseContent), &payload); err != nil {
			payload = map[string]interface{}{}
		}
	}
	res.Details = payload

	if r.IsSuccess {
		if msgs, ok := payload["messages"].([]interface{}); ok && len(msgs) > 0 {
			if m, ok := msgs[0].(map[string]interface{}); ok {
				if id, ok := m["id"].(string); ok {
					res.MessageID = id
				}
			}
		}
		return res
	}

	if errObj, ok := payload["error"].(map[string]interface{}); ok {
		info := &ErrorInfo{}
		if v, ok := errObj["message"].(string); ok {
			info.Message = v
		}
		if v, ok := errObj["type"].(string); ok {
			info.Type = v
		}
		if v, ok := errObj["code"].(float64); ok {
			info.Code = int(v)
		}
		res.Error = info
	}
	return res
}
