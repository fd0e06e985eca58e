package connection

import "encoding/json"

// Message is one decoded inbound frame. JSON frames carry their parsed form
// in Data; every frame keeps its text and raw byte forms.
type Message struct {
	// Data is the decoded JSON value, nil when the frame was not JSON.
	Data any

	// Text is the frame as a string.
	Text string

	// Raw is the frame exactly as received.
	Raw []byte
}

// IsJSON reports whether the frame decoded as JSON.
func (m Message) IsJSON() bool {
	return m.Data != nil
}

// decodeMessage attempts a JSON decode and falls back to raw text.
func decodeMessage(raw []byte) Message {
	msg := Message{
		Text: string(raw),
		Raw:  raw,
	}

	var data any
	if err := json.Unmarshal(raw, &data); err == nil {
		msg.Data = data
	}
	return msg
}

// encodePayload turns an outbound value into wire bytes: byte slices and
// strings pass through unchanged, everything else is marshalled as JSON.
func encodePayload(v any) ([]byte, error) {
	switch payload := v.(type) {
	case []byte:
		return payload, nil
	case string:
		return []byte(payload), nil
	default:
		return json.Marshal(v)
	}
}
