package protocol

import (
	"encoding/json"
	"fmt"
)

// ErrorText is the message returned to a sender whose frame failed to decode
const ErrorText = "failed parsing client message"

var errorFrame = []byte(`{"error":"` + ErrorText + `"}`)

// DecodeError reports a client frame that failed validation
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrorText, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrorText, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// wireClientMessage uses pointers so missing fields can be told apart from zero values
type wireClientMessage struct {
	PlayerID   *string         `json:"playerId"`
	PlayerName *string         `json:"playerName"`
	Type       *string         `json:"type"`
	Data       *map[string]any `json:"data"`
}

// Decode parses and validates a raw client frame
func Decode(raw []byte) (ClientMessage, error) {
	var wire wireClientMessage
	if err := json.Unmarshal(raw, &wire); err != nil {
		return ClientMessage{}, &DecodeError{Reason: "invalid json", Err: err}
	}

	switch {
	case wire.PlayerID == nil:
		return ClientMessage{}, &DecodeError{Reason: "missing playerId"}
	case *wire.PlayerID == "":
		return ClientMessage{}, &DecodeError{Reason: "empty playerId"}
	case wire.PlayerName == nil:
		return ClientMessage{}, &DecodeError{Reason: "missing playerName"}
	case wire.Type == nil:
		return ClientMessage{}, &DecodeError{Reason: "missing type"}
	case wire.Data == nil:
		return ClientMessage{}, &DecodeError{Reason: "missing data"}
	}

	msgType := MessageType(*wire.Type)
	if !IsMessageType(msgType) {
		return ClientMessage{}, &DecodeError{Reason: fmt.Sprintf("unknown type %q", *wire.Type)}
	}

	msg := ClientMessage{
		PlayerID:   *wire.PlayerID,
		PlayerName: *wire.PlayerName,
		Type:       msgType,
		Data:       *wire.Data,
	}

	if msgType == TypeAnswer {
		if _, ok := msg.Data["answer"].(string); !ok {
			return ClientMessage{}, &DecodeError{Reason: "answer requires a string data.answer"}
		}
	}

	return msg, nil
}

// Encode serializes a server message
func Encode(msg ServerMessage) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s message: %w", msg.Type, err)
	}
	return data, nil
}

// ErrorFrame returns the frame sent back to a client whose message was rejected
func ErrorFrame() []byte {
	out := make([]byte, len(errorFrame))
	copy(out, errorFrame)
	return out
}

// IsMessageType reports whether t is a recognized client message type
func IsMessageType(t MessageType) bool {
	for _, known := range MessageTypes {
		if t == known {
			return true
		}
	}
	return false
}
