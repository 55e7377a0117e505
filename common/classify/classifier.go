// Package classify implements the message classifier that sits between
// the frame reassembler and the wire decoder (spec.md §4.3), ported
// from original_source/main.rs's handler_thread.
package classify

import (
	"encoding/hex"

	"rcsniff2/common/log"
	"rcsniff2/common/opcode"
	"rcsniff2/common/wire"
)

// Message is one classified, decoded frame handed to a consumer.
type Message struct {
	Type    opcode.MessageType
	Payload wire.Value
	Raw     []byte
}

// Classifier dispatches frame payloads to the wire decoder by message
// type (spec.md §4.3). It is stateless apart from the custom-type
// registry, and safe to share across both directions.
type Classifier struct {
	registry *wire.Registry
}

// New returns a Classifier using registry for Custom type lookups.
// registry may be nil.
func New(registry *wire.Registry) *Classifier {
	return &Classifier{registry: registry}
}

// Classify inspects one frame payload and returns the decoded Message,
// or ok=false if the frame was dropped (wrong leading byte, or the
// encrypted bit was set — spec.md §4.3 Non-goals: decryption). A
// body-decode failure is logged and reported as ok=false rather than
// propagated, since a malformed single frame must not abort the
// classifier (spec.md §7).
func (c *Classifier) Classify(payload []byte) (Message, bool) {
	if len(payload) < 2 {
		log.Log.Warningf("classify: payload too short (%d bytes)", len(payload))
		return Message{}, false
	}
	if payload[0] != 0xF3 {
		log.Log.Debugf("classify: dropping frame with leading byte %#x", payload[0])
		return Message{}, false
	}
	code := payload[1]
	if code&0x80 != 0 {
		log.Log.Warningf("classify: dropping encrypted frame (code %#x)", code)
		return Message{}, false
	}
	msgType := opcode.MessageType(code & 0x7F)
	body := payload[2:]

	msg := Message{Type: msgType, Raw: payload}
	d := wire.NewDecoder(body, c.registry)

	var (
		v   wire.Value
		err error
	)
	switch msgType {
	case opcode.Operation, opcode.InternalOperationRequest:
		var r *wire.OperationRequest
		r, err = d.DeserializeOperationRequest()
		if err == nil {
			v = wire.Request(r)
		}
	case opcode.OperationResponse, opcode.InternalOperationResponse:
		var r *wire.OperationResponse
		r, err = d.DeserializeOperationResponse()
		if err == nil {
			v = wire.Response(r)
		}
	case opcode.EventData:
		var e *wire.EventData
		e, err = d.DeserializeEventData()
		if err == nil {
			v = wire.Event(e)
		}
	case opcode.Init, opcode.InitResponse, opcode.Message, opcode.RawMessage:
		// No structured body is parsed for these message types in the
		// core decoder (spec.md §4.3); the raw bytes are kept on
		// Message.Raw for callers that want them.
		v = wire.Null
	default:
		log.Log.Warningf("classify: unrecognized message type %#x", code)
		return Message{}, false
	}

	if err != nil {
		log.Log.Errorf("classify: failed to decode %s body: %v (raw=%s)",
			msgType, err, hex.EncodeToString(payload))
		return Message{}, false
	}

	msg.Payload = v
	return msg, true
}
