package zflow

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"time"

	"github.com/cespare/xxhash"
)

// MessageKind tags a Message as carrying data or a control signal.
type MessageKind uint8

const (
	// KindData carries a payload and a logical timestamp.
	KindData MessageKind = iota
	// KindControl carries a ControlKind and no payload.
	KindControl
)

// ControlKind enumerates the recognized control message kinds. Unknown
// values are accepted (the set is extensible per spec.md §6) and are
// dropped by the default input rule.
type ControlKind uint8

const (
	// ControlWatermark carries a logical-time watermark.
	ControlWatermark ControlKind = iota
	// ControlRecorderStart toggles an attached recorder on.
	ControlRecorderStart
	// ControlRecorderStop toggles an attached recorder off.
	ControlRecorderStop
)

func (k ControlKind) String() string {
	switch k {
	case ControlWatermark:
		return "watermark"
	case ControlRecorderStart:
		return "recorder_start"
	case ControlRecorderStop:
		return "recorder_stop"
	default:
		return "unknown"
	}
}

// Message is the immutable envelope that traverses Links. Once enqueued a
// Message is never mutated; it is shared by reference among every
// receiver of a fan-out link.
type Message struct {
	// ID is a content-addressed identifier computed over Payload. Zero
	// for control messages or data messages with an empty payload.
	ID uint64

	Kind MessageKind

	// Data fields, valid when Kind == KindData.
	Payload   []byte
	Timestamp time.Time

	// Control fields, valid when Kind == KindControl.
	Control        ControlKind
	ControlPayload time.Time // e.g. the watermark timestamp
}

// NewDataMessage builds a data Message, hashing the payload into an ID the
// same way the teacher's Record.ID is derived in record.go.
func NewDataMessage(payload []byte, ts time.Time) Message {
	msg := Message{
		Kind:      KindData,
		Payload:   payload,
		Timestamp: ts,
	}
	if len(payload) > 0 {
		msg.ID = xxhash.Sum64(payload)
	}
	return msg
}

// NewControlMessage builds a control Message of the given kind.
func NewControlMessage(kind ControlKind) Message {
	return Message{Kind: KindControl, Control: kind}
}

// NewWatermark builds a Watermark control message carrying ts.
func NewWatermark(ts time.Time) Message {
	return Message{Kind: KindControl, Control: ControlWatermark, ControlPayload: ts}
}

// IsData reports whether this message carries a payload.
func (m Message) IsData() bool {
	return m.Kind == KindData
}

// IsControl reports whether this message carries a control signal.
func (m Message) IsControl() bool {
	return m.Kind == KindControl
}
