package pushchan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Engine.IO packet types, sent as the first character of a frame.
const (
	eioOpen    byte = '0'
	eioClose   byte = '1'
	eioPing    byte = '2'
	eioPong    byte = '3'
	eioMessage byte = '4'
	eioUpgrade byte = '5'
	eioNoop    byte = '6'
)

// Socket.IO packet types, carried inside an Engine.IO message.
const (
	PacketConnect      byte = '0'
	PacketDisconnect   byte = '1'
	PacketEvent        byte = '2'
	PacketAck          byte = '3'
	PacketConnectError byte = '4'
	PacketBinaryEvent  byte = '5'
	PacketBinaryAck    byte = '6'
)

var (
	ErrEmptyFrame    = errors.New("empty frame")
	ErrBadPacketType = errors.New("unknown packet type")
	ErrBadEvent      = errors.New("malformed event payload")
)

// handshake is the payload of the Engine.IO open packet. Intervals are in
// milliseconds.
type handshake struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int64    `json:"pingInterval"`
	PingTimeout  int64    `json:"pingTimeout"`
	MaxPayload   int64    `json:"maxPayload"`
}

// readTimeout is how long the client waits for any frame before it
// considers the server gone.
func (h handshake) readTimeout() time.Duration {
	return time.Duration(h.PingInterval+h.PingTimeout) * time.Millisecond
}

// splitFrame separates the Engine.IO type from its payload.
func splitFrame(frame []byte) (byte, []byte, error) {
	if len(frame) == 0 {
		return 0, nil, ErrEmptyFrame
	}
	t := frame[0]
	if t < eioOpen || t > eioNoop {
		return 0, nil, fmt.Errorf("%w: engine.io %q", ErrBadPacketType, t)
	}
	return t, frame[1:], nil
}

func parseHandshake(payload []byte) (handshake, error) {
	var h handshake
	if err := json.Unmarshal(payload, &h); err != nil {
		return h, fmt.Errorf("decode open packet: %w", err)
	}
	if h.PingInterval <= 0 || h.PingTimeout <= 0 {
		return h, fmt.Errorf("open packet without ping settings: %s", payload)
	}
	return h, nil
}

// Packet is one Socket.IO packet. Namespace "" means the main namespace "/".
type Packet struct {
	Type      byte
	Namespace string
	// AckID is -1 when the packet carries no acknowledgement id.
	AckID int64
	Data  json.RawMessage
}

// DecodePacket parses a Socket.IO packet (the payload of an Engine.IO
// message), e.g. `2["new_block",{...}]` or `0/admin,{"sid":"x"}`.
func DecodePacket(b []byte) (Packet, error) {
	p := Packet{AckID: -1}
	if len(b) == 0 {
		return p, ErrEmptyFrame
	}

	p.Type = b[0]
	if p.Type < PacketConnect || p.Type > PacketBinaryAck {
		return p, fmt.Errorf("%w: socket.io %q", ErrBadPacketType, p.Type)
	}
	rest := b[1:]

	// binary packets announce their attachment count: "<n>-"
	if p.Type == PacketBinaryEvent || p.Type == PacketBinaryAck {
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i == 0 || i >= len(rest) || rest[i] != '-' {
			return p, fmt.Errorf("%w: missing attachment count", ErrBadEvent)
		}
		rest = rest[i+1:]
	}

	if len(rest) > 0 && rest[0] == '/' {
		end := 0
		for end < len(rest) && rest[end] != ',' {
			end++
		}
		p.Namespace = string(rest[:end])
		if p.Namespace == "/" {
			p.Namespace = ""
		}
		if end < len(rest) {
			end++
		}
		rest = rest[end:]
	}

	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i > 0 {
		id, err := strconv.ParseInt(string(rest[:i]), 10, 64)
		if err != nil {
			return p, fmt.Errorf("ack id: %w", err)
		}
		p.AckID = id
		rest = rest[i:]
	}

	if len(rest) > 0 {
		if !json.Valid(rest) {
			return p, fmt.Errorf("%w: %s", ErrBadEvent, rest)
		}
		p.Data = json.RawMessage(rest)
	}
	return p, nil
}

// Encode renders p as an Engine.IO message frame ("4" + Socket.IO packet).
func (p Packet) Encode() []byte {
	out := []byte{eioMessage, p.Type}
	if p.Namespace != "" && p.Namespace != "/" {
		out = append(out, p.Namespace...)
		out = append(out, ',')
	}
	if p.AckID >= 0 {
		out = strconv.AppendInt(out, p.AckID, 10)
	}
	out = append(out, p.Data...)
	return out
}

// Event splits an EVENT payload `["name", arg]` into its name and first
// argument. The argument is nil when the event carries none.
func (p Packet) Event() (string, json.RawMessage, error) {
	if p.Type != PacketEvent {
		return "", nil, fmt.Errorf("%w: packet type %q is not an event", ErrBadEvent, p.Type)
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(p.Data, &parts); err != nil || len(parts) == 0 {
		return "", nil, fmt.Errorf("%w: %s", ErrBadEvent, p.Data)
	}
	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return "", nil, fmt.Errorf("%w: event name: %v", ErrBadEvent, err)
	}
	if len(parts) == 1 {
		return name, nil, nil
	}
	return name, parts[1], nil
}

// EventPacket builds an EVENT packet; useful for servers in tests and for
// emitting from the client.
func EventPacket(namespace, name string, arg any) (Packet, error) {
	data, err := json.Marshal([]any{name, arg})
	if err != nil {
		return Packet{}, err
	}
	return Packet{Type: PacketEvent, Namespace: namespace, AckID: -1, Data: data}, nil
}

// connectError extracts the message of a CONNECT_ERROR packet.
func connectError(p Packet) error {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(p.Data, &body); err == nil && body.Message != "" {
		return fmt.Errorf("%w: %s", ErrConnectRefused, body.Message)
	}
	return ErrConnectRefused
}
