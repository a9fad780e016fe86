package pushchan

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePacket(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Packet
		wantErr bool
	}{
		{name: "connect reply", in: `0{"sid":"abc"}`, want: Packet{Type: PacketConnect, AckID: -1, Data: json.RawMessage(`{"sid":"abc"}`)}},
		{name: "bare connect", in: `0`, want: Packet{Type: PacketConnect, AckID: -1}},
		{name: "event", in: `2["new_block",{"hash":"h1"}]`, want: Packet{Type: PacketEvent, AckID: -1, Data: json.RawMessage(`["new_block",{"hash":"h1"}]`)}},
		{name: "ack id", in: `27["x"]`, want: Packet{Type: PacketEvent, AckID: 7, Data: json.RawMessage(`["x"]`)}},
		{name: "namespace", in: `2/admin,["x",1]`, want: Packet{Type: PacketEvent, Namespace: "/admin", AckID: -1, Data: json.RawMessage(`["x",1]`)}},
		{name: "namespace and ack", in: `2/admin,13["x"]`, want: Packet{Type: PacketEvent, Namespace: "/admin", AckID: 13, Data: json.RawMessage(`["x"]`)}},
		{name: "namespace only", in: `0/admin,`, want: Packet{Type: PacketConnect, Namespace: "/admin", AckID: -1}},
		{name: "root namespace", in: `1/,`, want: Packet{Type: PacketDisconnect, AckID: -1}},
		{name: "binary event", in: `51-["up",{"_placeholder":true,"num":0}]`, want: Packet{Type: PacketBinaryEvent, AckID: -1, Data: json.RawMessage(`["up",{"_placeholder":true,"num":0}]`)}},
		{name: "binary without count", in: `5["up"]`, wantErr: true},
		{name: "empty", in: ``, wantErr: true},
		{name: "bad type", in: `9[]`, wantErr: true},
		{name: "bad json", in: `2["x"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePacket([]byte(tt.in))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPacketEncode(t *testing.T) {
	tests := []struct {
		name string
		p    Packet
		want string
	}{
		{name: "connect", p: Packet{Type: PacketConnect, AckID: -1}, want: "40"},
		{name: "connect namespace", p: Packet{Type: PacketConnect, Namespace: "/admin", AckID: -1}, want: "40/admin,"},
		{name: "root namespace", p: Packet{Type: PacketConnect, Namespace: "/", AckID: -1}, want: "40"},
		{name: "ack", p: Packet{Type: PacketAck, AckID: 3, Data: json.RawMessage(`[]`)}, want: "433[]"},
		{name: "event", p: Packet{Type: PacketEvent, AckID: -1, Data: json.RawMessage(`["a",1]`)}, want: `42["a",1]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(tt.p.Encode()))
		})
	}
}

func TestPacketEvent(t *testing.T) {
	p, err := EventPacket("", "new_block", map[string]string{"hash": "h1"})
	require.NoError(t, err)

	name, arg, err := p.Event()
	require.NoError(t, err)
	assert.Equal(t, "new_block", name)
	assert.JSONEq(t, `{"hash":"h1"}`, string(arg))

	p = Packet{Type: PacketEvent, AckID: -1, Data: json.RawMessage(`["ping"]`)}
	name, arg, err = p.Event()
	require.NoError(t, err)
	assert.Equal(t, "ping", name)
	assert.Nil(t, arg)

	for _, data := range []string{`[]`, `{"a":1}`, `[1,2]`} {
		p = Packet{Type: PacketEvent, AckID: -1, Data: json.RawMessage(data)}
		_, _, err = p.Event()
		assert.ErrorIs(t, err, ErrBadEvent, data)
	}

	_, _, err = Packet{Type: PacketConnect}.Event()
	assert.ErrorIs(t, err, ErrBadEvent)
}

func TestSplitFrameAndHandshake(t *testing.T) {
	typ, payload, err := splitFrame([]byte(`0{"sid":"s","upgrades":[],"pingInterval":25000,"pingTimeout":20000,"maxPayload":1000000}`))
	require.NoError(t, err)
	assert.Equal(t, eioOpen, typ)

	hs, err := parseHandshake(payload)
	require.NoError(t, err)
	assert.Equal(t, "s", hs.SID)
	assert.Equal(t, 45*time.Second, hs.readTimeout())

	_, err = parseHandshake([]byte(`{"sid":"s"}`))
	assert.Error(t, err)

	_, _, err = splitFrame(nil)
	assert.ErrorIs(t, err, ErrEmptyFrame)

	_, _, err = splitFrame([]byte("x"))
	assert.ErrorIs(t, err, ErrBadPacketType)
}

func TestConnectError(t *testing.T) {
	err := connectError(Packet{Type: PacketConnectError, Data: json.RawMessage(`{"message":"not authorized"}`)})
	require.ErrorIs(t, err, ErrConnectRefused)
	assert.Contains(t, err.Error(), "not authorized")

	assert.ErrorIs(t, connectError(Packet{Type: PacketConnectError}), ErrConnectRefused)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "connecting", Connecting.String())
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "unknown", State(42).String())
}
