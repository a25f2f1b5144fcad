package conformance

import (
	"bufio"
	"net"
	"testing"

	"github.com/jamzig/jamzig-sub009/codec"
	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/state"
	"github.com/stretchr/testify/require"
)

// fakeTarget mimics just enough of cmd/jamtarget's side of the protocol to
// exercise Session end-to-end: it echoes peer_info, answers initialize
// with a zero root, and answers each import_block with an incrementing
// fake root.
func fakeTarget(t *testing.T, conn net.Conn) {
	t.Helper()
	r := bufio.NewReader(conn)
	var blocks byte

	for {
		frame, err := ReadFrame(r)
		if err != nil {
			return
		}
		tag := Tag(frame[0])
		payload := frame[1:]
		switch tag {
		case TagPeerInfo:
			_, err := decodePeerInfo(codec.NewDecoder(payload))
			require.NoError(t, err)
			require.NoError(t, WriteFrame(conn, EncodePeerInfo(PeerInfo{AppName: "fake-target"})))
		case TagInitialize:
			_, err := decodeInitialize(codec.NewDecoder(payload))
			require.NoError(t, err)
			require.NoError(t, WriteFrame(conn, EncodeStateRoot(crypto.Hash256{})))
		case TagImportBlock:
			_, err := decodeImportBlock(codec.NewDecoder(payload))
			require.NoError(t, err)
			blocks++
			require.NoError(t, WriteFrame(conn, EncodeStateRoot(crypto.Hash256{blocks})))
		case TagGetState:
			require.NoError(t, WriteFrame(conn, EncodeState(nil)))
		default:
			return
		}
	}
}

func TestSessionRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan struct{})
	go func() {
		fakeTarget(t, server)
		close(done)
	}()

	sess := NewSession(client, nil)
	remote, err := sess.Handshake(PeerInfo{AppName: "jamfuzz"})
	require.NoError(t, err)
	require.Equal(t, "fake-target", remote.AppName)

	root, err := sess.SetState(state.Header{}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, crypto.Hash256{}, root)

	blocks := []state.Block{{Header: state.Header{Slot: 1}}, {Header: state.Header{Slot: 2}}}
	n, err := sess.Run(blocks, nil)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, crypto.Hash256{2}, sess.Stats().LastStateRoot)
	require.Equal(t, 2, sess.Stats().BlocksProcessed)

	client.Close()
	<-done
}

func TestSessionRunStopsEarlyOnShouldStop(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan struct{})
	go func() {
		fakeTarget(t, server)
		close(done)
	}()

	sess := NewSession(client, nil)
	_, err := sess.Handshake(PeerInfo{AppName: "jamfuzz"})
	require.NoError(t, err)
	_, err = sess.SetState(state.Header{}, nil, nil)
	require.NoError(t, err)

	blocks := []state.Block{{Header: state.Header{Slot: 1}}, {Header: state.Header{Slot: 2}}}
	calls := 0
	n, err := sess.Run(blocks, func() bool {
		calls++
		return calls > 0
	})
	require.NoError(t, err)
	require.Equal(t, 0, n)

	client.Close()
	<-done
}
