// ABOUTME: Tests for the websocket-receive-and-push producer
package netreceiver

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rivermix/mixqueue/audioqueue"
)

func TestReceiverPushesIncomingChunks(t *testing.T) {
	ctx := audioqueue.NewContext(audioqueue.SR44100, audioqueue.Mono)
	q := audioqueue.New[int16](ctx, 500)

	r := New(q, ctx, Config{Addr: "127.0.0.1:19301", Name: "test"})
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	time.Sleep(50 * time.Millisecond)

	conn, _, err := websocket.DefaultDialer.Dial("ws://127.0.0.1:19301/mixqueue", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	const frames = 32
	payload := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint16(payload[i*2:], uint16(int16(i*10)))
	}
	chunk := make([]byte, 1+8+len(payload))
	chunk[0] = audioChunkMessageType
	copy(chunk[9:], payload)

	if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	out := make([]int16, frames)
	for time.Now().Before(deadline) {
		if q.Pop(ctx, out, frames) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for the pushed chunk to reach the queue")
}

func TestReceiverNameDefaultsWhenEmpty(t *testing.T) {
	ctx := audioqueue.NewContext(audioqueue.SR44100, audioqueue.Stereo)
	q := audioqueue.New[int16](ctx, 500)
	r := New(q, ctx, Config{Addr: "127.0.0.1:19302"})
	if r.Name() == "" {
		t.Error("expected a default name to be generated")
	}
}
