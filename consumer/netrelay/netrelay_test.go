// ABOUTME: Tests for the pop-encode-broadcast sink
package netrelay

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rivermix/mixqueue/audioqueue"
)

func TestRelayBroadcastsPCMChunks(t *testing.T) {
	ctx := audioqueue.NewContext(audioqueue.SR44100, audioqueue.Mono)
	q := audioqueue.New[int16](ctx, 500)

	relay, err := New(q, ctx, Config{Addr: "127.0.0.1:19401", Codec: "pcm", PopInterval: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := relay.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer relay.Stop()

	time.Sleep(50 * time.Millisecond)

	conn, _, err := websocket.DefaultDialer.Dial("ws://127.0.0.1:19401/mixqueue", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	const frames = 64
	in := make([]int16, frames)
	for i := range in {
		in[i] = int16(i)
	}
	q.Push(ctx, in, frames)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(data) < 9 || data[0] != audioChunkMessageType {
		t.Fatalf("unexpected chunk header: %v", data[:min(len(data), 9)])
	}
}


func TestNewRejectsUnsupportedCodec(t *testing.T) {
	ctx := audioqueue.NewContext(audioqueue.SR44100, audioqueue.Mono)
	q := audioqueue.New[int16](ctx, 500)

	if _, err := New(q, ctx, Config{Addr: "127.0.0.1:19402", Codec: "aac"}); err == nil {
		t.Fatal("expected an error for an unsupported codec")
	}
}
