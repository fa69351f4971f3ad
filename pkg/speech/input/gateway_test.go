package input_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/pulseaid/pulseaid/pkg/speech"
	"github.com/pulseaid/pulseaid/pkg/speech/input"
	"github.com/pulseaid/pulseaid/pkg/speech/input/mock"
)

func TestGatewayDelegatesStart(t *testing.T) {
	t.Parallel()

	rec := &mock.Recognizer{}
	gw := input.NewGateway(rec)

	cfg := input.StreamConfig{SampleRate: 16000, Channels: 1, Language: "en-US"}
	st, err := gw.Start(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if st == nil {
		t.Fatal("Start() returned nil stream")
	}
	if len(rec.StartCalls) != 1 || rec.StartCalls[0].Cfg != cfg {
		t.Errorf("StartCalls = %+v, want one call with %+v", rec.StartCalls, cfg)
	}
}

func TestGatewayStartErrorPassesThrough(t *testing.T) {
	t.Parallel()

	rec := &mock.Recognizer{StartErr: speech.ErrUnavailable}
	gw := input.NewGateway(rec)

	if _, err := gw.Start(context.Background(), input.StreamConfig{}); err != speech.ErrUnavailable {
		t.Errorf("Start() error = %v, want ErrUnavailable", err)
	}
	if gw.PushAudio([]byte{1}) {
		t.Error("PushAudio() = true after failed Start")
	}
}

func TestGatewayPushAudioTargetsCurrentWindow(t *testing.T) {
	t.Parallel()

	rec := &mock.Recognizer{}
	gw := input.NewGateway(rec)

	if gw.PushAudio([]byte{1, 2}) {
		t.Fatal("PushAudio() = true before any window opened")
	}

	if _, err := gw.Start(context.Background(), input.StreamConfig{}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	chunk := []byte{0x01, 0x02, 0x03}
	if !gw.PushAudio(chunk) {
		t.Fatal("PushAudio() = false for live window")
	}

	st := rec.Streams()[0].(*mock.Stream)
	if len(st.SendAudioCalls) != 1 || !bytes.Equal(st.SendAudioCalls[0], chunk) {
		t.Errorf("SendAudioCalls = %v, want [%v]", st.SendAudioCalls, chunk)
	}
}

func TestGatewayRejectsAudioAfterWindowStops(t *testing.T) {
	t.Parallel()

	rec := &mock.Recognizer{}
	gw := input.NewGateway(rec)

	st, err := gw.Start(context.Background(), input.StreamConfig{})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := st.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if gw.PushAudio([]byte{1}) {
		t.Error("PushAudio() = true after Stop; stale audio would leak")
	}
}

func TestGatewayNewWindowSupersedesOld(t *testing.T) {
	t.Parallel()

	rec := &mock.Recognizer{}
	gw := input.NewGateway(rec)

	first, err := gw.Start(context.Background(), input.StreamConfig{})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := first.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if _, err := gw.Start(context.Background(), input.StreamConfig{}); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	if !gw.PushAudio([]byte{7}) {
		t.Fatal("PushAudio() = false for fresh window")
	}
	second := rec.Streams()[1].(*mock.Stream)
	if len(second.SendAudioCalls) != 1 {
		t.Errorf("second window got %d chunks, want 1", len(second.SendAudioCalls))
	}
	firstMock := rec.Streams()[0].(*mock.Stream)
	if len(firstMock.SendAudioCalls) != 0 {
		t.Errorf("stopped window got %d chunks, want 0", len(firstMock.SendAudioCalls))
	}
}
