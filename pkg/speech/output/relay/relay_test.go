package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pulseaid/pulseaid/pkg/speech"
)

func closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestSpeakUnboundReturnsUnavailable(t *testing.T) {
	t.Parallel()

	s := New()
	if _, err := s.Speak(context.Background(), "hello"); !errors.Is(err, speech.ErrUnavailable) {
		t.Fatalf("Speak() error = %v, want %v", err, speech.ErrUnavailable)
	}
}

func TestSpeakDeliversAndAckCompletes(t *testing.T) {
	t.Parallel()

	var sent []string
	s := New()
	s.Bind(func(text string) error {
		sent = append(sent, text)
		return nil
	})

	done, err := s.Speak(context.Background(), "What is the patient's age?")
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if len(sent) != 1 || sent[0] != "What is the patient's age?" {
		t.Fatalf("sent = %v, want one utterance", sent)
	}
	if closed(done) {
		t.Fatal("done closed before Ack")
	}

	s.Ack()
	if !closed(done) {
		t.Fatal("done not closed after Ack")
	}
}

func TestSpeakPreemptsPrevious(t *testing.T) {
	t.Parallel()

	s := New()
	s.Bind(func(string) error { return nil })

	first, err := s.Speak(context.Background(), "first")
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	second, err := s.Speak(context.Background(), "second")
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}

	if !closed(first) {
		t.Fatal("first utterance not preempted by second Speak")
	}
	if closed(second) {
		t.Fatal("second utterance closed prematurely")
	}
	s.Cancel()
	if !closed(second) {
		t.Fatal("second utterance not closed by Cancel")
	}
}

func TestSendErrorTreatedAsPreemption(t *testing.T) {
	t.Parallel()

	s := New()
	s.Bind(func(string) error { return errors.New("client gone") })

	done, err := s.Speak(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Speak() error = %v, want nil on send failure", err)
	}
	if !closed(done) {
		t.Fatal("done not closed after failed send")
	}
}

func TestUnbindPreemptsPending(t *testing.T) {
	t.Parallel()

	s := New()
	s.Bind(func(string) error { return nil })
	done, err := s.Speak(context.Background(), "pending")
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}

	s.Unbind()
	if !closed(done) {
		t.Fatal("done not closed on Unbind")
	}
	if _, err := s.Speak(context.Background(), "again"); !errors.Is(err, speech.ErrUnavailable) {
		t.Fatalf("Speak() after Unbind error = %v, want %v", err, speech.ErrUnavailable)
	}
}

func TestContextCancellationClosesDone(t *testing.T) {
	t.Parallel()

	s := New()
	s.Bind(func(string) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done, err := s.Speak(ctx, "slow")
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("done not closed after context cancellation")
	}
}

func TestAckWithoutPendingIsNoop(t *testing.T) {
	t.Parallel()

	s := New()
	s.Ack()
	s.Cancel()
}
