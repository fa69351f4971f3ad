package tracker

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	tr := New(Config{}, nil)
	snap := tr.Snapshot()
	if snap.Ambulance.Address != "Jubilee Hills, Hyderabad" {
		t.Errorf("origin = %q", snap.Ambulance.Address)
	}
	if snap.Hospital.Address != "Apollo Hospital, Hyderabad" {
		t.Errorf("destination = %q", snap.Hospital.Address)
	}
	if snap.ETAMinutes != 8 || snap.DistanceKM != 4.2 {
		t.Errorf("initial ETA/distance = %v/%v", snap.ETAMinutes, snap.DistanceKM)
	}
	if snap.Arrived {
		t.Error("arrived at start")
	}
}

func TestStepDecaysAndWanders(t *testing.T) {
	t.Parallel()

	tr := New(Config{Seed: 1}, nil)
	before := tr.Snapshot()
	tr.step()
	after := tr.Snapshot()

	if after.ETAMinutes >= before.ETAMinutes {
		t.Errorf("ETA did not decay: %v -> %v", before.ETAMinutes, after.ETAMinutes)
	}
	if after.DistanceKM >= before.DistanceKM {
		t.Errorf("distance did not decay: %v -> %v", before.DistanceKM, after.DistanceKM)
	}
	if after.Ambulance.Lat == before.Ambulance.Lat && after.Ambulance.Lng == before.Ambulance.Lng {
		t.Error("position did not move")
	}
	// The wander stays within the jitter amplitude.
	if math.Abs(after.Ambulance.Lat-before.Ambulance.Lat) > 0.0005 {
		t.Errorf("lat moved %v, beyond jitter", after.Ambulance.Lat-before.Ambulance.Lat)
	}
	// The hospital never moves.
	if after.Hospital != before.Hospital {
		t.Error("hospital location changed")
	}
}

func TestFloorsAtZeroAndArrives(t *testing.T) {
	t.Parallel()

	tr := New(Config{Seed: 1, InitialETA: 0.25, InitialDistance: 0.12}, nil)
	for range 10 {
		tr.step()
	}
	snap := tr.Snapshot()
	if snap.ETAMinutes != 0 {
		t.Errorf("ETA = %v, want floor at 0", snap.ETAMinutes)
	}
	if snap.DistanceKM != 0 {
		t.Errorf("distance = %v, want floor at 0", snap.DistanceKM)
	}
	if !snap.Arrived {
		t.Error("not marked arrived at zero ETA and distance")
	}
}

func TestDeterministicWithSeed(t *testing.T) {
	t.Parallel()

	a := New(Config{Seed: 42}, nil)
	b := New(Config{Seed: 42}, nil)
	for range 5 {
		a.step()
		b.step()
	}
	sa, sb := a.Snapshot(), b.Snapshot()
	if sa.Ambulance.Lat != sb.Ambulance.Lat || sa.Ambulance.Lng != sb.Ambulance.Lng {
		t.Error("same seed produced different walks")
	}
}

func TestSubscribeReceivesTicks(t *testing.T) {
	t.Parallel()

	tr := New(Config{Seed: 1, Tick: 10 * time.Millisecond}, nil)
	ch, cancel := tr.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() { _ = tr.Run(ctx) }()

	select {
	case u := <-ch:
		if u.ETAMinutes >= 8 {
			t.Errorf("first update ETA = %v, want decayed", u.ETAMinutes)
		}
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	tr := New(Config{Seed: 1}, nil)
	ch, cancel := tr.Subscribe()
	cancel()
	cancel() // idempotent

	if _, ok := <-ch; ok {
		t.Error("channel not closed after unsubscribe")
	}

	// A stopped subscriber never blocks the simulation.
	tr.step()
}

func TestRunStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	tr := New(Config{Seed: 1, Tick: 5 * time.Millisecond}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop on cancellation")
	}
}
