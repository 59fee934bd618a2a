package notifier

import (
	"errors"
	"testing"

	"github.com/tkaraxa/sibyl/internal/core"
)

type mockNotifier struct {
	name       string
	sendCalled int
	batchCalls int
	shouldFail bool
}

func (m *mockNotifier) Name() string { return m.name }

func (m *mockNotifier) Init(cfg Config) error { return nil }

func (m *mockNotifier) Send(alert Alert) error {
	m.sendCalled++
	if m.shouldFail {
		return errors.New("send failed")
	}
	return nil
}

func (m *mockNotifier) SendBatch(alerts []Alert) error {
	m.batchCalls++
	if m.shouldFail {
		return errors.New("batch send failed")
	}
	return nil
}

func testAlert() Alert {
	return Alert{
		Asset: "bitcoin",
		Recommendation: core.Recommendation{
			Action:     core.ActionBuy,
			Confidence: 80,
		},
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	mock := &mockNotifier{name: "test"}
	err := r.Register(mock)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Duplicate registration should fail
	err = r.Register(mock)
	if err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	mock := &mockNotifier{name: "test"}
	r.Register(mock)

	got, err := r.Get("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name() != "test" {
		t.Errorf("expected 'test', got '%s'", got.Name())
	}

	_, err = r.Get("missing")
	if err == nil {
		t.Error("expected error for missing notifier")
	}
}

func TestRegistry_NotifyAll(t *testing.T) {
	r := NewRegistry()
	first := &mockNotifier{name: "first"}
	second := &mockNotifier{name: "second", shouldFail: true}
	r.Register(first)
	r.Register(second)

	errs := r.NotifyAll(testAlert())

	if first.sendCalled != 1 {
		t.Errorf("first.sendCalled = %d, want 1", first.sendCalled)
	}
	if second.sendCalled != 1 {
		t.Errorf("second.sendCalled = %d, want 1", second.sendCalled)
	}
	if len(errs) != 1 {
		t.Errorf("expected 1 error, got %d", len(errs))
	}
	if _, ok := errs["second"]; !ok {
		t.Error("expected error keyed by failing notifier name")
	}
}

func TestRegistry_NotifyAllBatch(t *testing.T) {
	r := NewRegistry()
	mock := &mockNotifier{name: "test"}
	r.Register(mock)

	errs := r.NotifyAllBatch([]Alert{testAlert(), testAlert()})
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
	if mock.batchCalls != 1 {
		t.Errorf("batchCalls = %d, want 1", mock.batchCalls)
	}
}

func TestRegistry_GetAll(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockNotifier{name: "a"})
	r.Register(&mockNotifier{name: "b"})

	if got := len(r.GetAll()); got != 2 {
		t.Errorf("GetAll() returned %d notifiers, want 2", got)
	}
}
