package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// mockFunc tracks calls and returns configured results
type mockFunc struct {
	calls  int
	result string
	err    error
}

func (m *mockFunc) call(_ context.Context, args Args) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return fmt.Sprintf("%s%v", m.result, args.Positional), nil
}

func newTestMemo(t *testing.T, fn MemoFunc[string], keyer Keyer) *Memo[string] {
	t.Helper()
	store, err := New[string, string](Config{Capacity: 2, TTL: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	m, err := NewMemo("fn", fn, store, keyer)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestMemo_CacheHit(t *testing.T) {
	f := &mockFunc{result: "r"}
	m := newTestMemo(t, f.call, nil)
	ctx := context.Background()

	first, err := m.Call(ctx, P(5, 10))
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := m.Call(ctx, P(5, 10))
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if f.calls != 1 {
		t.Errorf("expected fn to run once, got %d calls", f.calls)
	}
	if first != second || first != "r[5 10]" {
		t.Errorf("unexpected results: %q, %q", first, second)
	}
}

func TestMemo_NamedOrderSharesEntry(t *testing.T) {
	f := &mockFunc{result: "r"}
	m := newTestMemo(t, f.call, nil)
	ctx := context.Background()

	if _, err := m.Call(ctx, P(1).With("x", 1).With("y", 2)); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Call(ctx, P(1).With("y", 2).With("x", 1)); err != nil {
		t.Fatal(err)
	}

	if f.calls != 1 {
		t.Errorf("equivalent calls should share an entry, got %d calls", f.calls)
	}
}

func TestMemo_ErrorsNotCached(t *testing.T) {
	boom := errors.New("boom")
	f := &mockFunc{err: boom}
	m := newTestMemo(t, f.call, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := m.Call(ctx, P(1)); !errors.Is(err, boom) {
			t.Fatalf("call %d error = %v, want boom", i, err)
		}
	}
	if f.calls != 2 {
		t.Errorf("failed calls should not be cached, got %d calls", f.calls)
	}
	if m.Cache().Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Cache().Len())
	}
}

type failingKeyer struct{}

func (failingKeyer) Key(string, Args) (string, error) { return "", errors.New("no key") }

func TestMemo_KeyerFailureBypassesCache(t *testing.T) {
	f := &mockFunc{result: "r"}
	m := newTestMemo(t, f.call, failingKeyer{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := m.Call(ctx, P(1)); err != nil {
			t.Fatal(err)
		}
	}
	if f.calls != 3 {
		t.Errorf("calls = %d, want 3 when no key can be derived", f.calls)
	}
}

type fixedKeyer string

func (k fixedKeyer) Key(string, Args) (string, error) { return string(k), nil }

func TestMemo_InvalidKeyBypassesCache(t *testing.T) {
	f := &mockFunc{result: "r"}
	m := newTestMemo(t, f.call, fixedKeyer("bad\nkey"))

	_, _ = m.Call(context.Background(), P(1))
	_, _ = m.Call(context.Background(), P(1))
	if f.calls != 2 {
		t.Errorf("calls = %d, want 2", f.calls)
	}
	if _, err := m.Key(P(1)); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Key() error = %v, want ErrInvalidKey", err)
	}
}

func TestMemo_LRUEvictionAcrossArguments(t *testing.T) {
	f := &mockFunc{result: "r"}
	m := newTestMemo(t, f.call, nil) // capacity 2
	ctx := context.Background()

	for _, n := range []int{1, 2, 3, 1} {
		if _, err := m.Call(ctx, P(n)); err != nil {
			t.Fatal(err)
		}
	}
	if f.calls != 4 {
		t.Errorf("calls = %d, want 4 (argument 1 evicted by 3)", f.calls)
	}
}

func TestNewMemo_Validation(t *testing.T) {
	store, _ := New[string, string](DefaultConfig())
	fn := func(context.Context, Args) (string, error) { return "", nil }

	if _, err := NewMemo[string]("fn", fn, nil, nil); !errors.Is(err, ErrNilCache) {
		t.Errorf("nil store error = %v, want ErrNilCache", err)
	}
	if _, err := NewMemo[string]("fn", nil, store, nil); !errors.Is(err, ErrNilCompute) {
		t.Errorf("nil fn error = %v, want ErrNilCompute", err)
	}

	m, err := NewMemo("square", fn, store, nil)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name() != "square" {
		t.Errorf("Name() = %q", m.Name())
	}
	if _, ok := m.keyer.(*DefaultKeyer); !ok {
		t.Errorf("default keyer = %T, want *DefaultKeyer", m.keyer)
	}
}
