package token

import "testing"

func TestReleaseFiresAtZero(t *testing.T) {
	fired := 0
	tok := New(KindLoad, func() { fired++ })
	tok.AddRef(2) // two commands submitted, plus the implicit creation ref
	tok.Release("cmd-1")
	if fired != 0 {
		t.Fatalf("fired early: %d", fired)
	}
	tok.Release("cmd-2")
	if fired != 0 {
		t.Fatalf("fired early: %d", fired)
	}
	tok.Release("creation")
	if fired != 1 {
		t.Fatalf("expected exactly one OnDone invocation, got %d", fired)
	}
}

func TestReleaseFiresExactlyOnce(t *testing.T) {
	fired := 0
	tok := New(KindMapping, func() { fired++ })
	tok.Release("only-ref")
	if fired != 1 {
		t.Fatalf("expected 1, got %d", fired)
	}
}

func TestReleaseUnderflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on over-release")
		}
	}()
	tok := New(KindStream, func() {})
	tok.Release("first")
	tok.Release("second") // no more refs outstanding
}

func TestAssertMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on kind mismatch")
		}
	}()
	tok := New(KindSlots, func() {})
	Assert(tok, KindLoad)
}

func TestAssertMatchDoesNotPanic(t *testing.T) {
	tok := New(KindLoad, func() {})
	Assert(tok, KindLoad)
}

func TestOnlyLoadTokensGetACorrelationID(t *testing.T) {
	load := New(KindLoad, func() {})
	if load.ID == "" {
		t.Fatal("expected a Load token to have a non-empty ID")
	}

	mapping := New(KindMapping, func() {})
	if mapping.ID != "" {
		t.Fatalf("expected a non-Load token to have no ID, got %q", mapping.ID)
	}
}
