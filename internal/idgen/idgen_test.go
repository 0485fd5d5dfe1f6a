package idgen

import "testing"

func TestNextStartsAtOne(t *testing.T) {
	a := New()
	for want := 1; want <= 5; want++ {
		if got := a.Next(); got != want {
			t.Fatalf("Next: got %d, want %d", got, want)
		}
	}
}

func TestAdvanceTo(t *testing.T) {
	a := New()
	a.AdvanceTo(10)
	if got := a.Next(); got != 10 {
		t.Fatalf("Next after AdvanceTo(10): got %d, want 10", got)
	}

	// Advancing backwards never reissues ids.
	a.AdvanceTo(3)
	if got := a.Next(); got != 11 {
		t.Fatalf("Next after backwards AdvanceTo: got %d, want 11", got)
	}
}
