package strings

import "testing"

func TestDeref(t *testing.T) {
	t.Parallel()
	if Deref(nil) != "" {
		t.Fatal("nil should deref to empty")
	}
	v := "x"
	if Deref(&v) != "x" {
		t.Fatal("pointer value lost")
	}
}

func TestPtrRoundTrip(t *testing.T) {
	t.Parallel()
	if Ptr("") != nil {
		t.Fatal("empty string should give nil pointer")
	}
	if got := Ptr("abc"); got == nil || *got != "abc" {
		t.Fatalf("unexpected %v", got)
	}
}
