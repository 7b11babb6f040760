package env

import (
	"fmt"
	"testing"
)

func TestNextPrime(t *testing.T) {
	tests := []struct {
		x    int
		want int
	}{
		{0, 23},
		{23, 53},
		{22, 23},
		{3145739, 3145739}, // top of the ladder: nothing larger, clamp to the top entry
	}
	for _, tc := range tests {
		if got := nextPrime(tc.x); got != tc.want {
			t.Errorf("nextPrime(%d) = %d, want %d", tc.x, got, tc.want)
		}
	}
}

func TestTablePutFindRemove(t *testing.T) {
	tb := newTable()

	if changed := tb.put("x", entry{kind: entryConstant, constant: 1}); !changed {
		t.Fatal("first put should report a change")
	}
	if n := tb.find("x"); n == nil || n.value.constant != 1 {
		t.Fatal("find did not return the inserted entry")
	}

	if changed := tb.put("x", entry{kind: entryConstant, constant: 1}); changed {
		t.Error("re-putting an identical binding should be a no-op")
	}

	if changed := tb.put("x", entry{kind: entryConstant, constant: 2}); !changed {
		t.Error("putting a different value for the same name should report a change")
	}

	if !tb.remove("x") {
		t.Fatal("remove should report success for an existing key")
	}
	if tb.find("x") != nil {
		t.Fatal("find should return nil after remove")
	}
	if tb.remove("x") {
		t.Error("remove should report failure for a missing key")
	}
}

// TestTableGrows exercises the 85% load-factor grow threshold across
// the prime ladder by inserting enough distinct keys to force several
// rehashes, then checks every key is still reachable.
func TestTableGrows(t *testing.T) {
	tb := newTable()

	const n = 200
	for i := 0; i < n; i++ {
		tb.put(fmt.Sprintf("sym%d", i), entry{kind: entryConstant, constant: float32(i)})
	}

	if len(tb.buckets) <= 1 {
		t.Fatalf("table did not grow past its initial single bucket: %d buckets for %d elements", len(tb.buckets), n)
	}

	for i := 0; i < n; i++ {
		name := fmt.Sprintf("sym%d", i)
		node := tb.find(name)
		if node == nil || node.value.constant != float32(i) {
			t.Fatalf("find(%s) failed after growth", name)
		}
	}
}

func TestTableCloneIsDeepCopy(t *testing.T) {
	tb := newTable()
	tb.put("x", entry{kind: entryConstant, constant: 1})

	clone := tb.clone()
	clone.put("y", entry{kind: entryConstant, constant: 2})

	if tb.find("y") != nil {
		t.Fatal("clone mutation leaked into original table")
	}
	if clone.find("x") == nil {
		t.Fatal("clone should retain the original's entries")
	}
}

func TestTableClear(t *testing.T) {
	tb := newTable()
	tb.put("x", entry{kind: entryConstant, constant: 1})
	tb.clear()

	if tb.elements != 0 || tb.find("x") != nil {
		t.Fatal("clear did not reset the table")
	}
}
