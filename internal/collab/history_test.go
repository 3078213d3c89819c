package collab

import (
	"fmt"
	"testing"
)

func TestEditHistory_RingDropsOldest(t *testing.T) {
	h := newEditHistory(3)
	for i := 1; i <= 5; i++ {
		h.add(EditRecord{Username: "alice", Content: fmt.Sprintf("v%d", i), Version: int64(i)})
	}

	got := h.records()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []int64{3, 4, 5} {
		if got[i].Version != want {
			t.Errorf("records[%d].Version = %d, want %d", i, got[i].Version, want)
		}
	}
}

func TestEditHistory_PartiallyFilled(t *testing.T) {
	h := newEditHistory(100)
	h.add(EditRecord{Version: 1})
	h.add(EditRecord{Version: 2})

	got := h.records()
	if len(got) != 2 || got[0].Version != 1 || got[1].Version != 2 {
		t.Fatalf("records = %+v, want versions [1 2]", got)
	}
}
