package mru

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kobzarvs/tabshift/internal/tabs"
)

func TestRecordOrdersMostRecentFirst(t *testing.T) {
	tr := New(4)
	for _, id := range []tabs.TabID{1, 2, 3, 2} {
		tr.Record(id)
	}
	if diff := cmp.Diff([]tabs.TabID{2, 3, 1}, tr.Recent()); diff != "" {
		t.Fatalf("Recent mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordEvictsOldest(t *testing.T) {
	tr := New(2)
	tr.Record(1)
	tr.Record(2)
	tr.Record(3)
	if diff := cmp.Diff([]tabs.TabID{3, 2}, tr.Recent()); diff != "" {
		t.Fatalf("Recent mismatch (-want +got):\n%s", diff)
	}
}

func TestPreviousAndRemove(t *testing.T) {
	tr := New(8)
	if _, ok := tr.Previous(1); ok {
		t.Fatalf("Previous on empty tracker reported a tab")
	}
	tr.Record(1)
	tr.Record(2)
	if got, ok := tr.Previous(2); !ok || got != 1 {
		t.Fatalf("Previous(2) = %d, %t, want 1, true", got, ok)
	}
	if got, ok := tr.Previous(7); !ok || got != 2 {
		t.Fatalf("Previous(7) = %d, %t, want 2, true", got, ok)
	}
	tr.Remove(1)
	if _, ok := tr.Previous(2); ok {
		t.Fatalf("Previous(2) after Remove(1) reported a tab")
	}
}

func TestRecentIsACopy(t *testing.T) {
	tr := New(3)
	tr.Record(1)
	got := tr.Recent()
	got[0] = 99
	if tr.Recent()[0] != 1 {
		t.Fatalf("Recent exposed internal state")
	}
}

func TestConcurrentRecord(t *testing.T) {
	tr := New(16)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.Record(tabs.TabID(base*100 + j%10))
			}
		}(i)
	}
	wg.Wait()
	if n := len(tr.Recent()); n != 16 {
		t.Fatalf("len(Recent) = %d, want 16", n)
	}
}
