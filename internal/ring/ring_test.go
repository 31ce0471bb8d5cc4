package ring_test

import (
	"slices"
	"testing"

	"github.com/djdv/go-bcache/internal/ring"
)

func TestLinks(t *testing.T) {
	t.Run("empty", empty)
	t.Run("push front", pushFront)
	t.Run("move between lists", moveBetween)
	t.Run("unlink", unlink)
}

func empty(t *testing.T) {
	t.Parallel()
	links := ring.New(4, 2)
	for h := range 2 {
		checkMembers(t, links, h, nil)
	}
	for i := range 4 {
		if links.Linked(i) {
			t.Fatalf("member %d should start unlinked", i)
		}
	}
	if links.IsHead(3) || !links.IsHead(links.Head(0)) {
		t.Fatal("head/member index ranges overlap")
	}
}

func pushFront(t *testing.T) {
	t.Parallel()
	links := ring.New(3, 1)
	for i := range 3 {
		links.PushFront(0, i)
	}
	checkMembers(t, links, 0, []int{2, 1, 0})
	if got := links.Prev(links.Head(0)); got != 0 {
		t.Fatalf("expected tail 0, got %d", got)
	}
}

func moveBetween(t *testing.T) {
	t.Parallel()
	links := ring.New(4, 2)
	for i := range 4 {
		links.PushFront(0, i)
	}
	links.Move(1, 2)
	links.Move(1, 0)
	checkMembers(t, links, 0, []int{3, 1})
	checkMembers(t, links, 1, []int{0, 2})
	// Moving within the same list puts the member at the front.
	links.Move(1, 2)
	checkMembers(t, links, 1, []int{2, 0})
}

func unlink(t *testing.T) {
	t.Parallel()
	links := ring.New(3, 1)
	for i := range 3 {
		links.PushFront(0, i)
	}
	links.Unlink(1)
	if links.Linked(1) {
		t.Fatal("member 1 still linked after Unlink")
	}
	checkMembers(t, links, 0, []int{2, 0})
	if links.Len(0) != 2 {
		t.Fatalf("expected length 2, got %d", links.Len(0))
	}
}

func checkMembers(tb testing.TB, links *ring.Links, h int, want []int) {
	tb.Helper()
	got := slices.Collect(links.Members(h))
	if slices.Equal(got, want) {
		return
	}
	tb.Fatalf(
		"unexpected members of list %d"+
			"\n\tgot: %v"+
			"\n\twant: %v",
		h, got, want)
}
