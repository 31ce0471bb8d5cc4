// Package ring links the members of a fixed arena into circular,
// doubly linked lists addressed by index rather than by pointer.
package ring

import "iter"

type (
	// Links holds the prev/next links of every member and head of an arena.
	// Indices [0, members) name members; the heads follow them, one sentinel
	// per list. A member that is not in any list links to itself.
	// Links is not safe for concurrent use; callers lock the lists they touch.
	Links struct {
		next, prev []int
		members    int
	}
)

// New creates the links for members arena slots and heads empty lists.
// Every member starts unlinked.
func New(members, heads int) *Links {
	var (
		total = members + heads
		l     = &Links{
			next:    make([]int, total),
			prev:    make([]int, total),
			members: members,
		}
	)
	for i := range total {
		l.next[i] = i
		l.prev[i] = i
	}
	return l
}

// Head returns the sentinel index of list h.
func (l *Links) Head(h int) int { return l.members + h }

// IsHead reports whether i is a sentinel rather than a member.
func (l *Links) IsHead(i int) bool { return i >= l.members }

// Next returns the element after i.
func (l *Links) Next(i int) int { return l.next[i] }

// Prev returns the element before i.
func (l *Links) Prev(i int) int { return l.prev[i] }

// Linked reports whether member i currently belongs to some list.
func (l *Links) Linked(i int) bool { return l.next[i] != i }

// PushFront inserts member i directly after the sentinel of list h.
// i must be unlinked.
func (l *Links) PushFront(h, i int) {
	var (
		head  = l.Head(h)
		first = l.next[head]
	)
	// Note: Cannot use multiple assignment because
	// the order of these writes matters when first == head.
	l.next[i] = first
	l.prev[i] = head
	l.prev[first] = i
	l.next[head] = i
}

// Unlink removes member i from whatever list holds it,
// leaving i linked to itself.
func (l *Links) Unlink(i int) {
	var (
		n = l.next[i]
		p = l.prev[i]
	)
	l.next[p] = n
	l.prev[n] = p
	l.next[i] = i
	l.prev[i] = i
}

// Move unlinks member i and pushes it to the front of list h.
func (l *Links) Move(h, i int) {
	l.Unlink(i)
	l.PushFront(h, i)
}

// Len counts the members of list h.
// It executes in time proportional to the number of members.
func (l *Links) Len(h int) int {
	n := 0
	for range l.Members(h) {
		n++
	}
	return n
}

// Members returns an iterator over list h, front to back.
// The behavior is undefined if the list changes during iteration.
func (l *Links) Members(h int) iter.Seq[int] {
	return func(yield func(int) bool) {
		head := l.Head(h)
		for i := l.next[head]; i != head; i = l.next[i] {
			if !yield(i) {
				return
			}
		}
	}
}
