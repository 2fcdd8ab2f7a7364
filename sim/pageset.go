package sim

import "golang.org/x/exp/slices"

// workingSet is the set of pages still to be sent in the current pass.
// Pop picks the next page to send; the order depends on the implementation.
type workingSet interface {
	Len() int
	Contains(page int) bool
	Pop() (int, bool)
	Push(page int)
	Remove(page int) bool
	Clear()
	Snapshot() []int
}

// pageQueue is the working set of pages still to be sent in the current
// pass. Order is FIFO; a page may appear more than once when it was dirtied
// repeatedly. counts tracks multiplicity for O(1) membership tests.
type pageQueue struct {
	pages  []int
	counts map[int]int
}

// newPageQueue returns a queue holding 0..n-1 in ascending order.
func newPageQueue(n int) *pageQueue {
	q := &pageQueue{
		pages:  make([]int, n),
		counts: make(map[int]int, n),
	}
	for i := range q.pages {
		q.pages[i] = i
		q.counts[i] = 1
	}
	return q
}

func (q *pageQueue) Len() int { return len(q.pages) }

func (q *pageQueue) Contains(page int) bool { return q.counts[page] > 0 }

// Pop removes and returns the oldest page.
func (q *pageQueue) Pop() (int, bool) {
	if len(q.pages) == 0 {
		return 0, false
	}
	page := q.pages[0]
	q.pages = q.pages[1:]
	q.release(page)
	return page, true
}

// Push appends page to the back.
func (q *pageQueue) Push(page int) {
	q.pages = append(q.pages, page)
	q.counts[page]++
}

// Remove drops the first occurrence of page. Reports whether it was present.
func (q *pageQueue) Remove(page int) bool {
	if !q.Contains(page) {
		return false
	}
	i := slices.Index(q.pages, page)
	q.pages = slices.Delete(q.pages, i, i+1)
	q.release(page)
	return true
}

// Clear empties the queue.
func (q *pageQueue) Clear() {
	q.pages = q.pages[:0]
	clear(q.counts)
}

// Snapshot returns a copy of the queued pages in order.
func (q *pageQueue) Snapshot() []int {
	return slices.Clone(q.pages)
}

func (q *pageQueue) release(page int) {
	if q.counts[page] <= 1 {
		delete(q.counts, page)
		return
	}
	q.counts[page]--
}
