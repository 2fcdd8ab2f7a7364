package sim

import (
	"math"

	"golang.org/x/exp/slices"
)

// Neighbourhood radii around a faulting page, as fractions of its number.
const (
	prefetchNearRadius  = 0.001
	prefetchLocalRadius = 0.01
)

const noScore = math.MinInt64

// scoreTree is a max segment tree over page numbers with lazy range add.
// Every page carries a score; only active pages compete for the maximum,
// and ties go to the lowest page number.
type scoreTree struct {
	n      int
	best   []int64 // best active score under the node, noScore if none
	page   []int   // page holding best
	lazy   []int64 // pending add for both children
	score  []int64 // exact once pending adds above the leaf are pushed down
	active []bool
}

// newScoreTree returns a tree over pages 0..n-1, all active with score 0.
func newScoreTree(n int) *scoreTree {
	t := &scoreTree{
		n:      n,
		best:   make([]int64, 4*n),
		page:   make([]int, 4*n),
		lazy:   make([]int64, 4*n),
		score:  make([]int64, n),
		active: make([]bool, n),
	}
	for i := range t.active {
		t.active[i] = true
	}
	t.build(1, 0, n-1)
	return t
}

// Max returns the active page with the highest score.
func (t *scoreTree) Max() (int, bool) {
	if t.best[1] == noScore {
		return 0, false
	}
	return t.page[1], true
}

// Add raises the score of every page in [from, to] by delta.
func (t *scoreTree) Add(from, to int, delta int64) {
	if from > to {
		return
	}
	t.add(1, 0, t.n-1, from, to, delta)
}

// Set marks page active or inactive. With reset the page restarts from 0.
func (t *scoreTree) Set(page int, active, reset bool) {
	t.set(1, 0, t.n-1, page, active, reset)
}

// Score returns the current score of page.
func (t *scoreTree) Score(page int) int64 {
	node, lo, hi := 1, 0, t.n-1
	for lo < hi {
		mid := (lo + hi) / 2
		t.push(node, lo, mid, hi)
		if page <= mid {
			node, hi = 2*node, mid
		} else {
			node, lo = 2*node+1, mid+1
		}
	}
	return t.score[page]
}

func (t *scoreTree) build(node, lo, hi int) {
	if lo == hi {
		t.setLeaf(node, lo)
		return
	}
	mid := (lo + hi) / 2
	t.build(2*node, lo, mid)
	t.build(2*node+1, mid+1, hi)
	t.pull(node)
}

func (t *scoreTree) add(node, lo, hi, from, to int, delta int64) {
	if to < lo || hi < from {
		return
	}
	if from <= lo && hi <= to {
		t.apply(node, lo, hi, delta)
		return
	}
	mid := (lo + hi) / 2
	t.push(node, lo, mid, hi)
	t.add(2*node, lo, mid, from, to, delta)
	t.add(2*node+1, mid+1, hi, from, to, delta)
	t.pull(node)
}

func (t *scoreTree) set(node, lo, hi, page int, active, reset bool) {
	if lo == hi {
		t.active[page] = active
		if reset {
			t.score[page] = 0
		}
		t.setLeaf(node, page)
		return
	}
	mid := (lo + hi) / 2
	t.push(node, lo, mid, hi)
	if page <= mid {
		t.set(2*node, lo, mid, page, active, reset)
	} else {
		t.set(2*node+1, mid+1, hi, page, active, reset)
	}
	t.pull(node)
}

func (t *scoreTree) setLeaf(node, page int) {
	t.page[node] = page
	if t.active[page] {
		t.best[node] = t.score[page]
	} else {
		t.best[node] = noScore
	}
}

func (t *scoreTree) apply(node, lo, hi int, delta int64) {
	if t.best[node] != noScore {
		t.best[node] += delta
	}
	if lo == hi {
		t.score[lo] += delta
		return
	}
	t.lazy[node] += delta
}

func (t *scoreTree) push(node, lo, mid, hi int) {
	if d := t.lazy[node]; d != 0 {
		t.apply(2*node, lo, mid, d)
		t.apply(2*node+1, mid+1, hi, d)
		t.lazy[node] = 0
	}
}

func (t *scoreTree) pull(node int) {
	l, r := 2*node, 2*node+1
	if t.best[r] > t.best[l] {
		t.best[node], t.page[node] = t.best[r], t.page[r]
	} else {
		t.best[node], t.page[node] = t.best[l], t.page[l]
	}
}

// prefetchQueue is a working set that sends the highest-scoring page
// first. Each post-copy fault boosts the pages around the faulting one by
// the running fault count, so neighbours of recent misses leave before
// the guest reads them. Equal scores leave in ascending page order.
type prefetchQueue struct {
	counts map[int]int
	size   int
	scores *scoreTree
}

// newPrefetchQueue returns a queue holding 0..n-1, all with score 0.
func newPrefetchQueue(n int) *prefetchQueue {
	q := &prefetchQueue{
		counts: make(map[int]int, n),
		size:   n,
		scores: newScoreTree(n),
	}
	for i := 0; i < n; i++ {
		q.counts[i] = 1
	}
	return q
}

func (q *prefetchQueue) Len() int { return q.size }

func (q *prefetchQueue) Contains(page int) bool { return q.counts[page] > 0 }

// Pop removes and returns the highest-scoring page. Its score restarts at 0.
func (q *prefetchQueue) Pop() (int, bool) {
	page, ok := q.scores.Max()
	if !ok {
		return 0, false
	}
	q.release(page)
	return page, true
}

// Push queues page again, keeping any score it gathered while absent.
func (q *prefetchQueue) Push(page int) {
	q.counts[page]++
	q.size++
	q.scores.Set(page, true, false)
}

// Remove drops one copy of page. Reports whether it was present.
func (q *prefetchQueue) Remove(page int) bool {
	if !q.Contains(page) {
		return false
	}
	q.release(page)
	return true
}

func (q *prefetchQueue) Clear() {
	for page := range q.counts {
		q.scores.Set(page, false, false)
	}
	clear(q.counts)
	q.size = 0
}

// Snapshot returns the queued pages in ascending order, one entry per copy.
func (q *prefetchQueue) Snapshot() []int {
	pages := make([]int, 0, len(q.counts))
	for page := range q.counts {
		pages = append(pages, page)
	}
	slices.Sort(pages)
	out := make([]int, 0, q.size)
	for _, page := range pages {
		for i := 0; i < q.counts[page]; i++ {
			out = append(out, page)
		}
	}
	return out
}

// Boost raises every page in both neighbourhoods of page by delta. The
// near neighbourhood lies inside the local one, so the closest pages gain
// twice.
func (q *prefetchQueue) Boost(page int, delta int64) {
	for _, radius := range []float64{prefetchNearRadius, prefetchLocalRadius} {
		from := int(float64(page) * (1 - radius))
		to := min(int(float64(page)*(1+radius)), q.scores.n-1)
		q.scores.Add(from, to, delta)
	}
}

func (q *prefetchQueue) release(page int) {
	q.size--
	if q.counts[page] <= 1 {
		delete(q.counts, page)
		q.scores.Set(page, false, true)
		return
	}
	q.counts[page]--
	q.scores.Set(page, true, true)
}
