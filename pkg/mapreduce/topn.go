package mapreduce

import (
	"container/heap"
	"sort"
)

// ranked is a WordCount tagged with its arrival position, so equal counts
// can be ordered by who came first.
type ranked struct {
	WordCount
	seq int
}

// worse reports whether a ranks below b.
func worse(a, b ranked) bool {
	if a.Count != b.Count {
		return a.Count < b.Count
	}
	return a.seq > b.seq
}

// minHeap keeps the lowest ranked entry at the root.
type minHeap []ranked

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return worse(h[i], h[j]) }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(ranked)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topN retains the n best entries offered to it.
// Its result matches a stable descending sort of everything offered, truncated to n.
type topN struct {
	n    int
	seq  int
	heap minHeap
}

func newTopN(n int) *topN {
	return &topN{n: n, heap: make(minHeap, 0, min(n, 1024))}
}

// Offer considers wc for the top n.
func (t *topN) Offer(wc WordCount) {
	r := ranked{WordCount: wc, seq: t.seq}
	t.seq++

	if len(t.heap) < t.n {
		heap.Push(&t.heap, r)
		return
	}
	if worse(t.heap[0], r) {
		t.heap[0] = r
		heap.Fix(&t.heap, 0)
	}
}

// Sorted returns the retained entries, best first.
func (t *topN) Sorted() []WordCount {
	entries := make([]ranked, len(t.heap))
	copy(entries, t.heap)
	sort.Slice(entries, func(i, j int) bool {
		return worse(entries[j], entries[i])
	})

	out := make([]WordCount, len(entries))
	for i, e := range entries {
		out[i] = e.WordCount
	}
	return out
}
