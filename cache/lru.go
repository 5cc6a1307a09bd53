package cache

// cacheEntry is a stored face result linked into its shard's recency ring.
type cacheEntry struct {
	key        Key
	value      Entry
	prev, next *cacheEntry
}

// linked reports whether e is on a ring.
func (e *cacheEntry) linked() bool { return e.next != nil }

// recency is an intrusive ring over the entries of one shard. root.next is
// the most recently used entry and root.prev the least. Shards guard it
// with their mutex.
type recency struct {
	root cacheEntry
	n    int
}

func (r *recency) reset() {
	r.root.next, r.root.prev = &r.root, &r.root
	r.n = 0
}

func (r *recency) len() int { return r.n }

// touch makes e the most recently used entry, linking it if needed.
func (r *recency) touch(e *cacheEntry) {
	if r.root.next == nil {
		r.reset()
	}
	if e.linked() {
		if r.root.next == e {
			return
		}
		r.unlink(e)
	}
	e.prev, e.next = &r.root, r.root.next
	r.root.next.prev = e
	r.root.next = e
	r.n++
}

// oldest returns the least recently used entry, or nil when empty.
func (r *recency) oldest() *cacheEntry {
	if r.n == 0 {
		return nil
	}
	return r.root.prev
}

func (r *recency) unlink(e *cacheEntry) {
	if !e.linked() {
		return
	}
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
	r.n--
}
