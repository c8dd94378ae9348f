package store

// DedupCache is the set of canonical ids already buffered for write in the
// current ingestion run. It never looks at the graph store; it only keeps a
// single run from buffering the same node upsert twice.
//
// A DedupCache belongs to exactly one seed ingestion and is not safe for
// concurrent use.
type DedupCache struct {
	ids map[string]struct{}
}

func NewDedupCache() *DedupCache {
	return &DedupCache{ids: make(map[string]struct{})}
}

func (c *DedupCache) Seen(id string) bool {
	_, ok := c.ids[id]
	return ok
}

func (c *DedupCache) Mark(id string) {
	c.ids[id] = struct{}{}
}

func (c *DedupCache) Clear() {
	clear(c.ids)
}

func (c *DedupCache) Len() int {
	return len(c.ids)
}
