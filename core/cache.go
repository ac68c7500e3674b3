package mad

import (
	arc "github.com/hashicorp/golang-lru/arc/v2"
)

// payloadCache holds loaded entry payloads keyed by entry index.
type payloadCache interface {
	Get(i int) ([]byte, bool)
	Add(i int, data []byte)
	Contains(i int) bool
	Purge()
}

// sliceCache keeps every loaded payload until Purge.
type sliceCache [][]byte

func newSliceCache(n int) *sliceCache {
	c := make(sliceCache, n)
	return &c
}

func (c *sliceCache) Get(i int) ([]byte, bool) {
	if i < 0 || i >= len(*c) || (*c)[i] == nil {
		return nil, false
	}
	return (*c)[i], true
}

func (c *sliceCache) Add(i int, data []byte) {
	if data == nil {
		data = []byte{}
	}
	(*c)[i] = data
}

func (c *sliceCache) Contains(i int) bool {
	_, ok := c.Get(i)
	return ok
}

func (c *sliceCache) Purge() {
	clear(*c)
}

// arcCache bounds the number of cached payloads with an adaptive
// replacement cache, so repeated reads of hot entries stay cheap while
// one-off reads during extraction do not pin memory.
type arcCache struct {
	c *arc.ARCCache[int, []byte]
}

func newARCCache(size int) (*arcCache, error) {
	c, err := arc.NewARC[int, []byte](size)
	if err != nil {
		return nil, err
	}
	return &arcCache{c: c}, nil
}

func (a *arcCache) Get(i int) ([]byte, bool) { return a.c.Get(i) }
func (a *arcCache) Add(i int, data []byte)  { a.c.Add(i, data) }
func (a *arcCache) Contains(i int) bool     { return a.c.Contains(i) }
func (a *arcCache) Purge()                  { a.c.Purge() }
