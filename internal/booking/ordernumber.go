package booking

import (
	"fmt"
	"sync/atomic"
	"time"
)

// OrderNoGenerator produces unique, human-readable order numbers of
// the form ORDER<yyyyMMddHHmmss><4-digit sequence>.  It is an
// injected component rather than a package global so tests can run in
// parallel with isolated sequences.
type OrderNoGenerator struct {
	seq atomic.Uint64
	now func() time.Time
}

// NewOrderNoGenerator returns a generator starting at sequence 1.
func NewOrderNoGenerator() *OrderNoGenerator {
	return &OrderNoGenerator{now: func() time.Time { return time.Now().UTC() }}
}

// Next returns the next order number.  The 4-digit suffix wraps at
// 10000; together with the second-resolution timestamp this allows up
// to 10k orders per second before numbers could repeat.
func (g *OrderNoGenerator) Next() string {
	ts := g.now().Format("20060102150405")
	seq := g.seq.Add(1) % 10000
	return fmt.Sprintf("ORDER%s%04d", ts, seq)
}
