package influxdb

import (
	"sync/atomic"
)

// Counter accumulates a value between two metric reports; safe for concurrent use
type Counter struct {
	count atomic.Int64
}

func NewCounter() *Counter {
	return &Counter{}
}

func (counter *Counter) Add(nbr int) {
	counter.count.Add(int64(nbr))
}

func (counter *Counter) GetAndReset() int {
	return int(counter.count.Swap(0))
}
