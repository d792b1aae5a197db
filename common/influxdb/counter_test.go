package influxdb_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bytearena/skirmish/common/influxdb"
)

func TestAdd(t *testing.T) {
	counter := influxdb.NewCounter()

	counter.Add(1)

	assert.Equal(t, 1, counter.GetAndReset())
	assert.Equal(t, 0, counter.GetAndReset())
}

func TestConcurrentAdd(t *testing.T) {
	counter := influxdb.NewCounter()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				counter.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 8000, counter.GetAndReset())
}

func TestStubClient(t *testing.T) {
	client := influxdb.NewClient("trainer", influxdb.Options{})
	defer client.TearDown()

	assert.True(t, client.IsStub())
	assert.NotPanics(t, func() {
		client.WriteAppMetric("episode", map[string]interface{}{"steps": 12, "cause": "interrupted"})
	})
}
