package clock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_Advance(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := NewFake(start)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(5*time.Second), c.Advance(5*time.Second))
	assert.Equal(t, start.Add(5*time.Second), c.Now())

	later := start.Add(time.Hour)
	c.Set(later)
	assert.Equal(t, later, c.Now())
}

func TestFake_ConcurrentAdvance(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := NewFake(start)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Advance(time.Second)
			_ = c.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, start.Add(50*time.Second), c.Now())
}

func TestReal_Now(t *testing.T) {
	before := time.Now()
	got := Real{}.Now()
	assert.False(t, got.Before(before))
}
