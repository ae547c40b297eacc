package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMutex_SerializesSameKey(t *testing.T) {
	m := New()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock("5511@c.us")
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, m.Len())
}

func TestMutex_IndependentKeys(t *testing.T) {
	m := New()
	unlockA := m.Lock("a")
	done := make(chan struct{})
	go func() {
		unlock := m.Lock("b")
		unlock()
		close(done)
	}()
	<-done
	unlockA()
	unlockA()
	assert.Equal(t, 0, m.Len())
}
