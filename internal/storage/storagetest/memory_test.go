package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/student-records/internal/storage"
)

func TestMemory(t *testing.T) {
	RunStoreTests(t, func(*testing.T) storage.Store { return NewMemory() })
}

func TestMemory_FailOn(t *testing.T) {
	m := NewMemory()
	boom := errors.New("boom")
	m.FailOn("Ping", boom)

	assert.ErrorIs(t, m.Ping(context.Background()), boom)

	m.FailOn("Ping", nil)
	assert.NoError(t, m.Ping(context.Background()))
}

func TestMemory_FailOnConcurrent(t *testing.T) {
	m := NewMemory()
	boom := errors.New("boom")

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				m.FailOn("Ping", boom)
			} else {
				m.FailOn("Ping", nil)
			}
		}()
		go func() {
			defer wg.Done()
			err := m.Ping(context.Background())
			if err != nil {
				assert.ErrorIs(t, err, boom)
			}
		}()
	}
	wg.Wait()
}
