package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/keyseq"
	"github.com/aretw0/keyseq/internal/testutils"
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hi = domain.Definition{Name: "hi", Keys: domain.Sequence{"KeyH", "KeyI"}}

func press(keys ...string) []domain.KeyEvent {
	out := make([]domain.KeyEvent, len(keys))
	for i, k := range keys {
		out[i] = domain.KeyEvent{Key: k, Code: k}
	}
	return out
}

func TestManager_CreateAndPress(t *testing.T) {
	mgr := session.NewManager()
	defer mgr.Close()

	info, err := mgr.Create("s1", hi)
	require.NoError(t, err)
	assert.Equal(t, "s1", info.ID)
	assert.Equal(t, domain.StatusListening, info.Status)
	assert.Equal(t, 2, info.Total)

	info, err = mgr.Press("s1", press("KeyH")...)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Position)
	assert.Equal(t, "KeyI", info.Next())

	info, err = mgr.Press("s1", press("KeyI")...)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Position)
	assert.Equal(t, int64(1), info.Matches)
}

func TestManager_GeneratedID(t *testing.T) {
	mgr := session.NewManager()
	defer mgr.Close()

	a, err := mgr.Create("", hi)
	require.NoError(t, err)
	b, err := mgr.Create("", hi)
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, mgr.List(), 2)
}

func TestManager_Errors(t *testing.T) {
	mgr := session.NewManager()
	defer mgr.Close()

	_, err := mgr.Create("dup", hi)
	require.NoError(t, err)
	_, err = mgr.Create("dup", hi)
	assert.ErrorIs(t, err, domain.ErrSessionExists)

	_, err = mgr.Create("empty", domain.Definition{Name: "empty"})
	assert.ErrorIs(t, err, domain.ErrEmptySequence)

	_, err = mgr.Press("missing", press("KeyH")...)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = mgr.Snapshot("missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, _, err = mgr.Subscribe("missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, mgr.Delete("missing"), domain.ErrSessionNotFound)
}

func TestManager_StopStartReset(t *testing.T) {
	mgr := session.NewManager()
	defer mgr.Close()
	_, err := mgr.Create("s", hi)
	require.NoError(t, err)

	_, err = mgr.Press("s", press("KeyH")...)
	require.NoError(t, err)
	info, err := mgr.Reset("s")
	require.NoError(t, err)
	assert.Equal(t, 0, info.Position)

	info, err = mgr.Stop("s")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStopped, info.Status)

	info, err = mgr.Press("s", press("KeyH")...)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Position, "stopped sessions drop input")

	info, err = mgr.Start("s")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusListening, info.Status)
}

func TestManager_Timeout(t *testing.T) {
	clock := testutils.NewManualClock()
	mgr := session.NewManager(session.WithClock(clock))
	defer mgr.Close()

	_, err := mgr.Create("s", hi, keyseq.WithTimeout(time.Second))
	require.NoError(t, err)

	info, err := mgr.Press("s", press("KeyH")...)
	require.NoError(t, err)
	require.NotNil(t, info.Deadline)
	assert.Equal(t, clock.Now().Add(time.Second), *info.Deadline)

	clock.Advance(2 * time.Second)
	info, err = mgr.Snapshot("s")
	require.NoError(t, err)
	assert.Equal(t, 0, info.Position)
	assert.Nil(t, info.Deadline)
}

func TestManager_Subscribe(t *testing.T) {
	mgr := session.NewManager()
	defer mgr.Close()
	_, err := mgr.Create("s", hi)
	require.NoError(t, err)

	events, cancel, err := mgr.Subscribe("s")
	require.NoError(t, err)
	defer cancel()

	_, err = mgr.Press("s", press("KeyH", "KeyI")...)
	require.NoError(t, err)

	var types []domain.EventType
	for i := 0; i < 5; i++ {
		select {
		case e := <-events:
			types = append(types, e.Type)
			assert.Equal(t, "hi", e.Sequence)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
	assert.Equal(t, []domain.EventType{
		domain.EventInput, domain.EventProgress,
		domain.EventInput, domain.EventProgress, domain.EventMatch,
	}, types)

	require.NoError(t, mgr.Delete("s"))
	// Delete emits a stop event before closing the stream.
	for range events {
	}
}

func TestManager_HooksAndDefaults(t *testing.T) {
	var mu sync.Mutex
	var seen []domain.EventType
	hooks := domain.LifecycleHooks{
		OnStart: func(_ context.Context, e *domain.Event) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, e.Type)
		},
	}
	mgr := session.NewManager(
		session.WithLifecycleHooks(hooks),
		session.WithListenerOptions(keyseq.WithOnce(true)),
	)
	defer mgr.Close()

	_, err := mgr.Create("s", hi)
	require.NoError(t, err)
	info, err := mgr.Press("s", press("KeyH", "KeyI")...)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStopped, info.Status, "once applies to session listeners")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.EventType{domain.EventStart}, seen)
}

func TestManager_ConcurrentPress(t *testing.T) {
	mgr := session.NewManager()
	defer mgr.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("s%d", i)
		_, err := mgr.Create(id, hi)
		require.NoError(t, err)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, err := mgr.Press(id, press("KeyH", "KeyI")...)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	for _, info := range mgr.List() {
		assert.Equal(t, int64(10), info.Matches)
	}
}

func TestManager_Close(t *testing.T) {
	mgr := session.NewManager()
	_, err := mgr.Create("s", hi)
	require.NoError(t, err)

	mgr.Close()
	assert.Empty(t, mgr.List())
	_, err = mgr.Create("t", hi)
	assert.Error(t, err)
}
