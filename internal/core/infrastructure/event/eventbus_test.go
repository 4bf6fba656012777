package event

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/recordjoin/pkg/types"
)

func TestEventBus_PublishSubscribe(t *testing.T) {
	eb := New()
	var got []types.StageEvent
	handler := func(e types.StageEvent) { got = append(got, e) }

	require.NoError(t, eb.Subscribe(EventTypeJoinStage, handler))
	assert.True(t, eb.HasCallback(EventTypeJoinStage))

	eb.Publish(EventTypeJoinStage, types.StageEvent{Stage: "validate", Status: types.StageStarted})
	eb.Publish(EventTypeJoinStage, types.StageEvent{Stage: "validate", Status: types.StageCompleted})
	require.Len(t, got, 2)
	assert.Equal(t, types.StageCompleted, got[1].Status)
	assert.Equal(t, uint64(2), eb.Published())

	require.NoError(t, eb.Unsubscribe(EventTypeJoinStage, handler))
	assert.False(t, eb.HasCallback(EventTypeJoinStage))
}

func TestEventBus_Async(t *testing.T) {
	eb := New()
	var mu sync.Mutex
	count := 0
	require.NoError(t, eb.SubscribeAsync(EventTypeJoinStage, func(types.StageEvent) {
		mu.Lock()
		count++
		mu.Unlock()
	}, true))

	for i := 0; i < 5; i++ {
		eb.Publish(EventTypeJoinStage, types.StageEvent{Stage: "assemble"})
	}
	eb.WaitAsync()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, count)
}
