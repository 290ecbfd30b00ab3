package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAssignsIDAndTime(t *testing.T) {
	a := New(KindPolling, "Polling changes for issues")
	b := New(KindPolling, "Polling changes for issues")
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.CreatedAt.IsZero())
}

func TestMemoryKeepsNewestFirst(t *testing.T) {
	mem := NewMemory(3)
	for _, msg := range []string{"a", "b", "c", "d"} {
		mem.Notify(context.Background(), New(KindPolling, msg))
	}

	all := mem.List(0)
	require.Len(t, all, 3)
	assert.Equal(t, "d", all[0].Message)
	assert.Equal(t, "b", all[2].Message)

	assert.Len(t, mem.List(2), 2)
}

func TestLogSinkWritesFields(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))
	n := New(KindImportedSingle, "#10 Fix bug")
	sink.Notify(context.Background(), n)

	out := buf.String()
	assert.Contains(t, out, "kind=imported_single")
	assert.Contains(t, out, `message="#10 Fix bug"`)
}

func TestMultiFansOut(t *testing.T) {
	a, b := NewMemory(5), NewMemory(5)
	Multi{a, nil, b}.Notify(context.Background(), New(KindPolling, "x"))
	assert.Len(t, a.List(0), 1)
	assert.Len(t, b.List(0), 1)
}

func TestRedisSinkPublishes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	sub := client.Subscribe(ctx, DefaultRedisChannel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	sink := NewRedisSink(client, "", nil)
	n := New(KindImportedMultiple, "3 new issues")
	n.Count = 3
	sink.Notify(ctx, n)

	select {
	case msg := <-sub.Channel():
		var got Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, n.ID, got.ID)
		assert.Equal(t, 3, got.Count)
	case <-time.After(2 * time.Second):
		t.Fatal("no message published")
	}
}

func TestDialRedisRejectsBadURL(t *testing.T) {
	_, err := DialRedis(context.Background(), "not a url", "", nil)
	require.Error(t, err)
}
