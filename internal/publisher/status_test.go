package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"wisefido-vitals/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeArbiter struct {
	stats models.ArbiterStats
	last  models.Reading
}

func (f fakeArbiter) Stats() models.ArbiterStats { return f.stats }
func (f fakeArbiter) LastGood() models.Reading   { return f.last }

type fakeConn struct {
	stats models.ConnectionStats
}

func (f fakeConn) Stats() models.ConnectionStats { return f.stats }

func setupPublisher(t *testing.T) (*miniredis.Miniredis, *StatusPublisher) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	last := models.DefaultReading()
	last.HeartRate = 72
	last.SkinContact = models.OnSkin

	pub := NewStatusPublisher(
		client,
		fakeArbiter{
			stats: models.ArbiterStats{Mode: models.ModeLiveStreaming, QueueLen: 12, QueueCapacity: 5000, FramesReceived: 40},
			last:  last,
		},
		fakeConn{stats: models.ConnectionStats{Connected: true, State: models.LinkConnected, Attempts: 2, Sessions: 1}},
		"00:18:80:04:52:85",
		"vitals:device:",
		2*time.Second,
		zap.NewNop(),
	)
	return mr, pub
}

func TestStatusPublisher_PublishOnce(t *testing.T) {
	mr, pub := setupPublisher(t)

	require.NoError(t, pub.PublishOnce(context.Background()))

	key := "vitals:device:00:18:80:04:52:85:status"
	assert.Equal(t, key, pub.Key())
	assert.Equal(t, 6*time.Second, mr.TTL(key))

	raw, err := mr.Get(key)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, "00:18:80:04:52:85", got["device_id"])

	conn := got["connection"].(map[string]interface{})
	assert.Equal(t, true, conn["connected"])
	assert.Equal(t, "connected", conn["state"])

	arb := got["arbiter"].(map[string]interface{})
	assert.Equal(t, "live", arb["mode"])
	assert.Equal(t, float64(12), arb["queue_len"])

	lastGood := got["last_good"].(map[string]interface{})
	assert.Equal(t, float64(72), lastGood["heart_rate"])
	assert.Equal(t, "On Skin", lastGood["SCD_status"])
}

func TestStatusPublisher_SnapshotExpires(t *testing.T) {
	mr, pub := setupPublisher(t)
	require.NoError(t, pub.PublishOnce(context.Background()))

	mr.FastForward(7 * time.Second)

	assert.False(t, mr.Exists(pub.Key()))
}

func TestStatusPublisher_RunStopsOnCancel(t *testing.T) {
	mr, pub := setupPublisher(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		pub.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return mr.Exists(pub.Key()) }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
