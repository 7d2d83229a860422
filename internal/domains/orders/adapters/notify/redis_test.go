package notify

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/foodcourt-server/internal/domains/orders/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
)

const testChannel = "foodcourt.order-status"

func TestRedisRelay_DeliversPublishedEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	local := NewBroadcaster(4)
	feed, cancel := local.Subscribe(ports.StatusFilter{OrderID: 42})
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	relayDone := make(chan error, 1)
	go func() { relayDone <- NewRedisRelay(client, testChannel, local, nil).Run(ctx) }()
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(testChannel)[testChannel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	publisher := NewRedisPublisher(client, testChannel)
	require.NoError(t, publisher.Publish(context.Background(), domain.StatusChanged{
		OrderID: 42, VendorID: 3, From: domain.StatusCreated, To: domain.StatusPreparing, Cause: domain.CauseVendor, At: at,
	}))

	select {
	case event := <-feed:
		assert.Equal(t, int64(3), event.VendorID)
		assert.Equal(t, domain.StatusPreparing, event.To)
		assert.True(t, at.Equal(event.At))
	case <-time.After(2 * time.Second):
		t.Fatal("event not relayed")
	}

	stop()
	select {
	case err := <-relayDone:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestRedisRelay_SkipsMalformedPayloads(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	local := NewBroadcaster(4)
	feed, cancel := local.Subscribe(ports.StatusFilter{})
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() { _ = NewRedisRelay(client, testChannel, local, nil).Run(ctx) }()
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(testChannel)[testChannel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	mr.Publish(testChannel, "not-json")
	require.NoError(t, NewRedisPublisher(client, testChannel).Publish(context.Background(), domain.StatusChanged{OrderID: 1}))

	select {
	case event := <-feed:
		assert.Equal(t, int64(1), event.OrderID)
	case <-time.After(2 * time.Second):
		t.Fatal("valid event not relayed after malformed one")
	}
}
