package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"ms-eventreg/internal/cache"
	"ms-eventreg/internal/logger"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "event:all:1:50:", cache.Key("event", "all", "1", "50", ""))
	assert.Equal(t, "event:all:1:50:2026-09-15", cache.Key("event", "all", "1", "50", "2026-09-15"))
	assert.Equal(t, "event:all:most-registrations:2:10:", cache.Key("event", "all", "most-registrations", "2", "10", ""))
	assert.Equal(t, "event:abc-123", cache.Key("event", "abc-123"))
	assert.Equal(t, "attendee:all:1:50:jane", cache.Key("attendee", "all", "1", "50", "jane"))
}

// TestCoordinatorIntegration exercises the coordinator against a real
// Redis container.
func TestCoordinatorIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:latest",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	coordinator := cache.NewCoordinator(client, time.Minute, logger.NewLogger())

	type payload struct {
		Name string `json:"name"`
	}

	// Miss before any Set.
	var out payload
	assert.False(t, coordinator.Get(ctx, "event:missing", &out))

	// Round trip.
	coordinator.Set(ctx, cache.Key("event", "all", "1", "50", ""), payload{Name: "page one"})
	require.True(t, coordinator.Get(ctx, "event:all:1:50:", &out))
	assert.Equal(t, "page one", out.Name)

	// Exact-key invalidation leaves siblings alone.
	coordinator.Set(ctx, cache.Key("event", "e1"), payload{Name: "detail"})
	coordinator.InvalidateKey(ctx, "event:e1")
	assert.False(t, coordinator.Get(ctx, "event:e1", &out))
	assert.True(t, coordinator.Get(ctx, "event:all:1:50:", &out))

	// Prefix invalidation busts the whole listing namespace but not
	// other namespaces.
	coordinator.Set(ctx, cache.Key("event", "all", "2", "50", ""), payload{Name: "page two"})
	coordinator.Set(ctx, cache.Key("attendee", "all", "1", "50", ""), payload{Name: "attendees"})
	coordinator.InvalidatePrefix(ctx, "event:all:")
	assert.False(t, coordinator.Get(ctx, "event:all:1:50:", &out))
	assert.False(t, coordinator.Get(ctx, "event:all:2:50:", &out))
	assert.True(t, coordinator.Get(ctx, "attendee:all:1:50:", &out))

	// Corrupt entries degrade to a miss instead of failing the read.
	require.NoError(t, client.Set(ctx, "event:corrupt", "{not json", time.Minute).Err())
	assert.False(t, coordinator.Get(ctx, "event:corrupt", &out))
}
