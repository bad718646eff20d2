package rabbitmq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSubscriptionQueues(t *testing.T) {
	queues := GetSubscriptionQueues()

	require.Len(t, queues, 4)
	assert.Equal(t, RoutingSubscriptionCreated, queues[0].RoutingKey)
	assert.Equal(t, RoutingSubscriptionCancelled, queues[1].RoutingKey)
	assert.Equal(t, RoutingSubscriptionExpired, queues[2].RoutingKey)
	assert.Equal(t, RoutingRenewalDue, queues[3].RoutingKey)

	seen := map[string]bool{}
	for _, q := range queues {
		assert.Falsef(t, seen[q.QueueName], "duplicate queue name: %s", q.QueueName)
		seen[q.QueueName] = true
	}
}
