package rabbitmq

// Ключи маршрутизации событий подписки.
const (
	RoutingSubscriptionCreated   = "subscription.created"
	RoutingSubscriptionCancelled = "subscription.cancelled"
	RoutingSubscriptionExpired   = "subscription.expired"
	RoutingRenewalDue            = "subscription.renewal_due"
)

// QueueConfig описывает очередь и ключ, с которым она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetSubscriptionQueues возвращает очереди событий подписок.
func GetSubscriptionQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "subscriptions.created", RoutingKey: RoutingSubscriptionCreated},
		{QueueName: "subscriptions.cancelled", RoutingKey: RoutingSubscriptionCancelled},
		{QueueName: "subscriptions.expired", RoutingKey: RoutingSubscriptionExpired},
		{QueueName: "subscriptions.renewal_due", RoutingKey: RoutingRenewalDue},
	}
}
