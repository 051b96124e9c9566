package domain

// Control message kinds routed by the bus. Anything else is forwarded to the
// event log as a regular event.
const (
	MessageHealthCheck    = "HEALTH_CHECK"
	MessageMetricsRequest = "METRICS_REQUEST"
	MessageDomainSync     = "DOMAIN_SYNC"
)

// Event types emitted by the coordinator on transaction completion. The
// emitted event carries the transaction's correlation id, so observers can
// tie the outcome back to the request that started it.
const (
	EventTransactionCompleted = "TRANSACTION_COMPLETED"
	EventTransactionFailed    = "TRANSACTION_FAILED"
)
