package constants

type contextKey string

const (
	PoolKey      contextKey = "pool"
	TxKey        contextKey = "tx"
	LoggerKey    contextKey = "logger"
	TenantIDKey  contextKey = "tenantID"
	UserIDKey    contextKey = "userID"
	RequestIDKey contextKey = "requestID"
)
