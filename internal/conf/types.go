package conf

import "google.golang.org/protobuf/types/known/durationpb"

// Bootstrap is the root configuration for the TradeSentry service.
type Bootstrap struct {
	Server *Server
	Data   *Data
	Guard  *Guard
	Market *Market
	Auth   *Auth
	Log    *Log
}

// Server holds transport configuration.
type Server struct {
	Http *Server_HTTP
}

// Server_HTTP configures the HTTP server.
type Server_HTTP struct {
	Network string
	Addr    string
	Timeout *durationpb.Duration
}

// Data holds database and Redis configuration.
type Data struct {
	Database *Data_Database
	Redis    *Data_Redis
}

// Data_Database configures the MySQL connection.
type Data_Database struct {
	Driver string
	Source string
}

// Data_Redis configures the Redis connection.
type Data_Redis struct {
	Network      string
	Addr         string
	ReadTimeout  *durationpb.Duration
	WriteTimeout *durationpb.Duration
}

// Guard holds the resilience layer configuration: circuit breaker, retry
// policy, distributed rate limit and idempotency coordination.
type Guard struct {
	Breaker      *Guard_Breaker
	Retry        *Guard_Retry
	RateLimit    *Guard_RateLimit
	Idempotency  *Guard_Idempotency
	MaxTokenWait *durationpb.Duration
}

// Guard_Breaker configures the per-dependency circuit breaker.
type Guard_Breaker struct {
	FailureThreshold         int32
	RecoveryTimeout          *durationpb.Duration
	HalfOpenSuccessThreshold int32
}

// Guard_Retry configures the retry handler.
type Guard_Retry struct {
	MaxAttempts     int32
	InitialDelay    *durationpb.Duration
	MaxDelay        *durationpb.Duration
	ExponentialBase float64
	Jitter          bool
}

// Guard_RateLimit configures the shared token bucket.
type Guard_RateLimit struct {
	Rate      float64
	Burst     int32
	BucketTtl *durationpb.Duration
}

// Guard_Idempotency configures the idempotency coordinator.
type Guard_Idempotency struct {
	ResultTtl      *durationpb.Duration
	LockTtl        *durationpb.Duration
	InProgressWait *durationpb.Duration
}

// Market configures the external exchange API client.
type Market struct {
	BaseApi  string
	ProxyUrl string
	Timeout  *durationpb.Duration
}

// Auth holds API authentication and encryption configuration.
type Auth struct {
	ApiKey     string
	Encryption *Auth_Encryption
}

// Auth_Encryption configures encryption of exchange credentials at rest.
type Auth_Encryption struct {
	Key string
}

// Log configures the zap logger.
type Log struct {
	Level      string
	Format     string
	Env        string
	OutputFile string
}
