package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/embedkit/embedkit/internal/logger"
	"github.com/embedkit/embedkit/internal/service"
)

type Deps struct {
	Logger     logger.Logger
	StartTime  time.Time
	Version    string
	Commit     string
	BuildDate  string
	GoVersion  string
	TimeNow    func() time.Time  // for testing, defaults to time.Now
	TrustProxy bool              // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Redis      *redis.Client     // shared client, pinged by readyz
	Services   *service.Registry // the four widget services
}
