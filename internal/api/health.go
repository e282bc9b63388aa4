package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-restaurant-api/cache"
	"github.com/goliatone/go-restaurant-api/store"
)

// Health is the payload of GET /healthz.
type Health struct {
	Backend string      `json:"backend"`
	Store   string      `json:"store"`
	Cache   CacheHealth `json:"cache"`
}

type CacheHealth struct {
	Status  string  `json:"status"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Errors  int64   `json:"errors"`
	HitRate float64 `json:"hit_rate"`
}

// healthHandler answers 503 when the store does not answer a ping. A failing
// cache only degrades the report.
func healthHandler(backend store.Backend, client *cache.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		report := Health{Backend: backend.Name(), Store: "ok"}

		code := http.StatusOK
		message := "healthy"
		if err := backend.Ping(ctx); err != nil {
			report.Store = err.Error()
			code = http.StatusServiceUnavailable
			message = "store unavailable"
		}

		if client != nil {
			stats := client.Stats()
			report.Cache = CacheHealth{
				Status:  "ok",
				Hits:    stats.Hits,
				Misses:  stats.Misses,
				Errors:  stats.Errors,
				HitRate: stats.HitRate(),
			}
			if err := client.Ping(ctx); err != nil {
				report.Cache.Status = err.Error()
				if code == http.StatusOK {
					message = "cache degraded"
				}
			}
		}

		status := StatusSuccess
		if code != http.StatusOK {
			status = StatusError
		}
		c.JSON(code, Envelope{Status: status, Message: message, Data: report})
	}
}
