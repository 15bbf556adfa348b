package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	DB        string    `json:"db"`
	Redis     string    `json:"redis"`
}

type healthHandler struct {
	version string
	db      Pinger
	redis   Pinger
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return "down"
	}
	return "up"
}

// check reports 503 when the database is unreachable. Redis is optional, so
// its state is reported without failing the check.
func (h *healthHandler) check(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   "jobgate-appointment-api",
		Version:   h.version,
		DB:        probe(c.Request.Context(), h.db),
		Redis:     probe(c.Request.Context(), h.redis),
	}
	code := http.StatusOK
	if resp.DB == "down" {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}
