// Package health - liveness y readiness.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dropDatabas3/janus/internal/cache"
)

// Pinger es lo que readiness necesita de un backend (pg.Store lo cumple).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controller maneja /healthz y /readyz.
type Controller struct {
	Cache cache.Client
	Store Pinger // nil con driver memory
}

func NewController(c cache.Client, store Pinger) *Controller {
	return &Controller{Cache: c, Store: store}
}

// Healthz responde siempre 200: el proceso está vivo.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Readyz verifica cache y storage con timeout corto.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := c.Cache.Ping(ctx); err != nil {
		checks["cache"] = err.Error()
		healthy = false
	} else {
		checks["cache"] = "ok"
	}

	if c.Store != nil {
		if err := c.Store.Ping(ctx); err != nil {
			checks["storage"] = err.Error()
			healthy = false
		} else {
			checks["storage"] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(checks)
}
