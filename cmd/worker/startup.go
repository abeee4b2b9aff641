// cmd/worker/startup.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"newsletter-backend/pkg/container"
)

// startServices performs health checks and logs startup information
func startServices(c *container.Container) error {
	log.Println("============================================")
	log.Println("🚀 Newsletter Worker Starting...")
	log.Println("============================================")

	// ✅ 1. Perform Health Checks
	if err := checkAll(c); err != nil {
		log.Printf("❌ Health check failed: %v\n", err)
		return err
	}

	// ✅ 2. Start health check endpoint
	go startHealthCheckServer()

	return nil
}

// checkAll runs all health checks
func checkAll(c *container.Container) error {
	checks := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"Postgres Connection", c.DB.HealthCheck},
		{"Redis Connection", c.Cache.Ping},
	}

	for _, check := range checks {
		log.Printf("⏳ Checking %s...\n", check.name)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := check.fn(ctx)
		cancel()

		if err != nil {
			log.Printf("❌ %s: %v\n", check.name, err)
			return fmt.Errorf("%s failed: %w", check.name, err)
		}
		log.Printf("✓ %s: OK\n", check.name)
	}

	return nil
}

// startHealthCheckServer starts HTTP server for health checks
func startHealthCheckServer() {
	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/ready", readyHandler)

	log.Println("[Health] Starting health check server on :9999")
	if err := http.ListenAndServe(":9999", nil); err != nil {
		log.Printf("[Health] Failed to start: %v\n", err)
	}
}

// healthHandler handles /health endpoint
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"UP","service":"newsletter-worker"}`))
}

// readyHandler handles /ready endpoint (Kubernetes readiness probe)
func readyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"READY"}`))
}
