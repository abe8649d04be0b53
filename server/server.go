package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"Zenith/core/bridge"
	"Zenith/logger"

	"github.com/gorilla/mux"
)

// NewRouter wires the bridge endpoints.
func NewRouter(ctx context.Context, hub *bridge.Hub) *mux.Router {
	h := NewBridgeHandler(ctx, hub)

	router := mux.NewRouter()

	// 添加 CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	router.HandleFunc("/ws/bridge", h.ServeWS)
	router.HandleFunc("/api/snapshot", h.GetSnapshot).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet, http.MethodOptions)
	return router
}

// Run serves the bridge on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, hub *bridge.Hub) error {
	server := &http.Server{
		Addr:        addr,
		Handler:     NewRouter(ctx, hub),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("bridge listening", logger.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down bridge...")
	// 创建一个5秒超时的上下文
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Bridge stopped")
	return nil
}
