// Package httpserver собирает маршруты API и обслуживает их с корректной остановкой.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"study-booster/api/internal/apperr"
	"study-booster/api/internal/handle"
	"study-booster/api/internal/ratelimit"
)

const shutdownTimeout = 10 * time.Second

// NewHandler регистрирует маршруты API. Анализ и загрузка ограничены по IP клиента.
func NewHandler(h *handle.Handle, rl *ratelimit.Limiter) http.Handler {
	mux := http.NewServeMux()
	Register(mux, h, rl)
	return WithLogging(mux)
}

// Register добавляет маршруты в существующий mux (бот регистрирует их рядом с вебхуком).
func Register(mux *http.ServeMux, h *handle.Handle, rl *ratelimit.Limiter) {
	limited := func(fn http.HandlerFunc) http.Handler { return WithRateLimit(rl, fn) }

	mux.HandleFunc("GET /healthz", h.Health)

	mux.Handle("POST /api/analyze-image", limited(h.AnalyzeImage))
	mux.Handle("POST /api/images", limited(h.UploadImage))
	mux.HandleFunc("GET /api/images/stats", h.ImageStats)
	mux.HandleFunc("GET /api/images/{id}", h.GetImage)
	mux.HandleFunc("DELETE /api/images/{id}", h.DeleteImage)
	mux.HandleFunc("DELETE /api/images", h.ClearImages)
	mux.Handle("POST /api/images/{id}/analyze", limited(h.AnalyzeStored))

	mux.HandleFunc("GET /api/prompt", h.GetPrompt)
	mux.HandleFunc("PUT /api/prompt", h.UpdatePrompt)
}

// WithRateLimit отвечает 429, когда у клиента кончились токены.
func WithRateLimit(rl *ratelimit.Limiter, next http.Handler) http.Handler {
	if !rl.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := ClientIP(r)
		if !rl.Allow(key) {
			if d := rl.RetryAfter(key); d > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(d.Seconds())+1))
			}
			handle.WriteError(w, apperr.New(apperr.APIRateLimit, "too many requests from "+key))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP — первый адрес из X-Forwarded-For, иначе хост из RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		lvl := slog.LevelInfo
		if rec.status >= 500 {
			lvl = slog.LevelError
		}
		slog.Log(r.Context(), lvl, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration", time.Since(start),
			"remote", ClientIP(r),
		)
	})
}

// Serve слушает addr до отмены ctx, затем даёт активным запросам shutdownTimeout.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("http server shutting down", "addr", addr)
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
