package pprof

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	hpprof "net/http/pprof"
	"strings"
	"sync"
	"time"

	rtsup "ethinline/internal/runtime/supervisor"
	logx "ethinline/pkg/logx"
)

const DefaultAddr = "127.0.0.1:6060"

// Config controls the optional pprof HTTP server. Only loopback addresses
// are accepted; the endpoints have no authentication.
type Config struct {
	Enabled bool
	Addr    string
}

type Service struct {
	mu    sync.Mutex
	log   logx.Logger
	srv   *http.Server
	sup   *rtsup.Supervisor
	addr  string // configured
	bound string
}

func New(log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{log: log.With(logx.String("comp", "pprof"))}
}

// Apply starts, stops or rebinds the server. Safe to call on hot reload.
func (s *Service) Apply(ctx context.Context, cfg Config) error {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		addr = DefaultAddr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !cfg.Enabled {
		s.stopLocked(ctx)
		return nil
	}
	if s.srv != nil && s.addr == addr {
		return nil
	}
	if !isLoopbackAddr(addr) {
		return fmt.Errorf("pprof: refusing non-loopback addr %q", addr)
	}
	s.stopLocked(ctx)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("pprof listen: %w", err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/debug/pprof/", hpprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", hpprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", hpprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", hpprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", hpprof.Trace)

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	sup := rtsup.New(context.Background(), rtsup.WithLogger(s.log))
	sup.Go("http.serve", func(context.Context) error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn("pprof server error", logx.Err(err))
			return err
		}
		return nil
	})

	s.srv, s.sup, s.addr, s.bound = srv, sup, addr, ln.Addr().String()
	s.log.Info("pprof started", logx.String("addr", s.bound))
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(ctx)
}

func (s *Service) stopLocked(ctx context.Context) {
	if s.srv == nil {
		return
	}
	sctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(sctx); err != nil {
		_ = s.srv.Close()
	}
	_ = s.sup.Stop(sctx)
	s.log.Info("pprof stopped", logx.String("addr", s.bound))
	s.srv, s.sup, s.addr, s.bound = nil, nil, "", ""
}

// Addr reports the bound address, or "" when stopped.
func (s *Service) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

func isLoopbackAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
