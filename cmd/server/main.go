package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	"yuzu/dealer/internal/api"
	"yuzu/dealer/internal/config"
	"yuzu/dealer/internal/health"
	"yuzu/dealer/internal/loop"
	"yuzu/dealer/internal/store"
	"yuzu/dealer/internal/worker"
	"yuzu/dealer/internal/workerws"
)

const grpcService = "dealer"

func main() {
	// Load .env file if present (ignored if missing)
	_ = godotenv.Load()

	cfg := config.Load()
	st := store.New()

	runner := worker.NewLocalRunner(cfg.Worker.Cmd, func(sessionID string, err error) {
		// On process exit, mark not running and append event.
		st.SetWorkerRunning(sessionID, false)
		st.SetWorkerExit(sessionID, exitCodeFromErr(err), time.Now().UTC())
		st.AppendEvent(sessionID, "worker_exit", map[string]any{"error": errString(err)})
	}, func(sessionID, stream, line string) {
		st.AppendEvent(sessionID, "worker_log", map[string]any{"stream": stream, "line": line})
	}, func(sessionID string, pid int) {
		st.SetWorkerPID(sessionID, pid)
	})

	reg := workerws.NewRegistry()
	disp := loop.New(reg, st, loop.Options{
		Locale:     cfg.Speech.Locale,
		Voice:      cfg.Speech.Voice,
		NewMachine: loop.MachineFactory(cfg),
	})
	wss := workerws.NewServer(cfg, st, reg, disp.OnMessage)

	h := api.NewHandlers(cfg, st, disp, reg, runner)
	mux := http.NewServeMux()
	mux.Handle("/", api.NewRouter(h))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws/worker", wss.HandleWorkerWS)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// gRPC health for orchestrators that probe over gRPC
	gs := grpc.NewServer(grpc.KeepaliveParams(keepalive.ServerParameters{
		MaxConnectionIdle: 2 * time.Minute,
		Time:              30 * time.Second,
		Timeout:           10 * time.Second,
	}))
	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	stopProbe := make(chan struct{})
	go probe(cfg, hs, stopProbe)

	gl, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		log.Fatalf("listen grpc :%s: %v", cfg.Server.GRPCPort, err)
	}
	go func() {
		log.Printf("grpc health listening on :%s", cfg.Server.GRPCPort)
		if err := gs.Serve(gl); err != nil {
			log.Printf("grpc serve: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Printf("shutdown signal received; stopping server...")
		close(stopProbe)
		hs.Shutdown()
		// Stop running workers before draining HTTP
		for _, id := range st.ListSessionIDs() {
			if runner.IsRunning(id) {
				_ = runner.Stop(id)
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		gs.GracefulStop()
	}()

	log.Printf("server starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Println("server error:", err)
		os.Exit(1)
	}
}

// probe mirrors the readiness checks into the gRPC health service.
func probe(cfg config.Config, hs *grpchealth.Server, stop <-chan struct{}) {
	t := time.NewTicker(30 * time.Second)
	defer t.Stop()
	for {
		status := healthpb.HealthCheckResponse_SERVING
		if h := health.CheckAll(cfg); !h.OK {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			log.Printf("readiness failing:\n%s", h)
		}
		hs.SetServingStatus("", status)
		hs.SetServingStatus(grpcService, status)
		select {
		case <-stop:
			return
		case <-t.C:
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func exitCodeFromErr(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return 1
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
