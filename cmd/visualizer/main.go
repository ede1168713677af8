// Command visualizer converts driving-stack messages into marker topics and
// streams them to connected viewers.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/banshee-data/drive-visualizer/internal/config"
	"github.com/banshee-data/drive-visualizer/internal/fsutil"
	"github.com/banshee-data/drive-visualizer/internal/ingest"
	"github.com/banshee-data/drive-visualizer/internal/mapimage"
	"github.com/banshee-data/drive-visualizer/internal/monitor"
	"github.com/banshee-data/drive-visualizer/internal/stream"
	"github.com/banshee-data/drive-visualizer/internal/timeutil"
	"github.com/banshee-data/drive-visualizer/internal/version"
	"github.com/banshee-data/drive-visualizer/internal/visualizer"
)

var (
	configFile  = flag.String("config", "", "Path to a YAML config file (see "+config.ExampleConfigPath+")")
	envFile     = flag.String("env-file", ".env", "Optional .env file loaded before reading the environment")
	assetFolder = flag.String("asset-folder", "", "Asset folder with map tiles (overrides $"+config.EnvAssetFolder+" and asset_folder)")
	grpcListen  = flag.String("grpc-listen", "", "gRPC stream listen address (overrides grpc.listen)")
	debugListen = flag.String("debug-listen", "", "Debug HTTP listen address (overrides debug_listen)")
	udpListen   = flag.String("udp-listen", "", "UDP ingest address (overrides ingest.udp_listen)")
	serialPort  = flag.String("serial-port", "", "Serial ingest device (overrides ingest.serial_port)")
	pcapFile    = flag.String("pcap", "", "Replay a pcap capture (overrides ingest.pcap_file)")
	showVersion = flag.Bool("version", false, "Print the version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		log.SetFlags(0)
		log.Printf("visualizer %s", version.String())
		return
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("failed to load %s: %v", *envFile, err)
		}
	}

	cfg := config.Empty()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		log.Printf("loaded config from %s", *configFile)
	}

	assets := firstNonEmpty(*assetFolder, os.Getenv(config.EnvAssetFolder), cfg.GetAssetFolder())
	log.Printf("visualizer %s starting, asset folder %q", version.String(), assets)

	hubCfg := stream.DefaultConfig()
	hubCfg.ListenAddr = firstNonEmpty(*grpcListen, cfg.GetGRPCListen())
	hubCfg.MaxClients = cfg.GetGRPCMaxClients()
	hub := stream.NewHub(hubCfg)
	if err := hub.Start(); err != nil {
		log.Fatalf("failed to start stream hub: %v", err)
	}
	defer hub.Stop()

	aggCfg := visualizer.Config{
		HistoryWindow: cfg.GetStateBufferWindow(),
		FlushInterval: cfg.GetFlushInterval(),
	}
	if assets != "" && cfg.GetMapEnabled() {
		gen, err := mapimage.New(assets, fsutil.OSFileSystem{}, cfg.GetMapConfig())
		if err != nil {
			log.Fatalf("failed to open map tiles: %v", err)
		}
		aggCfg.Maps = gen
	}
	agg := visualizer.New(aggCfg, stream.Outputs(hub))
	dispatcher := ingest.NewDispatcher(agg)

	stopFlush := agg.Run(timeutil.NewScheduler(timeutil.RealClock{}))
	defer stopFlush()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if addr := firstNonEmpty(*udpListen, cfg.GetUDPListen()); addr != "" {
		listener := ingest.NewUDPListener(ingest.UDPListenerConfig{
			Address:    addr,
			RcvBuf:     cfg.GetUDPRcvBuf(),
			Dispatcher: dispatcher,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := listener.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("UDP ingest stopped: %v", err)
			}
			log.Print("UDP ingest routine terminated")
		}()
	}

	if port := firstNonEmpty(*serialPort, cfg.GetSerialPort()); port != "" {
		src := &ingest.SerialSource{
			Path:       port,
			Options:    cfg.GetSerialOptions(),
			Dispatcher: dispatcher,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := src.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("serial ingest stopped: %v", err)
			}
			log.Print("serial ingest routine terminated")
		}()
	}

	if path := firstNonEmpty(*pcapFile, cfg.GetPCAPFile()); path != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats, err := ingest.ReplayPCAPFile(ctx, path, cfg.GetReplayOptions(), dispatcher)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("pcap replay failed: %v", err)
			}
			log.Printf("pcap replay finished: %+v", stats)
		}()
	}

	if addr := firstNonEmpty(*debugListen, cfg.GetDebugListen()); addr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveDebug(ctx, addr, monitor.NewWebServer(monitor.Options{
				State:       agg,
				Hub:         hub,
				Dispatcher:  dispatcher,
				AssetFolder: assets,
			}))
		}()
	}

	<-ctx.Done()
	log.Print("shutting down...")
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

func serveDebug(ctx context.Context, addr string, ws *monitor.WebServer) {
	mux := http.NewServeMux()
	ws.AttachRoutes(mux)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("debug server failed: %v", err)
		}
	}()
	log.Printf("debug pages on http://%s/debug/", addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("debug server shutdown error: %v", err)
	}
	log.Printf("debug server routine stopped")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
