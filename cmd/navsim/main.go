// Command navsim runs a crowd of agents over a random walled grid. The
// terminal view toggles walls with the mouse; -headless runs a fixed number
// of frames and prints statistics.
package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/navcrowd/config"
	"github.com/lixenwraith/navcrowd/logging"
	"github.com/lixenwraith/navcrowd/metrics"
)

func main() {
	var (
		configPath  = flag.String("config", "", "YAML configuration file")
		headless    = flag.Int("headless", 0, "run this many frames without a terminal")
		metricsAddr = flag.String("metrics", "", "serve prometheus metrics on this address")
		dumpConfig  = flag.Bool("dump-config", false, "print the effective configuration and exit")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "navsim: %v\n", err)
			os.Exit(1)
		}
	}
	if *dumpConfig {
		data, err := cfg.Marshal()
		if err != nil {
			fmt.Fprintf(os.Stderr, "navsim: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
		return
	}

	// The terminal owns stderr while the view is up
	if *headless == 0 && cfg.Log.File == "" {
		cfg.Log.File = "navsim.log"
		cfg.Log.Stderr = false
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "navsim: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, logger)
	}

	sim, err := NewSim(cfg, logger)
	if err != nil {
		logger.Error("setup failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "navsim: %v\n", err)
		os.Exit(1)
	}

	if *headless > 0 {
		runHeadless(sim, *headless)
		return
	}

	view, err := NewView(sim)
	if err != nil {
		fmt.Fprintf(os.Stderr, "navsim: %v\n", err)
		os.Exit(1)
	}
	defer view.Close()
	view.Run()
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}

func runHeadless(sim *Sim, frames int) {
	dt := time.Second / time.Duration(sim.cfg.Sim.TickRate)
	start := time.Now()
	for i := 0; i < frames; i++ {
		sim.Step(dt)
	}
	elapsed := time.Since(start)

	cs := sim.cache.Stats()
	fmt.Printf("frames %d in %s (%.1f fps)\n", frames, elapsed.Round(time.Millisecond), float64(frames)/elapsed.Seconds())
	fmt.Printf("agents %d  arrived %d  failed %d  respawned %d\n", len(sim.agents), sim.arrivals, sim.failures, sim.respawns)
	fmt.Printf("completed %d  failed searches %d  replans %d\n", sim.completed, sim.searchesFailed, sim.replanned)
	fmt.Printf("cache hits %d  misses %d  size %d\n", cs.Hits, cs.Misses, cs.Size)
}
