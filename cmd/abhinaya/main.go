package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ayusman/abhinaya/internal/app"
	"github.com/ayusman/abhinaya/internal/artifact"
	"github.com/ayusman/abhinaya/internal/hook"
	"github.com/ayusman/abhinaya/internal/logger"
	"github.com/ayusman/abhinaya/internal/metrics"
	"github.com/ayusman/abhinaya/internal/server"
	"github.com/ayusman/abhinaya/internal/store"
	"github.com/ayusman/abhinaya/internal/tray"
)

var (
	// Command-line flags, each with an ABHINAYA_* environment fallback
	httpAddr = flag.String("http", envString("ABHINAYA_HTTP", ":8080"), "HTTP server address")
	dataDir  = flag.String("data-dir", envString("ABHINAYA_DATA_DIR", defaultDataDir()), "Directory for the database and artifacts")
	cameraID = flag.Int("camera", envInt("ABHINAYA_CAMERA", 0), "Camera device id (-1 runs without a server camera)")
	webDir   = flag.String("web", envString("ABHINAYA_WEB", ""), "Static web directory (auto-discovered when empty)")
	logLevel = flag.String("log-level", envString("ABHINAYA_LOG_LEVEL", "info"), "Log level (debug, info, warn, error, silent)")
	logColor = flag.Bool("log-color", envBool("ABHINAYA_LOG_COLOR", true), "Enable colored log output")
	useTray  = flag.Bool("tray", envBool("ABHINAYA_TRAY", false), "Show the system tray menu")
	motion   = flag.Float64("motion", envFloat("ABHINAYA_MOTION", 0), "Skip detection unless this percent of pixels changed (0 disables)")
)

func main() {
	flag.Parse()

	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger.Init(level, os.Stderr, *logColor)
	if level > logger.DEBUG {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Main", "Abhinaya - gesture overlay starting")

	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(filepath.Join(*dataDir, "abhinaya.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	artifactDir := filepath.Join(*dataDir, "artifacts")
	writer, err := artifact.NewWriter(artifactDir, st.Artifacts())
	if err != nil {
		log.Fatalf("Failed to initialize artifact directory: %v", err)
	}

	hooks := hook.NewManager(filepath.Join(*dataDir, "hooks"))
	if err := hooks.Discover(); err != nil {
		logger.Warn("Main", "Hook discovery failed: %v", err)
	}

	m := metrics.New()
	a := app.New(app.Config{
		Artifacts:    writer,
		Metrics:      m,
		Hooks:        hooks,
		DataDir:      *dataDir,
		CameraID:     *cameraID,
		MotionThresh: *motion,
	})
	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}

	web := *webDir
	if web == "" {
		web = findWebDir()
	}
	if web != "" {
		logger.Info("Main", "Serving static files from: %s", web)
	}

	srv := server.New(server.Config{
		StaticDir: web,
		App:       a,
		Store:     st,
		Artifacts: writer,
		Metrics:   m,
	})

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe(*httpAddr)
	}()

	stop := make(chan struct{})
	if *useTray {
		go waitForShutdown(serveErr, func() { close(stop) })
		runTray(a, artifactDir, stop)
	} else {
		waitForShutdown(serveErr, func() { close(stop) })
	}

	logger.Info("Main", "Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("Main", "Error during HTTP shutdown: %v", err)
	}
	if err := a.Close(); err != nil {
		logger.Warn("Main", "Error during app shutdown: %v", err)
	}
	logger.Info("Main", "Stopped")
}

// waitForShutdown blocks until a signal arrives or the server fails.
func waitForShutdown(serveErr <-chan error, done func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info("Main", "Received %s", sig)
	case err := <-serveErr:
		if err != nil {
			logger.Error("Main", "Server failed: %v", err)
		}
	}
	done()
}

// runTray blocks on the tray loop, which must own the main goroutine,
// until the user quits or stop is closed.
func runTray(a *app.App, artifactDir string, stop <-chan struct{}) {
	t := tray.New()

	ch, unsubscribe := a.Subscribe()
	defer unsubscribe()
	go t.Watch(ch)

	t.OnCamera(func(on bool) {
		var err error
		if on {
			err = a.StartCamera()
		} else {
			err = a.StopCamera()
		}
		if err != nil {
			logger.Warn("Tray", "Camera: %v", err)
		}
	})
	t.OnOpen(func() { openPath(overlayURL(*httpAddr)) })
	t.OnDataDir(func() { openPath(artifactDir) })

	quit := make(chan struct{})
	t.OnQuit(func() { close(quit) })

	go func() {
		select {
		case <-stop:
			t.Quit()
		case <-quit:
		}
	}()
	t.Run()
}

func overlayURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

// openPath hands a URL or folder to the desktop.
func openPath(target string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		logger.Warn("Main", "Could not open %s: %v", target, err)
		return
	}
	go cmd.Wait()
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".abhinaya"
	}
	return filepath.Join(homeDir, ".abhinaya")
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.abhinaya/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(defaultDataDir(), "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		fmt.Fprintf(os.Stderr, "ignoring %s=%q: not an integer\n", key, v)
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		fmt.Fprintf(os.Stderr, "ignoring %s=%q: not a number\n", key, v)
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		fmt.Fprintf(os.Stderr, "ignoring %s=%q: not a boolean\n", key, v)
	}
	return def
}
