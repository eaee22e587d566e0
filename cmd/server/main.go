package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/motion-console/backend/internal/api"
	"github.com/motion-console/backend/internal/autorun"
	"github.com/motion-console/backend/internal/camera"
	"github.com/motion-console/backend/internal/config"
	"github.com/motion-console/backend/internal/controller"
	"github.com/motion-console/backend/internal/history"
	"github.com/motion-console/backend/internal/models"
	"github.com/motion-console/backend/internal/multispec"
	"github.com/motion-console/backend/internal/panel"
	"github.com/motion-console/backend/internal/route"
	"github.com/motion-console/backend/internal/telemetry"
	"github.com/motion-console/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, "MotionConsole.exe.config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	embeddedMode := web.HasEmbeddedFiles()

	requestTimeout := time.Duration(cfg.Controller.RequestTimeout) * time.Second
	ctrl := controller.NewClient(cfg.Controller.BaseURL, requestTimeout)

	// Device table: yaml override merged over the compiled-in six.
	devices, commands, err := panel.LoadDeviceTable(cfg.Advanced.DeviceTablePath)
	if err != nil {
		fmt.Printf("Failed to load device table: %v\n", err)
		os.Exit(1)
	}
	pnl := panel.New(ctrl, devices, commands)

	// Axis bounds: fetched once, defaults on failure, immutable for the
	// session.
	startupCtx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	bounds, err := ctrl.GetBounds(startupCtx)
	if err != nil {
		fmt.Printf("[bounds] fetch failed, using defaults: %v\n", err)
		bounds = models.DefaultBounds()
	}

	// Route catalog: server-held config, seeded when empty or
	// unreachable.
	routes := route.NewStore()
	serverRoutes, err := ctrl.GetAutorunConfig(startupCtx)
	if err != nil {
		fmt.Printf("[routes] config fetch failed, starting with default route: %v\n", err)
	} else {
		routes.Load(serverRoutes)
	}
	cancel()

	poller := telemetry.NewPoller(ctrl, time.Duration(cfg.Polling.TelemetryIntervalMs)*time.Millisecond, pnl.CoilNames())
	runCtl := autorun.NewController(ctrl, time.Duration(cfg.Polling.AutorunIntervalMs)*time.Millisecond)

	// Fresh telemetry always overrides optimistic panel assumptions.
	poller.AddSink(pnl.Observe)

	h := api.NewHandler(ctrl, routes, poller, runCtl, pnl, bounds)

	// History archive
	if cfg.History.Enabled {
		archive, err := history.NewStore(cfg.History.DataDirectory, cfg.History.DuckDBThreads, cfg.History.MemoryLimit)
		if err != nil {
			fmt.Printf("Warning: history archive disabled: %v\n", err)
		} else {
			h.WithHistory(archive)
			poller.AddSink(archive.AppendTelemetry)
			runCtl.AddSink(archive.RecordRunState)

			// Background retention prune
			go func() {
				ticker := time.NewTicker(24 * time.Hour)
				defer ticker.Stop()
				for range ticker.C {
					cutoff := time.Now().AddDate(0, 0, -cfg.History.RetentionDays)
					if err := archive.PruneOlderThan(cutoff); err != nil {
						fmt.Printf("[history] prune failed: %v\n", err)
					}
				}
			}()
		}
	}

	// Camera collaborators share the controller host unless configured
	// elsewhere.
	cam := camera.NewClient(cfg.CameraBase(), requestTimeout)
	ms := multispec.NewClient(cfg.MultispecBase(), requestTimeout)
	h.WithCameras(cam, ms)

	// WebSocket state stream
	wsHandler := api.NewWebSocketHandler()
	poller.AddSink(wsHandler.BroadcastTelemetry)
	runCtl.AddSink(wsHandler.BroadcastRunState)

	poller.Start()
	runCtl.StartPolling()

	e := echo.New()
	e.HTTPErrorHandler = api.ErrorHandler

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			// 1 Hz display polls would drown the log
			path := c.Request().URL.Path
			return path == "/api/state" ||
				path == "/api/autorun/status" ||
				path == "/api/preview" ||
				path == "/api/panel" ||
				path == "/api/health"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
		LogLevel:          0,
	}))

	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	// API Routes
	apiGroup := e.Group("/api")

	apiGroup.GET("/health", h.HandleHealth)
	apiGroup.GET("/ws/state", wsHandler.HandleStateStream)

	// Machine state and setpoints
	apiGroup.GET("/state", h.HandleGetState)
	apiGroup.GET("/bounds", h.HandleGetBounds)
	apiGroup.POST("/speeds", h.HandleSetSpeeds)
	apiGroup.POST("/coords", h.HandleSetCoords)
	apiGroup.POST("/coil", h.HandlePulseCoil)

	// Peripheral panel
	apiGroup.GET("/panel", h.HandleGetPanel)
	apiGroup.POST("/panel/:device/toggle", h.HandleToggleDevice)

	// Route catalog
	apiGroup.GET("/routes", h.HandleListRoutes)
	apiGroup.POST("/routes", h.HandleCreateRoute)
	apiGroup.GET("/routes/:name", h.HandleGetRoute)
	apiGroup.PUT("/routes/:name", h.HandleUpsertRoute)
	apiGroup.DELETE("/routes/:name", h.HandleDeleteRoute)
	apiGroup.POST("/routes/:name/rename", h.HandleRenameRoute)
	apiGroup.POST("/routes/:name/select", h.HandleSelectRoute)

	// Preview draw model
	apiGroup.GET("/preview", h.HandlePreview)

	// Autorun
	apiGroup.GET("/autorun/status", h.HandleAutorunStatus)
	apiGroup.POST("/autorun/start", h.HandleAutorunStart)
	apiGroup.POST("/autorun/stop", h.HandleAutorunStop)
	apiGroup.POST("/autorun/pause", h.HandleAutorunPause)

	// History archive
	apiGroup.GET("/history/telemetry", h.HandleHistoryTelemetry)
	apiGroup.GET("/history/telemetry/msgpack", h.HandleHistoryTelemetryMsgpack)
	apiGroup.GET("/history/runs", h.HandleHistoryRuns)

	// Camera collaborators
	apiGroup.GET("/camera/config", h.HandleCameraConfig)
	apiGroup.POST("/camera/:op", h.HandleCameraControl)
	apiGroup.GET("/multispec/config", h.HandleMultispecConfig)
	apiGroup.GET("/multispec/channels", h.HandleMultispecChannels)
	apiGroup.POST("/multispec/refresh", h.HandleMultispecRefresh)
	apiGroup.POST("/multispec/config/update", h.HandleMultispecConfigUpdate)

	// Register embedded frontend if available
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			fmt.Printf("Warning: failed to register static routes: %v\n", err)
		} else {
			fmt.Println("Serving embedded frontend from binary")
		}
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Motion Console Server                           ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:     %-45s║\n", configPath)
	fmt.Printf("║  Listen:     http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Controller: %-45s║\n", cfg.Controller.BaseURL)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if embeddedMode {
		fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}

	e.Logger.Fatal(e.StartServer(s))
}
