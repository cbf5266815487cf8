package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"hubgate/internal/auth"
	"hubgate/internal/config"
	"hubgate/internal/db"
	"hubgate/internal/events"
	"hubgate/internal/handlers"
	"hubgate/internal/middleware"
	"hubgate/internal/models"
	"hubgate/internal/notify"
	"hubgate/internal/pdu"
	"hubgate/internal/remote"
	"hubgate/internal/settings"
	"hubgate/internal/version"
)

func main() {
	cfg := config.Load()

	if err := db.Init(cfg.DBPath); err != nil {
		log.Fatalf("❌ Database init failed: %v", err)
	}
	defer db.DB.Close()

	if err := settings.InitSettingsTable(db.DB); err != nil {
		log.Fatalf("❌ Settings init failed: %v", err)
	}

	auth.CreateDefaultAdmin(cfg)
	auth.CleanupExpiredSessions()

	bus := events.NewBus()

	// Device registry with real browser sessions.
	timeouts := pdu.DefaultSessionTimeouts()
	timeouts.Navigation = settings.GetDurationSetting(db.DB, "pdu", "navigation_timeout_seconds", timeouts.Navigation)
	timeouts.Action = settings.GetDurationSetting(db.DB, "pdu", "dialog_wait_seconds", timeouts.Action)
	factory := func(p models.PDU) pdu.Session {
		return pdu.NewChromeSession(p.Address, p.Username, p.Password, cfg.ChromePath, timeouts)
	}
	registry := pdu.NewRegistry(pdu.SQLStore{DB: db.DB}, factory, bus)
	defer registry.CloseAll()

	sshTimeout := settings.GetDurationSetting(db.DB, "ssh", "timeout_seconds", remote.DefaultTimeout)
	actions := remote.NewActions(sshTimeout)

	dispatcher := notify.NewDispatcher(db.DB, bus, nil)
	dispatcher.Start()
	defer dispatcher.Stop()

	stream := handlers.NewEventStream(bus)
	defer stream.CloseAll()

	handlers.Registry = registry
	handlers.Actions = actions
	handlers.Bus = bus

	settingsHandler := settings.NewHandler(db.DB)
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	protect := func(h http.HandlerFunc) http.HandlerFunc {
		return auth.Middleware(cfg, h)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Hub Gateway is Online"))
	})
	mux.HandleFunc("GET /api/version", func(w http.ResponseWriter, r *http.Request) {
		handlers.JSONResponse(w, map[string]string{"version": version.Version})
	})

	// Auth
	mux.HandleFunc("GET /api/auth/status", auth.Status(cfg))
	mux.HandleFunc("POST /api/auth/login", loginLimiter.Limit(auth.Login(cfg)))
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)
	mux.HandleFunc("POST /api/auth/password", protect(auth.ChangePassword))

	// Rooms
	mux.HandleFunc("GET /api/rooms", protect(handlers.ListRooms))
	mux.HandleFunc("POST /api/rooms", protect(handlers.CreateRoom))
	mux.HandleFunc("GET /api/rooms/{code}", protect(handlers.GetRoom))
	mux.HandleFunc("PUT /api/rooms/{code}", protect(handlers.UpdateRoom))
	mux.HandleFunc("DELETE /api/rooms/{code}", protect(handlers.DeleteRoom))

	// Hosts + actions
	mux.HandleFunc("GET /api/hosts", protect(handlers.ListHosts))
	mux.HandleFunc("POST /api/hosts", protect(handlers.CreateHost))
	mux.HandleFunc("GET /api/hosts/{address}", protect(handlers.GetHost))
	mux.HandleFunc("PUT /api/hosts/{address}", protect(handlers.UpdateHost))
	mux.HandleFunc("DELETE /api/hosts/{address}", protect(handlers.DeleteHost))
	mux.HandleFunc("POST /api/hosts/{address}/reboot", protect(handlers.RebootHost))
	mux.HandleFunc("POST /api/hosts/{address}/mute", protect(handlers.MuteHost))
	mux.HandleFunc("POST /api/hosts/{address}/app", protect(handlers.OpenApplication))
	mux.HandleFunc("POST /api/hosts/{address}/kiosk", protect(handlers.OpenKiosk))
	mux.HandleFunc("POST /api/hosts/{address}/kill", protect(handlers.CloseProcess))
	mux.HandleFunc("POST /api/hosts/{address}/nircmd", protect(handlers.RunNircmd))
	mux.HandleFunc("POST /api/hosts/{address}/volume", protect(handlers.ChangeVolume))
	mux.HandleFunc("POST /api/hosts/{address}/wake", protect(handlers.WakeHost))

	// Displays + projector control
	mux.HandleFunc("GET /api/displays", protect(handlers.ListDisplays))
	mux.HandleFunc("POST /api/displays", protect(handlers.CreateDisplay))
	mux.HandleFunc("GET /api/displays/{address}", protect(handlers.GetDisplay))
	mux.HandleFunc("PUT /api/displays/{address}", protect(handlers.UpdateDisplay))
	mux.HandleFunc("DELETE /api/displays/{address}", protect(handlers.DeleteDisplay))
	mux.HandleFunc("GET /api/displays/{address}/state", protect(handlers.GetProjectorState))
	mux.HandleFunc("POST /api/displays/{address}/power", protect(handlers.SetProjectorPower))
	mux.HandleFunc("PUT /api/displays/{address}/mute", protect(handlers.SetProjectorMute))
	mux.HandleFunc("PUT /api/displays/{address}/volume", protect(handlers.SetProjectorVolume))
	mux.HandleFunc("PUT /api/displays/{address}/input", protect(handlers.SetProjectorInput))

	// PDUs
	mux.HandleFunc("GET /api/pdus", protect(handlers.ListPDUs))
	mux.HandleFunc("POST /api/pdus", protect(handlers.CreatePDU))
	mux.HandleFunc("DELETE /api/pdus/{address}", protect(handlers.DeletePDU))
	mux.HandleFunc("POST /api/pdus/{address}/connect", protect(handlers.ConnectPDU))
	mux.HandleFunc("POST /api/pdus/{address}/disconnect", protect(handlers.DisconnectPDU))
	mux.HandleFunc("GET /api/pdus/{address}/system", protect(handlers.GetPDUSystem))
	mux.HandleFunc("GET /api/pdus/{address}/outlets", protect(handlers.GetPDUOutlets))
	mux.HandleFunc("GET /api/pdus/{address}/network", protect(handlers.GetPDUNetwork))
	mux.HandleFunc("GET /api/pdus/{address}/ping", protect(handlers.GetPDUPingActions))
	mux.HandleFunc("GET /api/pdus/{address}/config", protect(handlers.GetPDUConfig))
	mux.HandleFunc("GET /api/pdus/{address}/all", protect(handlers.GetPDUAll))
	mux.HandleFunc("PUT /api/pdus/{address}/system", protect(handlers.UpdatePDUSystem))
	mux.HandleFunc("PUT /api/pdus/{address}/user", protect(handlers.UpdatePDUUser))
	mux.HandleFunc("PUT /api/pdus/{address}/network", protect(handlers.UpdatePDUNetwork))
	mux.HandleFunc("PUT /api/pdus/{address}/config", protect(handlers.UpdatePDUConfig))
	mux.HandleFunc("PUT /api/pdus/{address}/ping", protect(handlers.UpdatePDUPingActions))
	mux.HandleFunc("POST /api/pdus/{address}/outlets/{outlet}/power", protect(handlers.PDUPowerAction))

	// Settings
	mux.HandleFunc("GET /api/settings", protect(settingsHandler.GetAllSettings))
	mux.HandleFunc("GET /api/settings/{category}/{key}", protect(settingsHandler.GetSetting))
	mux.HandleFunc("PUT /api/settings/{category}/{key}", protect(settingsHandler.UpdateSetting))

	// Live event stream
	mux.HandleFunc("GET /api/events/ws", protect(stream.HandleConnection))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: middleware.CORS(middleware.Logging(mux)),
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		log.Println("🔌 Shutting down, closing device sessions...")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	log.Printf("🚀 Hub Gateway v%s listening on port %s", version.Version, cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
