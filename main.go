// Command reading-report computes word-level reading measures from
// AOI-mapped fixation events. It runs either as a one-shot CLI that writes a
// measures CSV, or as an HTTP server persisting analysis runs in sqlite.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/multipleye-data/reading.report/api"
	"github.com/multipleye-data/reading.report/internal/config"
	"github.com/multipleye-data/reading.report/internal/measures"
	"github.com/multipleye-data/reading.report/internal/storage/sqlite"
	"github.com/multipleye-data/reading.report/internal/tables"
	"github.com/multipleye-data/reading.report/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to JSON config file (optional)")
	listen     = flag.String("listen", "", "Listen address (serve mode)")
	dbPath     = flag.String("db", "", "Path to sqlite database")
	serve      = flag.Bool("serve", false, "Run the HTTP server")
	migrateCmd = flag.String("migrate", "", "Run schema migrations: up or status")

	fixationsPath = flag.String("fixations", "", "Fixation event table (CSV)")
	aoiPath       = flag.String("aois", "", "AOI word inventory (CSV)")
	outPath       = flag.String("out", "", "Output measures table (CSV)")
	trialLabel    = flag.String("trial", "", "Trial label for AOI rows without one")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("reading-report %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg := config.EmptyConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	// One-shot mode only persists when a database was asked for explicitly.
	persist := *dbPath != ""

	// Flags override the config file.
	if *listen == "" {
		*listen = cfg.GetListen()
	}
	if *dbPath == "" {
		*dbPath = cfg.GetDBPath()
	}
	if *trialLabel == "" {
		*trialLabel = cfg.GetTrialLabel()
	}

	switch {
	case *migrateCmd != "":
		runMigrate(cfg, *migrateCmd)
	case *serve:
		runServer(cfg)
	case *fixationsPath != "" || *aoiPath != "":
		runOnce(cfg, persist)
	default:
		log.Fatal("nothing to do: pass -serve, -migrate, or -fixations/-aois/-out")
	}
}

// runOnce analyses one pair of input tables and writes the measures CSV.
// With -db given it also records the run and its measures there.
func runOnce(cfg *config.AppConfig, persist bool) {
	if *fixationsPath == "" || *aoiPath == "" || *outPath == "" {
		log.Fatal("one-shot mode needs -fixations, -aois and -out")
	}

	events, err := tables.LoadFixations(*fixationsPath)
	if err != nil {
		log.Fatalf("failed to load fixation table: %v", err)
	}
	aois, err := tables.LoadAOIs(*aoiPath, *trialLabel)
	if err != nil {
		log.Fatalf("failed to load aoi table: %v", err)
	}

	engine := measures.New(measures.Config{Trial: *trialLabel})
	rows, err := engine.Run(aois, events)
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}

	if err := tables.SaveMeasures(*outPath, rows); err != nil {
		log.Fatalf("failed to write measures table: %v", err)
	}
	log.Printf("wrote %d word rows to %s", len(rows), *outPath)

	if !persist {
		return
	}
	db, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.MigrateUp(cfg.GetMigrationsDir()); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	run := &sqlite.AnalysisRun{
		TrialLabel:    *trialLabel,
		FixationsPath: *fixationsPath,
		AOIPath:       *aoiPath,
	}
	if err := sqlite.NewRunStore(db).Insert(run); err != nil {
		log.Fatalf("failed to store run: %v", err)
	}
	if err := sqlite.NewMeasuresStore(db).InsertMeasures(run.RunID, rows); err != nil {
		log.Fatalf("failed to store measures: %v", err)
	}
	log.Printf("recorded run %s in %s", run.RunID, *dbPath)
}

func runMigrate(cfg *config.AppConfig, cmd string) {
	db, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	switch cmd {
	case "up":
		if err := db.MigrateUp(cfg.GetMigrationsDir()); err != nil {
			log.Fatalf("migrate up failed: %v", err)
		}
		log.Print("migrations applied")
	case "status":
		version, dirty, err := db.MigrateVersion(cfg.GetMigrationsDir())
		if err != nil {
			log.Fatalf("migrate status failed: %v", err)
		}
		log.Printf("schema version %d (dirty=%v)", version, dirty)
	default:
		log.Fatalf("unknown migrate command %q", cmd)
	}
}

func runServer(cfg *config.AppConfig) {
	db, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.MigrateUp(cfg.GetMigrationsDir()); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// admin debugging routes (tailsql, backup)
		db.AttachAdminRoutes(mux)

		apiMux := api.NewServer(db, *trialLabel, cfg.DataDirs...).ServeMux()
		mux.Handle("/api/", http.StripPrefix("/api", apiMux))

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("got request %q", r.URL.Path)
			mux.ServeHTTP(w, r)
		})

		server := &http.Server{
			Addr:    *listen,
			Handler: h,
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()
		log.Printf("reading-report %s listening on %s", version.Version, *listen)

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}()

	wg.Wait()
	log.Printf("graceful shutdown complete")
}
