package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/mazesolver/internal/config"
	"github.com/banshee-data/mazesolver/internal/db"
	"github.com/banshee-data/mazesolver/internal/mission"
	"github.com/banshee-data/mazesolver/internal/monitoring"
	"github.com/banshee-data/mazesolver/internal/serialmux"
	"github.com/banshee-data/mazesolver/internal/version"
)

var (
	configFile  = flag.String("config", "", "Path to a mission config file (.json or .yaml)")
	port        = flag.String("port", config.DefaultSerialPath, "Serial port connected to the robot")
	console     = flag.Bool("console", false, "Exchange readings as binary text lines on stdin/stdout instead of the serial port")
	journalPath = flag.String("db", config.DefaultJournalPath, "Journal database path (empty to disable)")
	listen      = flag.String("listen", config.DefaultListen, "Debug HTTP listen address (empty to disable)")
	verbose     = flag.Bool("verbose", false, "Log every step and print the map after each move")
	listPorts   = flag.Bool("list-ports", false, "List serial ports and exit")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags]\n       %s migrate <up|down|status>\n\nFlags:\n", os.Args[0], os.Args[0])
	flag.PrintDefaults()
}

// loadConfig reads the config file, if any, and applies the flags the user
// set explicitly on top of it.
func loadConfig(fs *flag.FlagSet) (*config.MissionConfig, error) {
	cfg := config.DefaultMissionConfig()
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadMissionConfig(*configFile); err != nil {
			return nil, err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.SerialPath = port
		case "console":
			t := config.TransportSerial
			if *console {
				t = config.TransportConsole
			}
			cfg.Transport = &t
		case "db":
			cfg.JournalPath = journalPath
		case "listen":
			cfg.Listen = listen
		case "verbose":
			cfg.Verbose = verbose
		}
	})
	return cfg, cfg.Validate()
}

func openLink(cfg *config.MissionConfig) (serialmux.LinkInterface, error) {
	if cfg.GetTransport() == config.TransportConsole {
		// Responses go to stdout; log writes to stderr.
		return serialmux.NewConsoleLink(), nil
	}
	link, err := serialmux.NewRealLink(cfg.GetSerialPath(), cfg.GetSerial())
	if err != nil {
		return nil, err
	}
	return link, nil
}

func runMigrate(args []string, path string) error {
	if len(args) < 1 {
		return errors.New("migrate needs an action: up, down or status")
	}
	journal, err := db.OpenDB(path)
	if err != nil {
		return err
	}
	defer journal.Close()

	switch args[0] {
	case "up":
		return journal.MigrateUp(db.MigrationsFS())
	case "down":
		return journal.MigrateDown(db.MigrationsFS())
	case "status":
		v, dirty, err := journal.MigrateVersion(db.MigrationsFS())
		if err != nil {
			return err
		}
		fmt.Printf("schema version %d (dirty=%v)\n", v, dirty)
		return nil
	default:
		return fmt.Errorf("unknown migrate action %q", args[0])
	}
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *listPorts {
		ports, err := serialmux.ListPorts()
		if err != nil {
			log.Fatalf("failed to list serial ports: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	cfg, err := loadConfig(flag.CommandLine)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	monitoring.SetVerbose(cfg.GetVerbose())

	if flag.Arg(0) == "migrate" {
		if err := runMigrate(flag.Args()[1:], cfg.GetJournalPath()); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}

	link, err := openLink(cfg)
	if err != nil {
		log.Fatalf("failed to open robot link: %v", err)
	}
	defer link.Close()

	opts := mission.Options{
		Engine:    cfg.EngineConfig(),
		Transport: cfg.GetTransport(),
		Config:    cfg,
	}
	var journal *db.DB
	if path := cfg.GetJournalPath(); path != "" {
		journal, err = db.NewDB(path)
		if err != nil {
			log.Fatalf("failed to open journal: %v", err)
		}
		defer journal.Close()
		opts.Journal = journal
	}

	runner, err := mission.New(link, opts)
	if err != nil {
		log.Fatalf("failed to start mission: %v", err)
	}
	log.Printf("%s: %s transport, %d tiles per axis", version.String(), cfg.GetTransport(), cfg.GetMaxTilesPerAxis())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if addr := cfg.GetListen(); addr != "" {
		mux := http.NewServeMux()
		serialmux.AttachAdminRoutes(mux, link)
		runner.AttachAdminRoutes(mux)
		if journal != nil {
			journal.AttachAdminRoutes(mux)
		}
		server := &http.Server{Addr: addr, Handler: mux}

		wg.Add(1)
		go func() {
			defer wg.Done()
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Printf("debug server failed: %v", err)
				}
			}()
			log.Printf("debug pages at http://%s/debug/", addr)

			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("HTTP server shutdown error: %v", err)
				server.Close()
			}
		}()
	}

	runErr := runner.Run(ctx)
	// The debug server outlives a finished mission until interrupted, so
	// the final map stays inspectable.
	if runErr == nil && cfg.GetListen() != "" && ctx.Err() == nil {
		log.Printf("mission complete; debug pages stay up until interrupted")
		<-ctx.Done()
	}
	stop()
	wg.Wait()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Fatalf("mission failed: %v", runErr)
	}
}
