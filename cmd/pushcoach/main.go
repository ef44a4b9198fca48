package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/nevik/pushcoach/internal/config"
	"github.com/nevik/pushcoach/internal/filter"
	"github.com/nevik/pushcoach/internal/server"
	"github.com/nevik/pushcoach/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	fmt.Println("pushcoach - push-up counter and form analyzer")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	st, err := store.New(cfg.DB.Path)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	profile, err := st.Profiles().GetByName(cfg.Session.Profile)
	if err != nil {
		log.Fatalf("Failed to load profile %q: %v", cfg.Session.Profile, err)
	}
	if cfg.Session.MinVisibility > 0 {
		profile.MinVisibility = cfg.Session.MinVisibility
	}
	log.Printf("Using profile %q (down %.0f°±%.0f°, up >%.0f°)",
		profile.Name, profile.Counter.DownAngle, profile.Counter.AngleTolerance,
		profile.Counter.UpThreshold)

	srv := server.New(server.Config{
		StaticDir: cfg.Server.StaticDir,
		Store:     st,
		Profile:   profile,
		Filter: filter.Params{
			Freq:      cfg.Filter.Freq,
			MinCutoff: cfg.Filter.MinCutoff,
			Beta:      cfg.Filter.Beta,
			DCutoff:   cfg.Filter.DCutoff,
		},
	})

	fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
	if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
