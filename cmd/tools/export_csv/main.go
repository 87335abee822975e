// Command export_csv dumps the readings held by a climatix store to one CSV
// file per device, using the same column layout as the download endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/soltixdb/climatix/internal/config"
	"github.com/soltixdb/climatix/internal/logging"
	"github.com/soltixdb/climatix/internal/services"
	"github.com/soltixdb/climatix/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (storage section is used)")
	backend := flag.String("backend", "", "Override storage backend (file, badger)")
	dataDir := flag.String("data-dir", "", "Override storage data directory")
	output := flag.String("output", "./data/csv", "Output CSV directory")
	deviceID := flag.String("device", "", "Export a single device (optional)")
	period := flag.String("period", "all", "Period to export (day, week, month, all)")
	param := flag.String("param", "all", "Columns to export (all, temp, hum, lux)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v\n", err)
	}
	if *backend != "" {
		cfg.Storage.Backend = *backend
	}
	if *dataDir != "" {
		cfg.Storage.DataDir = *dataDir
	}
	if cfg.Storage.Backend == "" || cfg.Storage.Backend == "memory" {
		log.Fatalf("Error: the memory backend holds nothing to export, use -backend file or badger\n")
	}

	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		log.Fatalf("Error opening store: %v\n", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	devices := []string{*deviceID}
	if *deviceID == "" {
		devices, err = store.Devices(ctx)
		if err != nil {
			log.Fatalf("Error listing devices: %v\n", err)
		}
	}
	if len(devices) == 0 {
		log.Printf("Warning: No devices found\n")
		return
	}

	if err := os.MkdirAll(*output, 0o755); err != nil {
		log.Fatalf("Error creating output directory: %v\n", err)
	}

	data := services.NewDataService(logging.NewNop(), store, cfg.Storage.Location())
	total := 0
	for _, id := range devices {
		n, err := exportDevice(ctx, data, *output, id, *period, *param)
		if err != nil {
			log.Printf("Skipping %s: %v\n", id, err)
			continue
		}
		total += n
	}

	fmt.Printf("Exported %d readings from %d devices to %s\n", total, len(devices), *output)
}

func exportDevice(ctx context.Context, data *services.DataService, dir, id, period, param string) (int, error) {
	export, err := data.Export(ctx, &services.ExportRequest{
		DeviceID: id,
		Period:   period,
		Param:    param,
	})
	if err != nil {
		return 0, err
	}

	path := filepath.Join(dir, export.Filename("csv"))
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := export.WriteCSV(f); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Printf("  %s: %d readings -> %s\n", id, len(export.Readings), path)
	return len(export.Readings), nil
}
