package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/illarion/dehook/internal/config"
	"github.com/illarion/dehook/internal/storage"
)

// Compact compacts the bolt settings database to reclaim unused space.
// The daemon must be stopped, since it holds the database open.
func Compact(configPath string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		HandleError(err)
	}
	if cfg.Storage.Driver != storage.DriverBolt {
		fmt.Fprintf(os.Stderr, "Error: compact only applies to the bolt driver (configured: %s)\n", cfg.Storage.Driver)
		os.Exit(1)
	}

	report, err := compactDatabase(cfg.Storage.Path)
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("Database: %s\n", cfg.Storage.Path)
	fmt.Printf("Created:  %s\n", report.Created.Format(time.RFC3339))
	fmt.Printf("Modified: %s\n", report.Modified.Format(time.RFC3339))
	fmt.Printf("Compacted: %s -> %s\n", formatSize(report.SizeBefore), formatSize(report.SizeAfter))
}

// compactReport describes one compaction
type compactReport struct {
	Created    time.Time
	Modified   time.Time
	SizeBefore int64
	SizeAfter  int64
}

func compactDatabase(path string) (*compactReport, error) {
	// Get file size before
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no settings database at %s, run 'dehook serve' once to create it", path)
		}
		return nil, err
	}
	report := &compactReport{SizeBefore: info.Size()}

	db, err := storage.OpenBolt(path)
	if err != nil {
		return nil, fmt.Errorf("%w\nStop the daemon before compacting", err)
	}
	defer db.Close()

	initialized, err := db.IsInitialized()
	if err != nil {
		return nil, err
	}
	if !initialized {
		return nil, fmt.Errorf("%s is not a dehook settings database", path)
	}
	if report.Created, err = db.Created(); err != nil {
		return nil, err
	}
	if report.Modified, err = db.Modified(); err != nil {
		return nil, err
	}

	if err := db.Compact(); err != nil {
		return nil, err
	}

	// Get file size after
	info, err = os.Stat(path)
	if err != nil {
		return nil, err
	}
	report.SizeAfter = info.Size()
	return report, nil
}

// formatSize formats a file size in human-readable form
func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
