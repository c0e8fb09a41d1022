/*
Package openfa is a library for converting the PIC images shipped with the
Fighters Anthology family of flight simulators into PNG files.
*/
package openfa

import (
	"github.com/bodgit/openfa/pal"
	"github.com/go-kit/log"
)

// Config controls how files are converted
type Config struct {
	// Output is the directory to write PNG files to. If empty, each PNG
	// is written alongside its source file.
	Output string
	// Workers is the number of files converted concurrently
	Workers int
	// Colors, if non-zero, writes paletted PNG files with at most this
	// many colors
	Colors int
	// Force converts files even if the catalog has already seen them
	Force bool
	// Palette names the system palette in the catalog
	Palette string
}

const defaultWorkers = 4

// Converter converts PIC files to PNG files
type Converter struct {
	cfg     Config
	palette *pal.Palette
	db      *CatalogDB
	logger  log.Logger
	metrics *Metrics
}

// New returns a Converter that resolves colors missing from each embedded
// palette with palette. db may be nil in which case nothing is recorded.
func New(cfg Config, palette *pal.Palette, db *CatalogDB, logger log.Logger) *Converter {
	if cfg.Workers < 1 {
		cfg.Workers = defaultWorkers
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Converter{
		cfg:     cfg,
		palette: palette,
		db:      db,
		logger:  logger,
		metrics: NewMetrics(),
	}
}

// Metrics returns the metrics collected by the converter
func (c *Converter) Metrics() *Metrics {
	return c.metrics
}
