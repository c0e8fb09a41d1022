package openfa

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/openfa/indexed"
	"github.com/bodgit/openfa/pic"
	"github.com/go-kit/log/level"
)

const (
	picExtension  = ".pic"
	zstdExtension = ".zst"
	pngExtension  = ".png"
)

func trimExtension(file string) (string, bool) {
	base := filepath.Base(file)
	if strings.EqualFold(filepath.Ext(base), zstdExtension) {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if !strings.EqualFold(filepath.Ext(base), picExtension) {
		return base, false
	}
	return strings.TrimSuffix(base, filepath.Ext(base)), true
}

func isPIC(file string) bool {
	_, ok := trimExtension(file)
	return ok
}

var errOutputTaken = errors.New("output already written this run")

// source is a file found while walking root. root equals file when the file
// was named explicitly.
type source struct {
	file string
	root string
}

// outputPath mirrors the layout below the walked root under the output
// directory so same-named files in different directories don't collide
func (c *Converter) outputPath(src source) string {
	base, _ := trimExtension(src.file)
	if c.cfg.Output == "" {
		return filepath.Join(filepath.Dir(src.file), base+pngExtension)
	}

	dir := c.cfg.Output
	if src.file != src.root {
		if rel, err := filepath.Rel(src.root, filepath.Dir(src.file)); err == nil {
			dir = filepath.Join(dir, rel)
		}
	}
	return filepath.Join(dir, base+pngExtension)
}

// claims tracks which file produced each output path during a run
type claims struct {
	mu      sync.Mutex
	outputs map[string]string
}

func newClaims() *claims {
	return &claims{
		outputs: make(map[string]string),
	}
}

// claim reserves out for file, returning the file that already holds it
func (cl *claims) claim(out, file string) (string, bool) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if prev, ok := cl.outputs[out]; ok {
		return prev, false
	}
	cl.outputs[out] = file
	return "", true
}

func (c *Converter) writePNG(file string, m image.Image) error {
	if c.cfg.Colors > 0 {
		pm, err := indexed.Convert(m, c.cfg.Colors)
		if err != nil {
			return err
		}
		m = pm
	}

	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return err
	}

	f, err := os.Create(file)
	if err != nil {
		return err
	}

	if err := png.Encode(f, m); err != nil {
		f.Close()
		os.Remove(file)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(file)
		return err
	}

	return nil
}

// ConvertFile decodes the PIC file in and writes it to out as a PNG file.
// Nothing is recorded in the catalog.
func (c *Converter) ConvertFile(in, out string) (pic.Stats, error) {
	b, err := ReadSource(in)
	if err != nil {
		return pic.Stats{}, err
	}

	m, stats, err := pic.DecodeBytes(b, c.palette)
	if err != nil {
		return pic.Stats{}, err
	}

	if err := c.writePNG(out, m); err != nil {
		return pic.Stats{}, err
	}

	return stats, nil
}

func fileExists(file string) bool {
	info, err := os.Stat(file)
	return err == nil && info.Mode().IsRegular()
}

func (c *Converter) failed(run, sha, file, msg string, err error) error {
	level.Warn(c.logger).Log("msg", msg, "file", file, "err", err)
	c.metrics.failed(err)
	if c.db != nil {
		return c.db.AddConversion(run, sha, file, "", 0, err)
	}
	return nil
}

// convert only returns an error if the catalog can't be updated, a file that
// can't be converted is logged and skipped
func (c *Converter) convert(run string, taken *claims, src source) error {
	file := src.file
	b, err := ReadSource(file)
	if err != nil {
		level.Warn(c.logger).Log("msg", "cannot read file", "file", file, "err", err)
		c.metrics.failed(err)
		return nil
	}
	sha := fmt.Sprintf("%X", sha1.Sum(b))
	out := c.outputPath(src)

	if prev, ok := taken.claim(out, file); !ok {
		return c.failed(run, sha, file, "cannot write file", fmt.Errorf("%w: %s by %s", errOutputTaken, out, prev))
	}

	if c.db != nil && !c.cfg.Force {
		ok, err := c.db.Converted(sha, out)
		if err != nil {
			return err
		}
		if ok && fileExists(out) {
			level.Debug(c.logger).Log("msg", "already converted", "file", file, "output", out)
			c.metrics.skipped()
			return nil
		}
	}

	if format, err := pic.Format(b); err == nil && format != pic.FormatSpans {
		level.Debug(c.logger).Log("msg", "unsupported format", "file", file, "format", format)
		c.metrics.skipped()
		return nil
	}

	m, stats, err := pic.DecodeBytes(b, c.palette)
	if err != nil {
		return c.failed(run, sha, file, "cannot decode file", err)
	}

	// Can't fail if the decode succeeded
	info, _ := pic.Inspect(b)

	if err := c.writePNG(out, m); err != nil {
		return c.failed(run, sha, file, "cannot write file", err)
	}

	level.Info(c.logger).Log("msg", "decoded", "file", file, "output", out, "palette_size", info.Palette.Size, "width", info.Width, "height", info.Height, "pixels_size", info.Pixels.Size, "spans", stats.Spans)
	if stats.Pixels > 0 {
		level.Debug(c.logger).Log("msg", "index range", "file", file, "min", stats.MinIndex, "max", stats.MaxIndex)
	}
	c.metrics.decoded(stats)

	if c.db != nil {
		id, err := c.db.AddPicture(sha, info, stats)
		if err != nil {
			return err
		}
		return c.db.AddConversion(run, sha, file, out, id, nil)
	}

	return nil
}

func (c *Converter) findFiles(ctx context.Context, paths []string) (<-chan source, <-chan error, error) {
	out := make(chan source)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for _, path := range paths {
			if err := filepath.Walk(path, func(file string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}

				// Ignore any hidden files or directories below what was asked for
				if file != path && info.Name()[0] == '.' {
					if info.Mode().IsDir() {
						return filepath.SkipDir
					}
					return nil
				}

				// Anything named explicitly is attempted regardless of its extension
				if !info.Mode().IsRegular() || (file != path && !isPIC(file)) {
					return nil
				}

				select {
				case out <- source{file: file, root: path}:
				case <-ctx.Done():
					return errors.New("walk cancelled")
				}

				return nil
			}); err != nil {
				errc <- err
				return
			}
		}
	}()
	return out, errc, nil
}

func (c *Converter) fileWorker(ctx context.Context, run string, taken *claims, in <-chan source) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for src := range in {
			if err := ctx.Err(); err != nil {
				errc <- err
				return
			}
			if err := c.convert(run, taken, src); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Convert converts every PIC file found in paths, which can be files or
// directories. Files that can't be decoded are logged and counted but don't
// stop the remaining files from being converted. With an output directory
// the layout below each directory in paths is recreated under it, and a file
// whose output path has already been written during the run is failed rather
// than overwriting it. It returns the identifier
// of the run recorded in the catalog, if there is one.
func (c *Converter) Convert(ctx context.Context, paths ...string) (string, error) {
	var run string
	if c.db != nil {
		var err error
		if run, err = c.db.NewRun(c.cfg.Palette); err != nil {
			return "", err
		}
	}

	if c.cfg.Output != "" {
		if err := os.MkdirAll(c.cfg.Output, 0755); err != nil {
			return run, err
		}
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	taken := newClaims()

	files, errc, err := c.findFiles(ctx, paths)
	if err != nil {
		return run, err
	}
	errcList = append(errcList, errc)

	for i := 0; i < c.cfg.Workers; i++ {
		errc, err := c.fileWorker(ctx, run, taken, files)
		if err != nil {
			return run, err
		}
		errcList = append(errcList, errc)
	}

	return run, waitForPipeline(errcList...)
}
