package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bodgit/openfa"
	"github.com/bodgit/openfa/pal"
	"github.com/bodgit/openfa/pic"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/urfave/cli/v2"
)

const defaultDB = "fapic.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	allow := level.AllowWarn()
	if c.Bool("verbose") {
		allow = level.AllowDebug()
	}
	return log.With(level.NewFilter(logger, allow), "ts", log.DefaultTimestampUTC)
}

func loadPalette(file string) (*pal.Palette, error) {
	if file == "" {
		return nil, errors.New("no system palette, use --palette")
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return pal.Decode(f)
}

func info(w io.Writer, file string) error {
	b, err := openfa.ReadSource(file)
	if err != nil {
		return err
	}

	i, err := pic.Inspect(b)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%-32s: %6d %4dx%-4d: %6d in %6d spans\n", file, i.Palette.Size, i.Width, i.Height, i.Pixels.Size, i.SpanCount)

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "fapic"
	app.Usage = "Fighters Anthology PIC image converter"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"FAPIC_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to catalog database",
		},
		&cli.StringFlag{
			Name:    "palette",
			EnvVars: []string{"FAPIC_PALETTE"},
			Usage:   "path to system palette, usually PALETTE.PAL",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "convert",
			Usage:       "Convert PIC images to PNG",
			Description: "Each PATH can be a PIC file or a directory that is searched for PIC files. Files that can't be converted are reported and skipped.",
			ArgsUsage:   "PATH...",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "write PNG files to `DIRECTORY`, mirroring the layout below each searched directory, rather than alongside each PIC file",
				},
				&cli.IntFlag{
					Name:  "workers",
					Value: 4,
					Usage: "number of files to convert concurrently",
				},
				&cli.IntFlag{
					Name:  "colors",
					Usage: "write paletted PNG files with at most this many colors",
				},
				&cli.BoolFlag{
					Name:  "force",
					Usage: "convert files even if they have been converted before",
				},
				&cli.StringFlag{
					Name:  "metrics",
					Usage: "write metrics in Prometheus text format to `FILE`",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				logger := newLogger(c)

				palette, err := loadPalette(c.String("palette"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				db, err := openfa.NewCatalogDB(c.String("db"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer db.Close()

				converter := openfa.New(openfa.Config{
					Output:  c.String("output"),
					Workers: c.Int("workers"),
					Colors:  c.Int("colors"),
					Force:   c.Bool("force"),
					Palette: c.String("palette"),
				}, palette, db, logger)

				run, err := converter.Convert(context.Background(), c.Args().Slice()...)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				converted, failed, err := db.RunSummary(run)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				level.Info(logger).Log("msg", "finished", "run", run, "converted", converted, "failed", failed)

				if file := c.String("metrics"); file != "" {
					if err := converter.Metrics().WriteTextfile(file); err != nil {
						return cli.NewExitError(err, 1)
					}
				}

				return nil
			},
		},
		{
			Name:        "info",
			Usage:       "Describe PIC images",
			Description: "Prints the embedded palette size, dimensions, pixel data size and number of spans of each FILE.",
			ArgsUsage:   "FILE...",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				logger := newLogger(c)

				var failed int
				for _, file := range c.Args().Slice() {
					if err := info(os.Stdout, file); err != nil {
						level.Error(logger).Log("msg", "cannot describe file", "file", file, "err", err)
						failed++
					}
				}

				if failed > 0 {
					return cli.NewExitError(fmt.Sprintf("%d of %d files could not be described", failed, c.NArg()), 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
