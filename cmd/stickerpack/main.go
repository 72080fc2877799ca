// StickerPack packs a directory of sticker cut-outs onto print pages.
//
// Every image is cropped to its foreground, scaled so its longer side has
// the configured physical length, packed onto as few pages as possible and
// written as one PDF at the print resolution.
//
// Build:
//   go build -o stickerpack ./cmd/stickerpack
//
// Usage:
//   stickerpack -in ./stickers -out stickers_print.pdf -manifest copies.csv

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/piwi3910/StickerPack/internal/logging"
	"github.com/piwi3910/StickerPack/internal/model"
	"github.com/piwi3910/StickerPack/internal/pipeline"
	"github.com/piwi3910/StickerPack/internal/project"
)

func main() {
	configPath := flag.String("config", project.DefaultConfigPath(), "JSON config file; missing file means defaults")
	saveConfig := flag.Bool("save-config", false, "write the effective settings back to -config and exit")
	in := flag.String("in", "", "input directory with sticker images")
	out := flag.String("out", "stickers_print.pdf", "output PDF")
	manifest := flag.String("manifest", "", "optional CSV/XLSX copy manifest (file, copies)")
	cutLines := flag.String("cut-lines", "", "optional DXF with sticker outlines per page")
	reportPath := flag.String("report", "", "optional JSON layout report")

	dpi := flag.Int("dpi", 0, "print resolution")
	stickerCM := flag.Float64("sticker-cm", 0, "longer side of every sticker in cm")
	spacingCM := flag.Float64("spacing-cm", 0, "gap between stickers in cm")
	marginCM := flag.Float64("margin-cm", 0, "blank page border in cm")
	pageWidthMM := flag.Float64("page-width-mm", 0, "page width in mm")
	pageHeightMM := flag.Float64("page-height-mm", 0, "page height in mm")

	format := flag.String("format", "", "page encoding: jpeg or png")
	quality := flag.Int("quality", 0, "JPEG quality 1-100")
	heuristic := flag.String("heuristic", "", "packing heuristic: best-area-fit, best-short-side-fit, bottom-left, auto")
	pageTags := flag.Bool("page-tags", false, "draw a QR page tag into the bottom margin")
	remover := flag.String("remover", "", "background removal: none or command")
	removerCmd := flag.String("remover-cmd", "", "command for -remover=command, e.g. \"rembg i - -\"")

	logLevel := flag.String("log-level", "", "logging level: debug, info, warn, error")
	jsonLogs := flag.Bool("json-logs", false, "log as JSON")
	flag.Parse()

	log := logging.Component("cli")

	cfg, err := project.LoadAppConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}

	// Flags override the file only when given on the command line.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dpi":
			cfg.Layout.PrintDPI = *dpi
		case "sticker-cm":
			cfg.Layout.StickerLongestSideCM = *stickerCM
		case "spacing-cm":
			cfg.Layout.SpacingCM = *spacingCM
		case "margin-cm":
			cfg.Layout.MarginCM = *marginCM
		case "page-width-mm":
			cfg.Layout.PageWidthMM = *pageWidthMM
		case "page-height-mm":
			cfg.Layout.PageHeightMM = *pageHeightMM
		case "format":
			cfg.Output.PageFormat = model.PageFormat(strings.ToLower(*format))
		case "quality":
			cfg.Output.JPEGQuality = *quality
		case "heuristic":
			cfg.Output.Heuristic = model.Heuristic(strings.ToLower(*heuristic))
		case "page-tags":
			cfg.Output.PageTags = *pageTags
		case "remover":
			cfg.Remover.Mode = model.RemoverMode(strings.ToLower(*remover))
		case "remover-cmd":
			cfg.Remover.Command = strings.Fields(*removerCmd)
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		log.WithError(err).Fatal("Invalid log level")
	}
	logging.SetJSON(*jsonLogs)

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid settings")
	}

	if *saveConfig {
		if err := project.SaveAppConfig(*configPath, cfg); err != nil {
			log.WithError(err).Fatal("Failed to save config")
		}
		log.WithField("path", *configPath).Info("Saved config")
		return
	}

	if *in == "" {
		fmt.Fprintln(os.Stderr, "missing -in directory")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := pipeline.Run(ctx, pipeline.Options{
		InputDir:     *in,
		OutputPath:   *out,
		ManifestPath: *manifest,
		CutLinesPath: *cutLines,
		ReportPath:   *reportPath,
		Config:       cfg,
	})
	switch {
	case errors.Is(err, pipeline.ErrNoStickers):
		log.WithField("skipped", len(report.Skipped)).Info("Nothing to print")
		return
	case err != nil:
		stop()
		log.WithError(err).Fatal("Run failed")
	}

	log.WithField("run", report.RunID).Infof("Printed %d stickers on %d page(s) to %s (%.1f%% used, %d skipped)",
		report.Accepted-len(report.Dropped), report.Pages, report.OutputPath, report.Efficiency, len(report.Skipped))
}
