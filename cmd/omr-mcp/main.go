package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/omr-tools-mcp/internal/config"
	"github.com/ironsheep/omr-tools-mcp/internal/ocr"
	"github.com/ironsheep/omr-tools-mcp/internal/pipeline"
	"github.com/ironsheep/omr-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("omr-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("omr-tools-mcp - MCP server for reading and grading multiple-choice answer sheets")
			fmt.Println()
			fmt.Println("Usage: omr-tools-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  OMR_MCP_CONFIG=/path/omr.yaml   Load settings from a YAML file")
			fmt.Println("  OMR_MCP_LOG_LEVEL=debug         Log level (trace, debug, info, warn, error)")
			fmt.Println("  OMR_MCP_WORKERS=4               Pages graded in parallel (default: CPU count)")
			fmt.Println("  OMR_MCP_PAGE_TIMEOUT=2m         Time limit per page")
			fmt.Println("  OMR_MCP_DESKEW=true             Straighten pages before detection")
			fmt.Println("  OMR_MCP_OCR=false               Read sheets by ink density only")
			fmt.Println("  OMR_MCP_OCR_LANG=eng            Tesseract language")
			fmt.Println("  OMR_MCP_TESSDATA_PREFIX=/path   Tesseract data directory")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	logger.SetLevel(cfg.Level())
	log := logger.WithField("service", "omr-tools-mcp")

	log.WithFields(logrus.Fields{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
	}).Debug("Starting OMR MCP server")

	var rec ocr.Recognizer
	if cfg.OCR.Enabled {
		rec = ocr.Open(cfg.TesseractOptions())
		if c, ok := rec.(io.Closer); ok {
			defer c.Close()
		}
		info := ocr.Describe(rec)
		log.WithFields(logrus.Fields{
			"available": info.Available,
			"backend":   info.Backend,
			"version":   info.Version,
			"language":  info.Language,
		}).Info("OCR backend")
	}

	proc := pipeline.NewProcessor(rec, cfg.PipelineOptions(), log)
	server.Version = Version
	srv := server.New(proc, rec, log)
	srv.SetOverlayStyle(cfg.Overlay)
	if err := srv.Run(); err != nil {
		log.WithError(err).Fatal("Server error")
	}
}
