package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/raster-shapes-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version information")
	debugMode := flag.Bool("debug", false, "Enable debug logging with the text formatter")
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", server.Name, Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	}

	// stdout is for the MCP protocol, so logs always go to stderr
	logger, err := newLogger(os.Stderr, *debugMode, os.Getenv("RASTER_MCP_LOG_LEVEL"), os.Getenv("RASTER_MCP_LOG_FORMAT"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"commit":     GitCommit,
	}).Debug("starting server")

	srv := server.New(logger)
	if err := srv.Run(); err != nil {
		logger.WithError(err).Fatal("server error")
	}
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "%s - MCP server for raster shape analysis\n\n", server.Name)
	fmt.Fprintf(out, "Usage: %s [options]\n\n", server.Name)
	fmt.Fprintln(out, "Options:")
	flag.PrintDefaults()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Environment variables:")
	fmt.Fprintln(out, "  RASTER_MCP_LOG_LEVEL=debug|info|warn|error   Log level (default info)")
	fmt.Fprintln(out, "  RASTER_MCP_LOG_FORMAT=text|json              Log format (default json, text with --debug)")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "This server communicates via MCP protocol over stdin/stdout.")
}

// newLogger builds the process logger. --debug forces debug level and the
// text formatter; level and format, when set, override either choice.
func newLogger(w io.Writer, debug bool, level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(w)

	if debug {
		logger.SetLevel(logrus.DebugLevel)
		format = strings.ToLower(strings.TrimSpace(format))
		if format == "" {
			format = "text"
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("RASTER_MCP_LOG_LEVEL: %w", err)
		}
		logger.SetLevel(lvl)
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	case "", "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		return nil, fmt.Errorf("RASTER_MCP_LOG_FORMAT: unknown format %q (use text or json)", format)
	}

	return logger, nil
}
