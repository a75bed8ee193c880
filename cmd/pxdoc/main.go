// Command pxdoc manages layered raster documents stored in SQLite.
//
// Usage:
//
//	pxdoc [flags] <command> [arguments]
//
// Commands:
//
//	new [-width w] [-height h] <name>   create a document with a white layer
//	list                                list stored documents
//	show <id>                           print the node tree
//	apply <id> <patch-file>...          apply patches atomically and log them
//	undo <id>                           revert the latest logged patch
//	log <id>                            print the patch log
//	compact <id>                        fold the patch log into the snapshot
//	export [-thumb] <id> <out.png>      flatten visible layers to PNG
//	codecs                              list patch codecs
//
// Patch files are decoded with the codec named by their extension
// (.json, .yaml or .yml).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gogpu/pxdoc"
	"github.com/gogpu/pxdoc/config"
	"github.com/gogpu/pxdoc/store"
)

func main() {
	var (
		cfgPath = flag.String("config", "pxdoc.yaml", "configuration file")
		dbPath  = flag.String("db", "", "database path (overrides config)")
		verbose = flag.Bool("v", false, "log at debug level")
	)
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.LoadFile(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "pxdoc:", err)
		os.Exit(2)
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if err := setupLogging(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "pxdoc:", err)
		os.Exit(2)
	}

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, cfg, flag.Arg(0), flag.Args()[1:])
	stop()
	if errors.Is(err, errUsage) {
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "pxdoc:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: pxdoc [flags] new|list|show|apply|undo|log|compact|export|codecs [arguments]")
	flag.PrintDefaults()
}

// setupLogging installs one handler into every package logger.
func setupLogging(cfg *config.Config) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	hopts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Log.Format == "json" {
		h = slog.NewJSONHandler(os.Stderr, hopts)
	} else {
		h = slog.NewTextHandler(os.Stderr, hopts)
	}
	l := slog.New(h)
	pxdoc.SetLogger(l)
	store.SetLogger(l)
	return nil
}

func run(ctx context.Context, cfg *config.Config, cmd string, args []string) error {
	if cmd == "codecs" {
		return cmdCodecs(os.Stdout)
	}

	st, err := store.Open(cfg.Store.Path, cfg.StoreOptions()...)
	if err != nil {
		return err
	}
	defer st.Close()

	a := &app{cfg: cfg, st: st, out: os.Stdout}
	switch cmd {
	case "new":
		return a.cmdNew(ctx, args)
	case "list":
		return a.cmdList(ctx)
	case "show":
		return a.cmdShow(ctx, args)
	case "apply":
		return a.cmdApply(ctx, args)
	case "undo":
		return a.cmdUndo(ctx, args)
	case "log":
		return a.cmdLog(ctx, args)
	case "compact":
		return a.cmdCompact(ctx, args)
	case "export":
		return a.cmdExport(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}
