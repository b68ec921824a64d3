package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/tmplforge/jinjatt"
)

func main() {
	var (
		outPath    string
		inPlace    bool
		debug      bool
		watchDir   string
		configPath string
	)
	flag.StringVar(&outPath, "o", "", "write output to PATH instead of stdout")
	flag.BoolVar(&inPlace, "i", false, "write output alongside the input file with a .tt extension (ignored for stdin)")
	flag.BoolVar(&debug, "debug", false, "log the token stream and AST before emitting")
	flag.StringVar(&watchDir, "watch", "", "watch DIR for .j2/.jinja changes and retranspile on save")
	flag.StringVar(&configPath, "config", "", "path to a YAML config file")
	flag.Parse()

	cfg := jinjatt.DefaultConfig()
	if configPath != "" {
		loaded, err := jinjatt.LoadConfig(configPath)
		if err != nil {
			slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("loading config", "path", configPath, "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.Debug = cfg.Debug || debug

	handlerOpts := &slog.HandlerOptions{}
	if cfg.Debug {
		handlerOpts.Level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, handlerOpts))

	tp := jinjatt.New(cfg)

	if watchDir != "" {
		if err := runWatch(tp, logger, watchDir, outPath); err != nil {
			logger.Error("watch", "err", err)
			os.Exit(1)
		}

		return
	}

	args := flag.Args()
	path := "-"
	if len(args) > 0 {
		path = args[0]
	}

	if err := runOnce(tp, logger, path, outPath, inPlace, cfg.Debug); err != nil {
		logger.Error("transpile", "path", path, "err", err)
		os.Exit(1)
	}
}

func runOnce(tp *jinjatt.Transpiler, logger *slog.Logger, path, outPath string, inPlace, debug bool) error {
	var src string
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		src = string(data)
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		src = string(data)
	}

	if debug {
		dumpDebug(tp, logger, src)
	}

	out, err := tp.Transpile(src)
	if err != nil {
		return err
	}

	dest := outPath
	if inPlace && path != "-" {
		dest = strings.TrimSuffix(path, filepath.Ext(path)) + ".tt"
	}

	if dest == "" {
		fmt.Print(out)

		return nil
	}

	return os.WriteFile(dest, []byte(out), 0o644)
}

func dumpDebug(tp *jinjatt.Transpiler, logger *slog.Logger, src string) {
	tokens, err := tp.Tokens(src)
	if err != nil {
		return
	}
	for _, t := range tokens {
		logger.Debug("token", "kind", fmt.Sprint(t))
	}

	root, err := tp.Parse(src)
	if err != nil {
		return
	}
	for _, n := range root.Body {
		logger.Debug("ast", "node", fmt.Sprintf("%T %s", n, n.Kind()))
	}
}

// runWatch retranspiles a `.j2`/`.jinja`/`.jinja2` file in dir each time
// fsnotify reports a write to or creation of that file, writing the
// result alongside its source with a `.tt2` extension. It runs until the
// process is interrupted.
func runWatch(tp *jinjatt.Transpiler, logger *slog.Logger, dir, outPath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}
	logger.Info("watching", "dir", dir)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !isTemplateFile(event.Name) {
				continue
			}
			if err := transpileOneWatched(tp, event.Name); err != nil {
				logger.Error("retranspile", "file", event.Name, "err", err)
				continue
			}
			logger.Info("retranspiled", "file", event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher", "err", err)
		}
	}
}

func isTemplateFile(name string) bool {
	ext := filepath.Ext(name)

	return ext == ".j2" || ext == ".jinja" || ext == ".jinja2"
}

func transpileOneWatched(tp *jinjatt.Transpiler, path string) error {
	out, err := tp.TranspileFile(path)
	if err != nil {
		return err
	}
	dest := strings.TrimSuffix(path, filepath.Ext(path)) + ".tt2"

	return os.WriteFile(dest, []byte(out), 0o644)
}
