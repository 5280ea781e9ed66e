// Command drvlogd runs the log daemon: it loads the YAML configuration,
// initializes logging, assembles the daemon, and serves until terminated.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/linchenxuan/drvlogd"
	"github.com/linchenxuan/drvlogd/log"
	"github.com/linchenxuan/drvlogd/utils/file"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// logConfig is the `log` section of the configuration file. It is a thin
// YAML-facing layer over log.LogCfg; the level is a name here, not a number.
type logConfig struct {
	Path              string `yaml:"path"`
	Level             string `yaml:"level"`
	SplitMB           int    `yaml:"splitMB"`
	IsAsync           bool   `yaml:"isAsync"`
	AsyncCacheSize    int    `yaml:"asyncCacheSize"`
	AsyncWriteMillSec int    `yaml:"asyncWriteMillSec"`
	FileAppender      bool   `yaml:"fileAppender"`
	ConsoleAppender   bool   `yaml:"consoleAppender"`
}

type config struct {
	Log             *logConfig     `yaml:"log"`
	BufferSizeBytes int            `yaml:"bufferSizeBytes"`
	LockFile        string         `yaml:"lockFile"`
	Plugin          map[string]any `yaml:"plugin"`
}

func loadConfig(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (lc *logConfig) toLogCfg() *log.LogCfg {
	return &log.LogCfg{
		LogPath:           lc.Path,
		LogLevel:          log.ParseLevel(lc.Level),
		FileSplitMB:       lc.SplitMB,
		IsAsync:           lc.IsAsync,
		AsyncCacheSize:    lc.AsyncCacheSize,
		AsyncWriteMillSec: lc.AsyncWriteMillSec,
		FileAppender:      lc.FileAppender,
		ConsoleAppender:   lc.ConsoleAppender,
	}
}

func run() error {
	var (
		configPath = pflag.StringP("config", "c", "/etc/drvlogd/drvlogd.yaml", "path to the configuration file")
		bufferSize = pflag.Int("buffer-size", 0, "message log capacity in bytes; overrides the config file")
	)
	pflag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	if cfg.Log != nil {
		if err := log.Initialize(cfg.Log.toLogCfg()); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
	}
	defer log.Close()

	if cfg.LockFile != "" {
		lock := file.NewFileLock(cfg.LockFile)
		if err := lock.Lock(); err != nil {
			return fmt.Errorf("another instance is running: %w", err)
		}
		defer func() { _ = lock.Unlock() }()
	}

	size := cfg.BufferSizeBytes
	if *bufferSize > 0 {
		size = *bufferSize
	}

	d, err := drvlogd.New(size)
	if err != nil {
		return err
	}
	if err := d.Start(cfg.Plugin); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	log.Info().Str("signal", s.String()).Msg("shutting down")

	d.Stop()
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "drvlogd:", err)
		os.Exit(1)
	}
}
