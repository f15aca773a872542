// Command sysk is the out-of-scope-but-ambient hosting driver for the
// qthread, raid and fsx packages: it formats and mounts images, drives
// RAID member replacement, runs the qthread barbershop demo, and
// serves Prometheus metrics. It is the one place in this module
// allowed to call os.Exit.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pdesnoyers/sysk/internal/config"
	"github.com/pdesnoyers/sysk/internal/obs"
)

var (
	cfgFile string
	logPath string
)

func main() {
	root := &cobra.Command{
		Use:   "sysk",
		Short: "cooperative threads, stackable RAID, and a block-backed file system",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&logPath, "log", "", "path to a rotating log file (default: stderr)")

	root.AddCommand(newMkfsCmd())
	root.AddCommand(newMountCmd())
	root.AddCommand(newRaidCmd())
	root.AddCommand(newQdemoCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newConfigCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(fs *pflag.FlagSet) config.Config {
	cfg, err := config.Load(fs, cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sysk: loading config: %v\n", err)
		os.Exit(1)
	}
	if logPath != "" {
		cfg.LogPath = logPath
	}
	return cfg
}

func newLogger(cfg config.Config) obs.Logger {
	return obs.New(obs.Options{Path: cfg.LogPath, AlsoStderr: cfg.LogPath == "", Prefix: "sysk: "})
}

// withFatalRecovery runs f, converting a *fsx.FatalIOError panic (the
// only panic type library code in this module ever raises) into a
// clean exit(1) instead of a crash with a stack trace.
func withFatalRecovery(log obs.Logger, f func() error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("fatal device error: %v", r)
			os.Exit(1)
		}
	}()
	if err := f(); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}
