package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/jbridge/config"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to TOML configuration file")
		scenario    = flag.String("run", "", "Scenario to run (comma-separated, or \"all\")")
		arg         = flag.String("arg", "", "Argument passed to the scenario")
		list        = flag.Bool("list", false, "List scenarios and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *list {
		listScenarios(os.Stdout)
		return
	}

	if *scenario == "" && !*interactive {
		fmt.Fprintln(os.Stderr, "Usage: bridgectl [-config file.toml] -run <scenario>[,<scenario>...] [-arg value]")
		fmt.Fprintln(os.Stderr, "       bridgectl -list")
		fmt.Fprintln(os.Stderr, "       bridgectl [-config file.toml] -i  (interactive mode)")
		os.Exit(1)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(cfg, log); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(os.Stdout, cfg, log, *scenario, *arg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func listScenarios(w io.Writer) {
	for _, s := range scenarios {
		fmt.Fprintf(w, "  %-10s %s\n", s.name, s.desc)
	}
}

// run executes the named scenarios in order against one bridge and prints
// the runtime's table sizes after each.
func run(w io.Writer, cfg config.Config, log *zap.Logger, names, arg string) error {
	var selected []scenario
	if names == "all" {
		selected = scenarios
	} else {
		for _, name := range strings.Split(names, ",") {
			s, ok := lookupScenario(strings.TrimSpace(name))
			if !ok {
				return fmt.Errorf("unknown scenario %q (see -list)", name)
			}
			selected = append(selected, s)
		}
	}

	b, err := openBridge(cfg, log)
	if err != nil {
		return fmt.Errorf("open bridge: %w", err)
	}

	var failed int
	for _, s := range selected {
		fmt.Fprintf(w, "== %s\n", s.name)
		out, err := s.run(b, arg)
		if out != "" {
			fmt.Fprintln(w, out)
		}
		if err != nil {
			failed++
			fmt.Fprintf(w, "error: %v\n", err)
		}
		fmt.Fprintln(w, b.stats())
	}

	if leaks := b.Close(); leaks != 0 {
		return fmt.Errorf("%d handles leaked", leaks)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(selected))
	}
	return nil
}
