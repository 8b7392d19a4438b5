package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ilastik/app-pass/internal/domain-adapters/gateways"
	"github.com/ilastik/app-pass/internal/domain/interfaces"
	"github.com/ilastik/app-pass/internal/domain/services"
	"github.com/ilastik/app-pass/internal/external-adapters/yaml"
)

// verbosityFlag makes -v repeatable: each occurrence raises the level.
type verbosityFlag int

func (v *verbosityFlag) String() string { return strconv.Itoa(int(*v)) }

func (v *verbosityFlag) Set(s string) error {
	if s == "true" {
		*v++
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid verbosity %q", s)
	}
	*v = verbosityFlag(n)
	return nil
}

// IsBoolFlag lets -v appear without a value.
func (v *verbosityFlag) IsBoolFlag() bool { return true }

// expandVerbosity rewrites stacked verbosity flags (-vv, -vvv) into
// repeated -v occurrences, which is the form the flag package parses.
func expandVerbosity(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if len(arg) > 2 && arg[0] == '-' && strings.Count(arg, "v") == len(arg)-1 {
			for range arg[1:] {
				out = append(out, "-v")
			}
			continue
		}
		out = append(out, arg)
	}
	return out
}

// commonOptions holds the flags shared by every subcommand.
type commonOptions struct {
	verbosity  verbosityFlag
	shOutput   string
	jsonOutput string
	configPath string
	dryRun     bool
}

func registerCommon(fs *flag.FlagSet) *commonOptions {
	opts := &commonOptions{}
	fs.Var(&opts.verbosity, "v", "Increase verbosity, repeatable (-v warnings, -vv info, -vvv debug)")
	fs.StringVar(&opts.shOutput, "sh-output", "", "Write executed commands as a shell script to this file")
	fs.StringVar(&opts.jsonOutput, "json-output", "", "Write executed commands as a JSON array to this file")
	fs.StringVar(&opts.configPath, "config", "", "Path to a YAML settings file")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Plan and record commands without executing them")
	return opts
}

// stack bundles the wired collaborators of one CLI invocation.
type stack struct {
	logger    interfaces.Logger
	settings  yaml.Settings
	loader    *gateways.BundleLoader
	engine    *services.IssueEngine
	planner   *services.RepairPlanner
	executor  *gateways.Executor
	recorders []gateways.Recorder
}

// newStack wires the full adapter stack from the common options.
func newStack(opts *commonOptions) (*stack, error) {
	settings, err := yaml.NewSettingsParser().ParseFile(opts.configPath)
	if err != nil {
		return nil, err
	}

	logger := &interfaces.StderrLogger{Verbosity: int(opts.verbosity)}

	var recorders []gateways.Recorder
	if opts.shOutput != "" {
		rec, err := gateways.NewShellRecorder(opts.shOutput)
		if err != nil {
			return nil, err
		}
		recorders = append(recorders, rec)
	}
	if opts.jsonOutput != "" {
		rec, err := gateways.NewJSONRecorder(opts.jsonOutput)
		if err != nil {
			return nil, err
		}
		recorders = append(recorders, rec)
	}

	policy := services.NewPathPolicy(settings.AllowedPrefixes...)
	runner := gateways.NewCommandRunner(logger)
	repacker := gateways.NewDittoRepacker(runner, logger)

	return &stack{
		logger:    logger,
		settings:  settings,
		loader:    gateways.NewBundleLoader(gateways.NewMachOInspector(logger), repacker, logger),
		engine:    services.NewIssueEngine(policy, logger),
		planner:   services.NewRepairPlanner(repacker),
		executor:  gateways.NewExecutor(runner, recorders, opts.dryRun, logger),
		recorders: recorders,
	}, nil
}

// close finalizes the recorders; it must run on every exit path so
// JSON output stays well formed.
func (s *stack) close() {
	for _, rec := range s.recorders {
		if err := rec.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing command log: %v\n", err)
		}
	}
}

// bundleArg extracts the single positional bundle path.
func bundleArg(fs *flag.FlagSet) (string, bool) {
	if fs.NArg() != 1 {
		return "", false
	}
	return fs.Arg(0), true
}
