// Package cli implements the cutline command line interface. Every
// subcommand maps onto one engine action; the CLI's job is flag parsing,
// config layering, and rendering results for humans or as JSON.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/avharness/cutline/internal/action"
	"github.com/avharness/cutline/internal/config"
	"github.com/avharness/cutline/internal/logging"
	"github.com/avharness/cutline/internal/probe"
)

const (
	minArgs      = 2
	consumedOne  = 1
	consumedTwo  = 2
	consumedNone = 0
	helpFlag     = "--help"
)

// Run is the main entry point. Returns exit code.
func Run(_ io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sig <-chan os.Signal) int {
	if len(args) < minArgs {
		printUsage(out)

		return 0
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	workDir := flags.workDir
	if workDir == "" {
		workDir, err = os.Getwd()
		if err != nil {
			fprintln(errOut, "error: cannot get working directory:", err)

			return 1
		}
	}

	cfg, err := config.Load(workDir, env)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	if flags.logFormat != "" {
		cfg.LogFormat = flags.logFormat
	}

	log, err := logging.New(errOut, logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	if len(flags.remaining) == 0 {
		printUsage(out)

		return 0
	}

	cmd := flags.remaining[0]
	if cmd == "-h" || cmd == helpFlag {
		printUsage(out)

		return 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sig != nil {
		go func() {
			<-sig
			cancel()
		}()
	}

	deps := action.Deps{
		Log:          log,
		Prober:       probe.FFProbe{FPS: cfg.FPS},
		HistoryDir:   cfg.HistoryDir,
		HistoryLimit: cfg.HistoryLimit,
	}
	deps.Checks.CheckFiles = cfg.CheckFiles

	o := NewIO(out, errOut)

	run, ok := commands[cmd]
	if !ok {
		fprintln(errOut, "error: unknown command:", cmd)
		printUsage(errOut)

		return 1
	}

	code := run(ctx, o, cfg, deps, env, flags.remaining[1:])
	if code != 0 {
		return code
	}

	return o.Finish()
}

type commandFunc func(ctx context.Context, o *IO, cfg config.Config, deps action.Deps, env map[string]string, args []string) int

var commands = map[string]commandFunc{
	"create":            cmdCreate,
	"clone":             cmdClone,
	"inspect":           cmdInspect,
	"validate":          cmdValidate,
	"diff":              cmdDiff,
	"plan":              cmdPlan,
	"snapshot":          cmdSnapshot,
	"history":           cmdHistory,
	"undo":              cmdUndo,
	"redo":              cmdRedo,
	"probe":             cmdProbe,
	"manifest":          cmdManifest,
	"import":            cmdImport,
	"add":               cmdAdd,
	"move":              cmdMove,
	"trim":              cmdTrim,
	"split":             cmdSplit,
	"remove":            cmdRemove,
	"ripple-delete":     cmdRippleDelete,
	"nudge":             cmdNudge,
	"slip":              cmdSlip,
	"slide":             cmdSlide,
	"time-remap":        cmdTimeRemap,
	"insert-gap":        cmdInsertGap,
	"remove-gaps":       cmdRemoveGaps,
	"stitch":            cmdStitch,
	"group":             cmdGroup,
	"ungroup":           cmdUngroup,
	"effect-add":        cmdEffectAdd,
	"effect-update":     cmdEffectUpdate,
	"effect-remove":     cmdEffectRemove,
	"transition-add":    cmdTransitionAdd,
	"transition-remove": cmdTransitionRemove,
}

type globalFlags struct {
	workDir   string
	logLevel  string
	logFormat string
	remaining []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			// Not a flag, this is the command
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

// parseFlag tries to parse a flag at args[idx]. Returns number of args
// consumed (0 if not a flag).
func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	if (arg == "-C" || arg == "--cwd") && idx+1 < len(args) {
		flags.workDir = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "-C"); ok {
		flags.workDir = after

		return consumedOne, nil
	}

	if after, ok := strings.CutPrefix(arg, "--cwd="); ok {
		flags.workDir = after

		return consumedOne, nil
	}

	if arg == "--log-level" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("flag requires an argument: %s", arg)
		}

		flags.logLevel = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--log-level="); ok {
		flags.logLevel = after

		return consumedOne, nil
	}

	if arg == "--log-format" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("flag requires an argument: %s", arg)
		}

		flags.logFormat = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--log-format="); ok {
		flags.logFormat = after

		return consumedOne, nil
	}

	if arg == "-h" || arg == helpFlag {
		flags.remaining = []string{helpFlag}

		return len(args) - idx, nil
	}

	if strings.HasPrefix(arg, "-") && arg != "-" {
		return consumedNone, fmt.Errorf("unknown flag: %s", arg)
	}

	return consumedNone, nil
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func fprintf(w io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(w, format, a...)
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == helpFlag {
			return true
		}
	}

	return false
}

func printUsage(writer io.Writer) {
	fprintln(writer, `cutline - deterministic timeline edit engine

Usage: cutline [options] <command> [args]

Options:
  -C, --cwd <dir>        Run as if started in <dir>
  --log-level <level>    debug|info|warn|error
  --log-format <format>  console|json

Project commands:
  create                 Create a new project file
  clone                  Copy a project file
  inspect                Show project summary
  validate               Check project invariants
  diff                   Compare two project files
  plan                   Preview an edit without applying it
  snapshot               Record a named checkpoint
  history                List recorded snapshots
  undo                   Restore the previous committed state
  redo                   Reapply the last undone state
  probe                  Fill producer metadata via ffprobe
  manifest               Emit the flattened render manifest
  import                 Register a media producer

Clip commands:
  add move trim split remove ripple-delete nudge slip slide time-remap

Track commands:
  insert-gap remove-gaps stitch group ungroup

Effect commands:
  effect-add effect-update effect-remove transition-add transition-remove

Run "cutline <command> --help" for command flags. Every mutating command
accepts --dry-run and --output <path>.`)
}
