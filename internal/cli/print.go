package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	flag "github.com/spf13/pflag"

	"github.com/avharness/cutline/internal/action"
	"github.com/avharness/cutline/internal/edit"
)

// common holds the flags shared by every project-touching command.
type common struct {
	flagSet *flag.FlagSet
	project *string
	dryRun  *bool
	output  *string
	jsonOut *bool
}

func newCommon(name string, mutating bool) *common {
	flagSet := flag.NewFlagSet(name, flag.ContinueOnError)

	c := &common{
		flagSet: flagSet,
		project: flagSet.StringP("project", "p", "", "Project file path"),
		jsonOut: flagSet.Bool("json", false, "Emit the result as JSON"),
	}

	if mutating {
		c.dryRun = flagSet.Bool("dry-run", false, "Run the edit without writing anything")
		c.output = flagSet.StringP("output", "o", "", "Write the result to this path instead")
	}

	return c
}

// parse handles help and flag errors uniformly. A zero exit code with
// done=true means help was printed.
func (c *common) parse(o *IO, usage string, args []string) (done bool, code int) {
	c.flagSet.Usage = func() {
		fprintf(o.errOut, "Usage: cutline %s\n\nFlags:\n", usage)
		c.flagSet.SetOutput(o.errOut)
		c.flagSet.PrintDefaults()
	}

	if hasHelpFlag(args) {
		fprintf(o.out, "Usage: cutline %s\n\nFlags:\n", usage)
		c.flagSet.SetOutput(o.out)
		c.flagSet.PrintDefaults()

		return true, 0
	}

	err := c.flagSet.Parse(args)
	if err != nil {
		o.ErrPrintln("error:", err)
		c.flagSet.Usage()

		return true, 1
	}

	return false, 0
}

// params seeds an action parameter bag from the shared flags. The project
// path falls back to CUTLINE_PROJECT, then the first positional argument.
func (c *common) params(env map[string]string) action.Params {
	params := action.Params{}

	project := *c.project
	if project == "" {
		project = env["CUTLINE_PROJECT"]
	}

	if project == "" && c.flagSet.NArg() > 0 {
		project = c.flagSet.Arg(0)
	}

	if project != "" {
		params["project"] = project
	}

	if c.dryRun != nil && *c.dryRun {
		params["dry_run"] = true
	}

	if c.output != nil && *c.output != "" {
		params["output_path"] = *c.output
	}

	return params
}

func runAction(ctx context.Context, o *IO, deps action.Deps, name string, params action.Params, jsonOut bool) int {
	result, err := action.Execute(ctx, name, params, deps)
	if err != nil {
		printError(o, err)

		return 1
	}

	printResult(o, result, jsonOut)

	return 0
}

func printError(o *IO, err *edit.Error) {
	o.ErrPrintln(fmt.Sprintf("error: %s: %s", err.Code, err.Message))

	for _, candidate := range err.Candidates {
		o.ErrPrintln("  candidate:", candidate)
	}

	if err.Retryable() {
		o.ErrPrintln("  (transient; retrying may succeed)")
	}
}

func printResult(o *IO, result *action.Result, jsonOut bool) {
	if jsonOut {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			o.ErrPrintln("error:", err)

			return
		}

		o.Println(string(data))

		return
	}

	switch result.Action {
	case "project.validate":
		printValidation(o, result)
	case "project.history":
		printHistory(o, result)
	case "project.inspect":
		printInspect(o, result)
	case "project.diff", "project.plan_edit":
		printDiffLike(o, result)
	default:
		printGeneric(o, result)
	}
}

func printGeneric(o *IO, result *action.Result) {
	status := "ok"

	switch {
	case result.DryRun:
		status = "ok (dry run)"
	case result.Idempotent:
		status = "ok (no change)"
	}

	o.Println(status+":", result.Action)

	for _, key := range sortedKeys(result.Summary) {
		o.Printf("  %s: %v\n", key, result.Summary[key])
	}

	if result.SavedTo != "" {
		o.Println("  saved to:", result.SavedTo)
	}
}

func printValidation(o *IO, result *action.Result) {
	valid, _ := result.Summary["valid"].(bool)

	violations, _ := result.Summary["violations"].([]map[string]any)
	if len(violations) == 0 {
		o.Println("valid: no violations")

		return
	}

	rows := make([][]string, 0, len(violations))

	for _, v := range violations {
		rows = append(rows, []string{
			fmt.Sprint(v["severity"]),
			fmt.Sprint(v["kind"]),
			fmt.Sprint(v["id"]),
			fmt.Sprint(v["message"]),
		})
	}

	o.Println(renderTable(
		[]string{"Severity", "Kind", "ID", "Message"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))

	if !valid {
		o.Warn(fmt.Sprintf("%v validation errors", result.Summary["errors"]))
	}
}

func printHistory(o *IO, result *action.Result) {
	entries, _ := result.Summary["entries"].([]map[string]any)
	if len(entries) == 0 {
		o.Println("history is empty")

		return
	}

	rows := make([][]string, 0, len(entries))

	for _, entry := range entries {
		rows = append(rows, []string{
			fmt.Sprint(entry["seq"]),
			fmt.Sprint(entry["stack"]),
			fmt.Sprint(entry["description"]),
			fmt.Sprint(entry["created_at"]),
		})
	}

	o.Println(renderTable(
		[]string{"Seq", "Stack", "Description", "Created"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}))
}

func printInspect(o *IO, result *action.Result) {
	rows := make([][]string, 0, len(result.Summary))

	for _, key := range sortedKeys(result.Summary) {
		rows = append(rows, []string{key, fmt.Sprint(result.Summary[key])})
	}

	o.Println(renderTable(
		[]string{"Property", "Value"},
		rows,
		[]columnAlignment{alignLeft, alignRight}))
}

func printDiffLike(o *IO, result *action.Result) {
	// Diff reports carry nested structs; JSON is the faithful rendering.
	data, err := json.MarshalIndent(result.Summary, "", "  ")
	if err != nil {
		o.ErrPrintln("error:", err)

		return
	}

	o.Println(string(data))
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
