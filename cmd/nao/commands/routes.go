package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-nao/pkg/router"
)

var (
	routesFormat string
	routesList   bool
)

// NewRoutesCmd creates the routes command.
func NewRoutesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes [script]",
		Short: "Show a script's routing table",
		Long: `Show the routing table of a script.

The argument is a built-in script name or a path to a YAML script. Without
an argument the configured script is shown.

Examples:
  nao routes
  nao routes tired
  nao routes scripts/museum.yaml --format json
  nao routes --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRoutes,
	}

	cmd.Flags().StringVarP(&routesFormat, "format", "f", "table", "output format: table, json")
	cmd.Flags().BoolVar(&routesList, "list", false, "list the built-in scripts")

	return cmd
}

func runRoutes(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if routesList {
		for _, name := range router.BuiltinNames() {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	script, err := resolveScript(args)
	if err != nil {
		return err
	}

	switch routesFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(script.Table.Entries())
	case "table":
		return printRoutes(out, script)
	default:
		return fmt.Errorf("unknown format %q", routesFormat)
	}
}

// resolveScript picks the script named by args, falling back to the
// configured one.
func resolveScript(args []string) (*router.Script, error) {
	if len(args) == 1 {
		if _, err := os.Stat(args[0]); err == nil {
			return router.LoadScript(args[0])
		}
		return router.Builtin(args[0])
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return loadScript(cfg.Script.Name, cfg.Script.Path)
}

func printRoutes(w io.Writer, script *router.Script) error {
	rt := script.Router()
	fmt.Fprintf(w, "%s: %s\n", script.Name, script.Description)
	fmt.Fprintf(w, "advance: %s  end: %s\n\n", rt.AdvanceIntent(), rt.EndIntent())

	if len(script.Opening) > 0 {
		fmt.Fprintln(w, "opening:")
		for _, t := range script.Opening {
			fmt.Fprintf(w, "  %s\n", t)
		}
		fmt.Fprintln(w)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENE\tINTENT\tACTIONS")
	for _, e := range script.Table.Entries() {
		scene := "*"
		if e.Scene != router.AnyScene {
			scene = strconv.Itoa(e.Scene)
		}
		actions := "-"
		if len(e.Actions) > 0 {
			actions = strings.Join(e.Actions, "; ")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", scene, e.Intent, actions)
	}
	return tw.Flush()
}
