package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/sandrolain/goexpr"
	"github.com/sandrolain/goexpr/pkg/evaluator"
	"github.com/sandrolain/goexpr/pkg/types"
)

const (
	historyFile = ".goexpr_history"
	prompt      = "goexpr> "
)

const replHelp = `commands:
  load <document>        load a tree document
  set <name>=<value>     assign a variable
  unset <name>           remove a variable
  env                    list the variables
  eval                   evaluate the tree
  show                   print the tree
  describe [imperial]    describe the tree in English
  type                   infer the type and unit
  scan                   list variables, functions and models
  simplify               simplify the tree in place
  fold                   fold the subtrees known from the variables
  diff <x>               replace the tree with its derivative by x
  invert <x> [y]         solve tree = y for x
  series <database>      read temporal data from a series database
  save <document>        write the tree as a document
  help                   show this help
  quit                   leave
`

// NewREPLCommand creates the repl command.
func NewREPLCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl [document]",
		Short: "Explore a tree document interactively",
		Long: `Start an interactive session over a tree document. Variables can be
assigned and the tree evaluated, simplified, differentiated and rendered.

Example:
  goexpr repl rule.yaml`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.setup(cmd.ErrOrStderr()); err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			s := newSession(rootOpts, cmd.OutOrStdout())
			defer s.close(ctx)
			if len(args) == 1 {
				s.handle(ctx, "load "+args[0])
			}
			return runREPL(ctx, s)
		},
	}
}

func runREPL(ctx context.Context, s *session) error {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(s.complete)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			break
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "read input", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		if s.handle(ctx, line) {
			break
		}
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return nil
}

// session is the state of an interactive session.
type session struct {
	opts *RootOptions
	out  io.Writer

	name string
	tree types.Node
	env  map[string]any
	res  *resources
}

func newSession(opts *RootOptions, out io.Writer) *session {
	return &session{opts: opts, out: out, env: map[string]any{}, res: &resources{}}
}

func (s *session) close(ctx context.Context) {
	if err := s.res.Close(ctx); err != nil {
		s.opts.Logger.Error("release resources", "error", err)
	}
}

var replCommands = []string{
	"load", "set", "unset", "env", "eval", "show", "describe", "type", "scan",
	"simplify", "fold", "diff", "invert", "series", "save", "help", "quit", "exit",
}

func (s *session) complete(line string) []string {
	var out []string
	for _, c := range replCommands {
		if strings.HasPrefix(c, strings.TrimPrefix(line, ":")) {
			out = append(out, c)
		}
	}
	return out
}

// handle runs one command line and reports whether the session should end.
func (s *session) handle(ctx context.Context, line string) (exit bool) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), ":"))
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	var err error
	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprint(s.out, replHelp)
	case "load":
		err = s.load(args)
	case "set":
		err = s.set(args)
	case "unset":
		for _, name := range args {
			delete(s.env, name)
		}
	case "env":
		for _, name := range slices.Sorted(maps.Keys(s.env)) {
			fmt.Fprintf(s.out, "%s = %v\n", name, s.env[name])
		}
	case "series":
		err = s.series(ctx, args)
	default:
		if s.tree == nil {
			err = errors.New("no tree loaded, use load <document>")
			break
		}
		err = s.treeCommand(ctx, cmd, args)
	}
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
	}
	return false
}

func (s *session) load(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: load <document>")
	}
	doc, tree, err := loadTree(args[0])
	if err != nil {
		return err
	}
	s.name, s.tree = doc.Name, tree
	fmt.Fprintln(s.out, goexpr.Serialize(tree))
	return nil
}

func (s *session) set(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: set <name>=<value>")
	}
	env, err := loadEnv("", []string{strings.Join(args, " ")})
	if err != nil {
		return err
	}
	maps.Copy(s.env, env)
	return nil
}

func (s *session) series(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: series <database>")
	}
	res, err := openResources(ctx, args[0], "")
	if err != nil {
		return err
	}
	// Keep the models of the previous resources.
	res.models, s.res.models = s.res.models, nil
	if err := s.res.Close(ctx); err != nil {
		s.opts.Logger.Error("release resources", "error", err)
	}
	s.res = res
	fmt.Fprintf(s.out, "series: %s\n", strings.Join(res.series.Names(), ", "))
	return nil
}

func (s *session) treeCommand(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "eval":
		opts := append(s.opts.Config.EvalOptions(), evaluator.WithLogger(s.opts.Logger))
		opts = append(opts, s.res.evalOptions()...)
		r, err := goexpr.Evaluate(ctx, s.tree, s.env, opts...)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, r.Value.String())
		if !r.Success {
			fmt.Fprintf(s.out, "warning: %s\n", r.Error)
		}
	case "show":
		fmt.Fprintln(s.out, goexpr.Serialize(s.tree))
	case "describe":
		metric := s.opts.Config.Metric
		if len(args) > 0 {
			metric = args[0] != "imperial"
		}
		fmt.Fprintln(s.out, goexpr.Describe(s.tree, metric))
	case "type":
		out := checkTree(s.tree)
		fmt.Fprintf(s.out, "type %s, unit %q\n", out.Type, out.Unit)
		for _, p := range out.Problems {
			fmt.Fprintf(s.out, "  %s\n", p)
		}
	case "scan":
		fmt.Fprintf(s.out, "variables: %s\nfunctions: %s\nmodels:    %s\n",
			strings.Join(goexpr.CollectFreeVariables(s.tree), ", "),
			strings.Join(goexpr.CollectFunctionNames(s.tree), ", "),
			strings.Join(goexpr.CollectModelIds(s.tree), ", "))
	case "simplify":
		return s.replace(newSimplifier(s.opts).Simplify(s.tree))
	case "fold":
		opts := append(s.opts.Config.EvalOptions(), evaluator.WithLogger(s.opts.Logger))
		return s.replace(goexpr.FoldConstants(ctx, s.tree, s.env, opts...))
	case "diff":
		if len(args) != 1 {
			return errors.New("usage: diff <x>")
		}
		return s.replace(goexpr.Differentiate(s.tree, args[0]))
	case "invert":
		if len(args) < 1 || len(args) > 2 {
			return errors.New("usage: invert <x> [y]")
		}
		target := "y"
		if len(args) == 2 {
			target = args[1]
		}
		return s.replace(goexpr.Invert(s.tree, types.Var(target), args[0]))
	case "save":
		if len(args) != 1 {
			return errors.New("usage: save <document>")
		}
		if err := saveTree(args[0], s.name, s.tree); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "saved %s\n", args[0])
	default:
		return fmt.Errorf("unknown command %q, type help for help", cmd)
	}
	return nil
}

func (s *session) replace(tree types.Node, err error) error {
	if err != nil {
		return err
	}
	s.tree = tree
	fmt.Fprintln(s.out, goexpr.Serialize(tree))
	return nil
}
