package visualizer

// interpreter.go = the receiving side's scripting environment. Every incoming line is a
// small Starlark program run against one persistent set of globals.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"navpanel/internal/protocol"
)

// UpdateHook is the script function called for every binding a line produces.
const UpdateHook = "on_update"

var ErrNoSuchFunction = errors.New("no such function")

// builtins lets the panel's wire literals evaluate: Starlark spells booleans True/False
// and has no names for non-finite floats.
var builtins = starlark.StringDict{
	"true":     starlark.True,
	"false":    starlark.False,
	"NaN":      starlark.Float(math.NaN()),
	"Infinity": starlark.Float(math.Inf(1)),
}

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// Interpreter executes lines against persistent globals. It is safe for concurrent use;
// lines run one at a time.
type Interpreter struct {
	mu      sync.Mutex
	globals starlark.StringDict
	bound   map[string]bool
	logger  *slog.Logger

	executed int
	failed   int
}

func NewInterpreter(logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.Default()
	}
	globals := make(starlark.StringDict, len(builtins))
	for k, v := range builtins {
		globals[k] = v
	}
	return &Interpreter{globals: globals, bound: make(map[string]bool), logger: logger}
}

func (in *Interpreter) thread(name string) *starlark.Thread {
	return &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			in.logger.Info("script_print", "thread", name, "output", msg)
		},
	}
}

// LoadScript runs a script file; its top-level definitions join the globals, so lines
// can call its functions and an on_update function starts receiving updates.
func (in *Interpreter) LoadScript(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load script %s: %w", path, err)
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	names, err := in.run(in.thread("script"), path, src)
	if err != nil {
		return fmt.Errorf("load script %s: %w", path, err)
	}
	in.logger.Info("script_loaded",
		"path", path,
		"definitions", len(names),
	)
	return nil
}

// Exec runs one line and returns the names it bound, sorted.
func (in *Interpreter) Exec(line string) ([]string, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	thread := in.thread("line")
	names, err := in.run(thread, "<line>", line)
	if err != nil {
		in.failed++
		return nil, fmt.Errorf("exec %q: %w", line, err)
	}
	in.executed++

	if hook, ok := in.globals[UpdateHook].(starlark.Callable); ok {
		for _, name := range names {
			if name == UpdateHook {
				continue
			}
			args := starlark.Tuple{starlark.String(name), in.globals[name]}
			if _, err := starlark.Call(thread, hook, args, nil); err != nil {
				in.logger.Warn("update_hook_failed",
					"name", name,
					"error", err.Error(),
				)
			}
		}
	}
	return names, nil
}

// run executes src against the shared globals without freezing them, so script state
// such as a dict filled by on_update stays mutable. Caller holds in.mu.
func (in *Interpreter) run(thread *starlark.Thread, filename string, src any) ([]string, error) {
	f, err := fileOptions.Parse(filename, src, 0)
	if err != nil {
		return nil, err
	}
	names := boundNames(f)
	err = starlark.ExecREPLChunk(f, thread, in.globals)
	// bindings made before a runtime error stay visible
	for _, name := range names {
		if _, ok := in.globals[name]; ok {
			in.bound[name] = true
		}
	}
	if err != nil {
		return nil, err
	}
	return names, nil
}

// boundNames lists the globals a file assigns at top level, sorted.
func boundNames(f *syntax.File) []string {
	seen := make(map[string]bool)
	var bind func(e syntax.Expr)
	bind = func(e syntax.Expr) {
		switch e := e.(type) {
		case *syntax.Ident:
			seen[e.Name] = true
		case *syntax.ParenExpr:
			bind(e.X)
		case *syntax.TupleExpr:
			for _, x := range e.List {
				bind(x)
			}
		case *syntax.ListExpr:
			for _, x := range e.List {
				bind(x)
			}
		}
	}

	syntax.Walk(f, func(n syntax.Node) bool {
		switch n := n.(type) {
		case *syntax.AssignStmt:
			bind(n.LHS)
		case *syntax.ForStmt:
			bind(n.Vars)
		case *syntax.LoadStmt:
			for _, id := range n.To {
				seen[id.Name] = true
			}
		case *syntax.DefStmt:
			seen[n.Name.Name] = true
			return false
		case *syntax.LambdaExpr, *syntax.Comprehension:
			return false
		}
		return true
	})

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HandleLine makes the interpreter a LineHandler.
func (in *Interpreter) HandleLine(line string) error {
	_, err := in.Exec(line)
	return err
}

// Call invokes a global function with Go arguments and converts the result back.
func (in *Interpreter) Call(fn string, args ...any) (any, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	callable, ok := in.globals[fn].(starlark.Callable)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchFunction, fn)
	}

	tuple := make(starlark.Tuple, 0, len(args))
	for _, a := range args {
		v, err := toStarlarkValue(a)
		if err != nil {
			return nil, err
		}
		tuple = append(tuple, v)
	}

	result, err := starlark.Call(in.thread("call"), callable, tuple, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", fn, err)
	}
	return fromStarlarkValue(result), nil
}

// ParseCall splits a call written as "fn" or "fn(arg, ...)" into the function name and
// its arguments. Arguments are JSON values.
func ParseCall(s string) (string, []any, error) {
	s = strings.TrimSpace(s)
	name, rest, hasArgs := strings.Cut(s, "(")
	name = strings.TrimSpace(name)
	if !protocol.IsIdentifier(name) {
		return "", nil, fmt.Errorf("call %q: bad function name", s)
	}
	if !hasArgs {
		return name, nil, nil
	}
	if !strings.HasSuffix(rest, ")") {
		return "", nil, fmt.Errorf("call %q: missing closing parenthesis", s)
	}

	var args []any
	if err := json.Unmarshal([]byte("["+strings.TrimSuffix(rest, ")")+"]"), &args); err != nil {
		return "", nil, fmt.Errorf("call %q: bad arguments: %w", s, err)
	}
	if len(args) == 0 {
		return name, nil, nil
	}
	return name, args, nil
}

// Variables snapshots every non-function global bound by a line or the script.
func (in *Interpreter) Variables() map[string]any {
	in.mu.Lock()
	defer in.mu.Unlock()

	vars := make(map[string]any, len(in.bound))
	for name := range in.bound {
		v := in.globals[name]
		if _, isFunc := v.(starlark.Callable); isFunc {
			continue
		}
		vars[name] = fromStarlarkValue(v)
	}
	return vars
}

// Lookup returns one global as a Go value.
func (in *Interpreter) Lookup(name string) (any, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	v, ok := in.globals[name]
	if !ok {
		return nil, false
	}
	return fromStarlarkValue(v), true
}

// Counts reports how many lines ran and how many failed.
func (in *Interpreter) Counts() (executed, failed int) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.executed, in.failed
}
