// internal/compute/engine.go
package compute

import (
	"fmt"
	"log"
	"math"
	"sort"
	"sync"

	"github.com/dop251/goja"

	"github.com/tamzrod/inverter-mqtt/internal/telemetry"
)

// Engine evaluates user-defined metric expressions against a decoded
// batch. Each expression sees the batch's values as a map `m` keyed by
// metric name and must evaluate to a number. Expressions never see each
// other's results, so evaluation order cannot matter.
type Engine struct {
	mu       sync.Mutex // goja runtimes are not goroutine-safe
	vm       *goja.Runtime
	programs []program
}

type program struct {
	name string
	prog *goja.Program
}

// New compiles the expression set up front so configuration errors
// surface at startup, not mid-cycle.
func New(exprs map[string]string) (*Engine, error) {
	e := &Engine{vm: goja.New()}
	if err := e.compile(exprs); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) compile(exprs map[string]string) error {
	names := make([]string, 0, len(exprs))
	for name := range exprs {
		names = append(names, name)
	}
	sort.Strings(names)

	programs := make([]program, 0, len(names))
	for _, name := range names {
		p, err := goja.Compile(name, exprs[name], true)
		if err != nil {
			return fmt.Errorf("compute: metric %q: %w", name, err)
		}
		programs = append(programs, program{name: name, prog: p})
	}
	e.programs = programs
	return nil
}

// Reload swaps in a new expression set. On compile failure the previous
// set stays active.
func (e *Engine) Reload(exprs map[string]string) error {
	next := &Engine{vm: goja.New()}
	if err := next.compile(exprs); err != nil {
		return err
	}

	e.mu.Lock()
	e.vm = next.vm
	e.programs = next.programs
	e.mu.Unlock()
	return nil
}

// Eval appends one value per expression to the batch. An expression that
// throws or yields a non-finite number is skipped with a log line; the
// batch's measured values are never touched.
func (e *Engine) Eval(batch *telemetry.Batch) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.programs) == 0 {
		return
	}

	m := make(map[string]float64, len(batch.Values))
	for _, v := range batch.Values {
		m[v.Name] = v.Value
	}
	e.vm.Set("m", m)

	for _, p := range e.programs {
		res, err := e.vm.RunProgram(p.prog)
		if err != nil {
			log.Printf("compute: %s: %v", p.name, err)
			continue
		}
		f := res.ToFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			log.Printf("compute: %s: non-finite result", p.name)
			continue
		}
		batch.Values = append(batch.Values, telemetry.Value{
			Name:  p.name,
			Value: f,
			Topic: p.name,
			At:    batch.At,
		})
	}
}
