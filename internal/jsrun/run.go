// Package jsrun executes bundles in an embedded JavaScript engine.
package jsrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dop251/goja"
)

// Runner evaluates scripts with a minimal console.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run compiles and executes code. Cancelling ctx interrupts the script.
func (r *Runner) Run(ctx context.Context, name string, code []byte) error {
	prog, err := goja.Compile(name, string(code), false)
	if err != nil {
		return fmt.Errorf("compile %s: %w", name, err)
	}

	vm := goja.New()
	if err := r.installConsole(vm); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	_, err = vm.RunProgram(prog)
	if err == nil {
		return nil
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return fmt.Errorf("%s interrupted: %w", name, cause)
		}
		return fmt.Errorf("%s interrupted: %v", name, interrupted.Value())
	}
	var exc *goja.Exception
	if errors.As(err, &exc) {
		return &ScriptError{Name: name, Message: exc.Value().String(), Stack: exc.Error()}
	}
	return err
}

// ScriptError is an uncaught exception thrown by the script.
type ScriptError struct {
	Name    string
	Message string
	Stack   string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s: uncaught %s", e.Name, e.Message)
}

func (r *Runner) installConsole(vm *goja.Runtime) error {
	stdout, stderr := r.Stdout, r.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	console := vm.NewObject()
	for name, w := range map[string]io.Writer{
		"log":   stdout,
		"info":  stdout,
		"debug": stdout,
		"warn":  stderr,
		"error": stderr,
	} {
		if err := console.Set(name, printer(w)); err != nil {
			return err
		}
	}
	return vm.Set("console", console)
}

func printer(w io.Writer) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = format(arg)
		}
		_, _ = io.WriteString(w, strings.Join(parts, " ")+"\n") //nolint:errcheck
		return goja.Undefined()
	}
}

// format renders plain objects and arrays as JSON, everything else via String.
func format(v goja.Value) string {
	if obj, ok := v.(*goja.Object); ok {
		if _, isFn := goja.AssertFunction(obj); !isFn && obj.ClassName() != "Error" {
			if b, err := obj.MarshalJSON(); err == nil {
				return string(b)
			}
		}
	}
	return v.String()
}
