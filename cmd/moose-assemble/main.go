// Package main implements the moose-assemble entry point: it builds a 1D
// mesh and a set of kernels from a problem file, runs tagged residual and
// Jacobian assembly, and reports the norm of every tagged global container.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"gonum.org/v1/gonum/mat"

	"github.com/90jrong/moose/assembly"
	"github.com/90jrong/moose/config"
	"github.com/90jrong/moose/kernel"
	"github.com/90jrong/moose/metric"
	"github.com/90jrong/moose/tag"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "moose-assemble"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Assembly failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}
	if cliCfg.ShowVersion {
		fmt.Printf("%s %s\n", appName, Version)
		return nil
	}
	if err := validateFlags(cliCfg); err != nil {
		return err
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	problem, err := loadProblem(cliCfg.ConfigPath)
	if err != nil {
		return err
	}
	if cliCfg.Validate {
		logger.Info("Problem file is valid", "problem", problem.Name)
		return nil
	}

	logger.Info("Starting assembly",
		"problem", problem.Name,
		"elements", problem.Mesh.Elements,
		"length", problem.Mesh.Length,
	)

	tagRegistry := tag.NewRegistry()
	metricsRegistry := metric.NewMetricsRegistry()

	kernelRegistry := kernel.NewRegistry()
	if err := kernel.RegisterBuiltins(kernelRegistry); err != nil {
		return err
	}

	deps := kernel.Dependencies{
		TagRegistry: tagRegistry,
		Metrics:     metricsRegistry,
		Logger:      logger,
	}
	kernels, err := problem.Build(kernelRegistry, deps)
	if err != nil {
		return err
	}
	logger.Info("Built kernels", "count", len(kernels))

	elems := kernel.Line1D(problem.Mesh.Elements, problem.Mesh.Length)
	setInitialSolution(elems, problem.Mesh.Length)

	ndofs := problem.Mesh.Elements + 1
	asm, err := assembly.New(tagRegistry, ndofs, assembly.WithMetrics(metricsRegistry))
	if err != nil {
		return err
	}

	if err := kernel.AssembleResidual(asm, elems, kernels, metricsRegistry); err != nil {
		return err
	}
	if err := kernel.AssembleJacobian(asm, elems, kernels, metricsRegistry); err != nil {
		return err
	}

	return report(asm, tagRegistry, logger)
}

func loadProblem(path string) (*config.Problem, error) {
	if path == "" {
		return config.DefaultProblem(), nil
	}
	return config.Load(path)
}

// setInitialSolution seeds variable 0 with u(x) = x(L-x) and zero old
// values, so every builtin kernel produces a nonzero contribution.
func setInitialSolution(elems []*kernel.Element, length float64) {
	if len(elems) == 0 {
		return
	}
	h := length / float64(len(elems))
	u := func(x float64) float64 { return x * (length - x) }

	for k, e := range elems {
		x0 := float64(k) * h
		e.SetVariable(0, []int{k, k + 1}, []float64{u(x0), u(x0 + h)})
		e.SetVariableOld(0, []float64{0, 0})
	}
}

func report(asm *assembly.Assembly, registry *tag.Registry, logger *slog.Logger) error {
	for _, name := range registry.VectorTagNames() {
		id, err := registry.VectorTagID(name)
		if err != nil {
			return err
		}
		r, err := asm.Residual(id)
		if err != nil {
			return err
		}
		logger.Info("Residual assembled", "tag", name, "id", id, "norm", r.Norm())
	}

	for _, name := range registry.MatrixTagNames() {
		id, err := registry.MatrixTagID(name)
		if err != nil {
			return err
		}
		trip, err := asm.Jacobian(id)
		if err != nil {
			return err
		}
		logger.Info("Jacobian assembled",
			"tag", name, "id", id,
			"entries", trip.Len(),
			"frobenius_norm", mat.Norm(trip.ToDense(), 2),
		)
	}
	return nil
}
