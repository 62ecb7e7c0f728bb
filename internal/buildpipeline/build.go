// Package buildpipeline runs bundling end to end: graph discovery, emission
// and output, with progress events, timings and traces along the way.
package buildpipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"minipack/internal/asset"
	"minipack/internal/diag"
	"minipack/internal/emit"
	"minipack/internal/graph"
	"minipack/internal/jsparse"
	"minipack/internal/lower"
	"minipack/internal/metafile"
	"minipack/internal/observ"
	"minipack/internal/source"
	"minipack/internal/trace"
)

// Request configures one bundling run.
type Request struct {
	Entry      string
	Outfile    string // overrides OutDir when set
	OutDir     string
	Target     string
	Policy     graph.Policy
	MaxModules int
	Memoize    bool

	// Write=false keeps the bundle in memory (run, graph).
	Write          bool
	Metafile       bool
	MetafileFormat metafile.Format

	Reporter diag.Reporter // warnings and notes
	Progress ProgressSink
	Timer    *observ.Timer
}

// Result captures the artefacts of one run. Files is set even on failure so
// that diagnostics can be rendered against the sources.
type Result struct {
	Entry        string
	Files        *source.FileSet
	Graph        *graph.Graph
	Bundle       []byte
	OutputPath   string
	Meta         *metafile.Metafile
	MetafilePath string
	Timings      Timings
	// Err is the failure of this run when it came from BuildAll.
	Err error
}

// Build bundles req.Entry. The artifact is written only after every stage succeeded.
func Build(ctx context.Context, req *Request) (Result, error) {
	var result Result
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing build request")
	}
	if req.Entry == "" {
		return result, fmt.Errorf("missing entry path")
	}
	result.Entry = req.Entry
	result.Files = source.NewFileSet()

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "build:"+req.Entry, trace.ParentSpan(ctx))
	ctx = trace.WithSpan(ctx, span)
	defer span.End("")

	reporter := req.Reporter
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	tr, err := lower.New(req.Target, reporter)
	if err != nil {
		return result, err
	}
	loader := &asset.Loader{
		Files:       result.Files,
		Parser:      jsparse.Parser{},
		Scanner:     jsparse.Parser{},
		Transformer: tr,
	}
	builder := graph.NewBuilder(loader, graph.Options{
		Policy:     req.Policy,
		MaxModules: req.MaxModules,
		Memoize:    req.Memoize,
		Reporter:   reporter,
	})

	err = runStage(req, &result.Timings, StageGraph, func() (string, error) {
		g, err := builder.Build(ctx, req.Entry)
		if err != nil {
			return "", err
		}
		result.Graph = g
		return strconv.Itoa(g.Len()) + " modules", nil
	})
	if err != nil {
		return result, err
	}

	err = runStage(req, &result.Timings, StageEmit, func() (string, error) {
		sp := trace.Begin(tracer, trace.ScopePass, "emit", span.ID())
		defer sp.End("")
		b, err := emit.Bundle(result.Graph.Assets, emit.Options{Memoize: req.Memoize})
		if err != nil {
			return "", err
		}
		result.Bundle = b
		return sizeLabel(len(b)), nil
	})
	if err != nil {
		return result, err
	}

	if req.Write || req.Metafile {
		result.OutputPath = req.Outfile
		if result.OutputPath == "" {
			result.OutputPath = OutputPath(req.Entry, req.OutDir)
		}
	}
	if req.Metafile {
		result.Meta = metafile.FromGraph(result.Graph, req.Memoize, func(path string) int {
			if id, ok := result.Files.GetLatest(path); ok {
				return len(result.Files.Get(id).Content)
			}
			return 0
		})
		result.Meta.Output = &metafile.Output{Path: result.OutputPath, Bytes: len(result.Bundle)}
	}
	if !req.Write {
		return result, nil
	}

	err = runStage(req, &result.Timings, StageWrite, func() (string, error) {
		sp := trace.Begin(tracer, trace.ScopePass, "write", span.ID())
		defer sp.End(result.OutputPath)
		var meta []byte
		if result.Meta != nil {
			var buf bytes.Buffer
			if err := metafile.Encode(&buf, result.Meta, req.MetafileFormat); err != nil {
				return "", err
			}
			meta = buf.Bytes()
		}
		if err := writeAtomic(result.OutputPath, result.Bundle); err != nil {
			return "", err
		}
		if meta == nil {
			return result.OutputPath, nil
		}
		metaPath := strings.TrimSuffix(result.OutputPath, ".js") + req.MetafileFormat.Ext()
		if err := writeAtomic(metaPath, meta); err != nil {
			// бандл без метафайла не оставляем
			_ = os.Remove(result.OutputPath)
			return "", err
		}
		result.MetafilePath = metaPath
		return result.OutputPath, nil
	})
	if err != nil {
		return result, err
	}
	emitStage(req.Progress, req.Entry, StageWrite, StatusDone, result.OutputPath, nil, result.Timings.Total())
	return result, nil
}

// runStage times fn, records it on the request's timer and reports progress.
func runStage(req *Request, timings *Timings, stage Stage, fn func() (string, error)) error {
	start := time.Now()
	emitStage(req.Progress, req.Entry, stage, StatusWorking, "", nil, 0)
	var note string
	err := req.Timer.Track(string(stage)+" "+filepath.Base(req.Entry), func() (string, error) {
		var err error
		note, err = fn()
		return note, err
	})
	elapsed := time.Since(start)
	timings.Set(stage, elapsed)
	if err != nil {
		emitStage(req.Progress, req.Entry, stage, StatusError, "", err, elapsed)
		return err
	}
	emitStage(req.Progress, req.Entry, stage, StatusWorking, note, nil, elapsed)
	return nil
}

// BuildAll runs one Build per request with at most jobs running at once.
// The first failure cancels the remaining runs. Results keep request order.
func BuildAll(ctx context.Context, reqs []Request, jobs int) ([]Result, error) {
	results := make([]Result, len(reqs))
	if err := checkOutputs(reqs); err != nil {
		return results, err
	}
	for i := range reqs {
		emitStage(reqs[i].Progress, reqs[i].Entry, StageGraph, StatusQueued, "", nil, 0)
	}

	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i := range reqs {
		g.Go(func() error {
			res, err := Build(gctx, &reqs[i])
			res.Err = err
			results[i] = res
			return err
		})
	}
	err := g.Wait()
	return results, err
}

// checkOutputs rejects requests that would write the same file.
func checkOutputs(reqs []Request) error {
	seen := make(map[string]string, len(reqs))
	for _, r := range reqs {
		if !r.Write {
			continue
		}
		out := r.Outfile
		if out == "" {
			out = OutputPath(r.Entry, r.OutDir)
		}
		abs, err := filepath.Abs(out)
		if err != nil {
			return err
		}
		if prev, dup := seen[abs]; dup {
			return fmt.Errorf("entries %s and %s both write %s", prev, r.Entry, out)
		}
		seen[abs] = r.Entry
	}
	return nil
}
