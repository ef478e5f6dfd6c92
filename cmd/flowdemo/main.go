package main

import (
	"context"
	"flag"
	"fmt"
	"iter"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/flowforge/pipeline/config"
	"github.com/flowforge/pipeline/pipeline"
)

func main() {
	var (
		scenario = flag.String("scenario", "basic", "Demo scenario to run: basic, fanout, messaging")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	var logger *slog.Logger
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch *scenario {
	case "basic":
		err = runBasic(ctx)
	case "fanout":
		err = runFanOut(ctx)
	case "messaging":
		err = runMessaging(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Usage: flowdemo -scenario <basic|fanout|messaging>\n")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("scenario %q failed: %v", *scenario, err)
	}
}

func single(v int) iter.Seq[int] {
	return func(yield func(int) bool) { yield(v) }
}

func runBasic(ctx context.Context) error {
	p := pipeline.New[int](config.DefaultPipelineConfig())

	add := func(ctx context.Context, x int, persistent any, kwargs map[string]any) (iter.Seq[int], error) {
		return single(x + 1), nil
	}
	sub := func(ctx context.Context, x int, persistent any, kwargs map[string]any) (iter.Seq[int], error) {
		return single(x - 3), nil
	}
	mul := func(ctx context.Context, x int, persistent any, kwargs map[string]any) (iter.Seq[int], error) {
		return single(x * 5), nil
	}

	oneWorker := config.StageConfig{NumWorkers: 1, ChunkSize: 1}
	if err := p.AddTask(pipeline.StageSpec[int]{Name: "add", Config: oneWorker, Transform: add}); err != nil {
		return err
	}
	if err := p.AddTask(pipeline.StageSpec[int]{Name: "sub", Config: oneWorker, Transform: sub}); err != nil {
		return err
	}
	if err := p.AddTask(pipeline.StageSpec[int]{Name: "mul", Config: oneWorker, Transform: mul}); err != nil {
		return err
	}

	if err := p.Start(ctx); err != nil {
		return err
	}
	if err := p.Feed(ctx, 0); err != nil {
		return err
	}
	if err := p.Join(ctx); err != nil {
		return err
	}

	for v := range p.AsCompleted(ctx) {
		fmt.Printf("result: %d\n", v)
	}
	return p.Err()
}

func runFanOut(ctx context.Context) error {
	p := pipeline.New[int](config.DefaultPipelineConfig())

	origin := pipeline.StageSpec[int]{
		Name:   "iterator_origin",
		Config: config.StageConfig{NumWorkers: 1, ChunkSize: 1},
		Transform: func(ctx context.Context, count int, persistent any, kwargs map[string]any) (iter.Seq[int], error) {
			return func(yield func(int) bool) {
				for i := 0; i < count; i++ {
					if !yield(i) {
						return
					}
				}
			}, nil
		},
	}
	add := pipeline.StageSpec[int]{
		Name:   "add",
		Config: config.StageConfig{NumWorkers: 20, ChunkSize: 1},
		Transform: func(ctx context.Context, x int, persistent any, kwargs map[string]any) (iter.Seq[int], error) {
			return single(x + 1), nil
		},
	}
	sub := pipeline.StageSpec[int]{
		Name:   "sub",
		Config: config.StageConfig{NumWorkers: 17, ChunkSize: 1},
		Transform: func(ctx context.Context, x int, persistent any, kwargs map[string]any) (iter.Seq[int], error) {
			return single(x - 3), nil
		},
	}
	mul := pipeline.StageSpec[int]{
		Name:   "mul",
		Config: config.StageConfig{NumWorkers: 7, ChunkSize: 1},
		Transform: func(ctx context.Context, x int, persistent any, kwargs map[string]any) (iter.Seq[int], error) {
			return single(x * 5), nil
		},
	}

	for _, err := range []error{
		p.AddOrigin(origin),
		p.AddTask(add),
		p.AddTask(sub),
		p.AddTask(mul),
	} {
		if err != nil {
			return err
		}
	}

	if err := p.Start(ctx); err != nil {
		return err
	}
	if err := p.Feed(ctx, 100); err != nil {
		return err
	}
	if err := p.Join(ctx); err != nil {
		return err
	}

	count := 0
	for range p.AsCompleted(ctx) {
		count++
	}
	fmt.Printf("fan-out produced %d results\n", count)
	return p.Err()
}

func runMessaging(ctx context.Context) error {
	identity := func(name string) pipeline.StageSpec[int] {
		return pipeline.StageSpec[int]{
			Name:   name,
			Config: config.StageConfig{NumWorkers: 1, ChunkSize: 1},
			Transform: func(ctx context.Context, x int, persistent any, kwargs map[string]any) (iter.Seq[int], error) {
				return single(x), nil
			},
		}
	}

	even := pipeline.NewNamed[int](ctx, "even", config.DefaultPipelineConfig())
	if err := even.AddDestination(identity("even-sink")); err != nil {
		return err
	}
	if err := even.Start(ctx); err != nil {
		return err
	}

	odd := pipeline.NewNamed[int](ctx, "odd", config.DefaultPipelineConfig())
	if err := odd.AddDestination(identity("odd-sink")); err != nil {
		return err
	}
	if err := odd.Start(ctx); err != nil {
		return err
	}

	router := pipeline.StageSpec[int]{
		Name:   "router",
		Config: config.StageConfig{NumWorkers: 1, ChunkSize: 1},
		Transform: func(ctx context.Context, x int, persistent any, kwargs map[string]any) (iter.Seq[int], error) {
			dest := "odd"
			if x%2 == 0 {
				dest = "even"
			}
			if err := pipeline.Send(ctx, dest, x); err != nil {
				return nil, err
			}
			return func(yield func(int) bool) {}, nil
		},
	}

	source := pipeline.New[int](config.DefaultPipelineConfig())
	if err := source.AddDestination(router); err != nil {
		return err
	}
	if err := source.Start(ctx); err != nil {
		return err
	}
	for i := range 100 {
		if err := source.Feed(ctx, i); err != nil {
			return err
		}
	}
	if err := source.Join(ctx); err != nil {
		return err
	}
	for range source.AsCompleted(ctx) {
	}

	if err := pipeline.Flush(ctx); err != nil {
		return err
	}
	if err := even.Join(ctx); err != nil {
		return err
	}
	if err := odd.Join(ctx); err != nil {
		return err
	}

	evens, odds := 0, 0
	for range even.AsCompleted(ctx) {
		evens++
	}
	for range odd.AsCompleted(ctx) {
		odds++
	}
	fmt.Printf("even sink: %d, odd sink: %d, total: %d\n", evens, odds, evens+odds)
	return nil
}
