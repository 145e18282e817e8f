package cmd

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"videomcq/config"
	"videomcq/internal/events"
	"videomcq/internal/ffmpeg"
	"videomcq/internal/jobs"
	"videomcq/internal/mcq"
	"videomcq/internal/observe"
	"videomcq/internal/pipeline"
	"videomcq/internal/store"
	"videomcq/internal/transcript"
)

// deps are the components shared by every command.
type deps struct {
	store   store.Store
	redis   *redis.Client
	bus     events.Bus
	metrics *observe.Metrics
	pipe    *pipeline.Orchestrator
}

func (d *deps) Close() {
	if d.bus != nil {
		d.bus.Close()
	}
	if d.redis != nil {
		d.redis.Close()
	}
	if d.store != nil {
		d.store.Close()
	}
}

func openStore(ctx context.Context, c config.StoreConfig) (store.Store, error) {
	switch c.Driver {
	case "supabase":
		return store.NewSupabase(c.SupabaseURL, c.SupabaseKey, c.Bucket)
	case "postgres":
		return store.NewPostgres(ctx, c.PostgresDSN)
	case "memory", "":
		return store.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", c.Driver)
}

func newGenerator(c config.GenerationConfig) (mcq.Generator, error) {
	switch c.Provider {
	case "openai":
		return mcq.NewOpenAIGenerator(c.APIKey, c.Model,
			mcq.WithOpenAIBaseURL(c.Endpoint),
			mcq.WithOpenAIChunkTimeout(c.ChunkTimeout),
			mcq.WithOpenAITemperature(float32(c.Temperature)))
	case "ollama", "":
		return mcq.NewOllamaGenerator(c.Endpoint, c.Model,
			mcq.WithOllamaChunkTimeout(c.ChunkTimeout),
			mcq.WithOllamaTemperature(c.Temperature),
			mcq.WithOllamaLogger(logger))
	}
	return nil, fmt.Errorf("unknown generation provider %q", c.Provider)
}

// buildDeps opens the store, the Redis client when configured, the event bus
// and the pipeline.
func buildDeps(ctx context.Context) (*deps, error) {
	d := &deps{metrics: observe.DefaultMetrics()}

	s, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	d.store = s

	if cfg.Queue.RedisAddr != "" {
		d.redis = redis.NewClient(&redis.Options{Addr: cfg.Queue.RedisAddr})
		if err := d.redis.Ping(ctx).Err(); err != nil {
			d.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		d.bus = events.NewRedis(d.redis, cfg.Queue.EventPrefix, logger)
	} else {
		d.bus = events.NewMemory(0)
	}

	gen, err := newGenerator(cfg.Generation)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.pipe, err = pipeline.New(pipeline.Config{
		TranscriptionEndpoint: cfg.Transcription.Endpoint,
		GenerationEndpoint:    cfg.Generation.Endpoint,
		Model:                 cfg.Generation.Model,
		Store:                 d.store,
	},
		pipeline.WithLogger(logger),
		pipeline.WithGenerator(gen),
		pipeline.WithBus(d.bus),
		pipeline.WithMetrics(d.metrics),
		pipeline.WithProber(ffmpeg.Prober{Binary: cfg.Server.FFprobe}),
		pipeline.WithTranscriptOptions(
			transcript.WithWindow(cfg.Transcription.WindowSeconds),
			transcript.WithChunkTimeout(cfg.Transcription.ChunkTimeout),
		),
	)
	if err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// newQueue returns the queue submitted jobs go to. With the local driver the
// returned dispatcher must be run by the caller.
func newQueue(d *deps, runner *jobs.Runner) (jobs.Queue, *jobs.Dispatcher, error) {
	switch cfg.Queue.Driver {
	case "redis":
		if d.redis == nil {
			return nil, nil, fmt.Errorf("redis queue needs queue.redis_addr")
		}
		return jobs.NewRedisQueue(d.redis, cfg.Queue.Key, int64(cfg.Queue.Size), logger), nil, nil
	case "local", "":
		disp := jobs.NewDispatcher(cfg.Queue.Workers, cfg.Queue.Size, logger)
		return jobs.NewLocalQueue(disp, runner), disp, nil
	}
	return nil, nil, fmt.Errorf("unknown queue driver %q", cfg.Queue.Driver)
}
