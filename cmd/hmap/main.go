// Command hmap embeds an edge-list graph into the hyperbolic plane and
// answers routing queries against the resulting coordinates.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	json "github.com/goccy/go-json"

	"github.com/danieldanhe/hyperbolic-networks/internal/watch"
	"github.com/danieldanhe/hyperbolic-networks/pkg/debug"
	"github.com/danieldanhe/hyperbolic-networks/pkg/embedcache"
	"github.com/danieldanhe/hyperbolic-networks/pkg/hconfig"
	"github.com/danieldanhe/hyperbolic-networks/pkg/hgraph"
	"github.com/danieldanhe/hyperbolic-networks/pkg/hyperbolic"
	"github.com/danieldanhe/hyperbolic-networks/pkg/routing"
)

type output struct {
	Stats  interface{}               `json:"stats"`
	Nodes  []hyperbolic.EmbeddedNode `json:"nodes"`
	Routes []routeOutput             `json:"routes,omitempty"`
}

type routeOutput struct {
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Success    bool     `json:"success"`
	Path       []string `json:"path,omitempty"`
	Distance   float64  `json:"distance"`
	Stretch    float64  `json:"stretch"`
	PathLength int      `json:"pathLength"`
	Error      string   `json:"error,omitempty"`
}

func main() {
	var (
		edgeFile  = flag.String("edges", "", "path to the edge-list CSV (required; also the file watched by --watch)")
		cfgPath   = flag.String("config", "", "path to a config.yaml (defaults to XDG config dir)")
		cacheDir  = flag.String("cache-dir", "", "sqlite cache directory; empty disables caching")
		watchMode = flag.Bool("watch", false, "re-embed on every edge-file change")
		routesArg = flag.String("routes", "", "comma-separated start:end routing queries, e.g. A:B,C:D")
		debugFlag = flag.Bool("debug", false, "enable debug logging (same as HMAP_DEBUG=1)")
	)
	flag.Parse()

	if *debugFlag {
		debug.SetEnabled(true)
	}

	if *edgeFile == "" {
		fmt.Fprintln(os.Stderr, "hmap: --edges is required")
		os.Exit(2)
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hmap: %v\n", err)
		os.Exit(1)
	}

	var cache *embedcache.Cache
	if *cacheDir != "" {
		if err := os.MkdirAll(*cacheDir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "hmap: creating cache dir: %v\n", err)
			os.Exit(1)
		}
		cache, err = embedcache.Open(*cacheDir + "/embeddings.db")
		if err != nil {
			fmt.Fprintf(os.Stderr, "hmap: opening cache: %v\n", err)
			os.Exit(1)
		}
		defer cache.Close()
	}

	queries := parseRoutes(*routesArg)

	run := func() error {
		return runOnce(*edgeFile, cfg, cache, queries)
	}

	if !*watchMode {
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "hmap: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(*edgeFile,
		watch.WithOnChange(func() {
			if err := run(); err != nil {
				fmt.Fprintf(os.Stderr, "hmap: %v\n", err)
			}
		}),
		watch.WithOnError(func(err error) {
			fmt.Fprintf(os.Stderr, "hmap: watch: %v\n", err)
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hmap: %v\n", err)
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hmap: %v\n", err)
	}

	if err := w.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "hmap: watch: %v\n", err)
		os.Exit(1)
	}
	defer w.Stop()

	<-ctx.Done()
}

func loadConfig(path string) (hconfig.EmbeddingConfig, error) {
	var cfg hconfig.EmbeddingConfig
	var err error
	if path != "" {
		cfg, err = hconfig.LoadFrom(path)
	} else {
		cfg, err = hconfig.Load()
	}
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

type parsedQuery struct {
	start, end string
}

func parseRoutes(arg string) []parsedQuery {
	if arg == "" {
		return nil
	}
	var out []parsedQuery
	for _, pair := range strings.Split(arg, ",") {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			continue
		}
		out = append(out, parsedQuery{start: strings.TrimSpace(parts[0]), end: strings.TrimSpace(parts[1])})
	}
	return out
}

func runOnce(edgeFile string, cfg hconfig.EmbeddingConfig, cache *embedcache.Cache, queries []parsedQuery) error {
	defer debug.LogEnterExit("run")()

	text, err := os.ReadFile(edgeFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", edgeFile, err)
	}

	res, err := embedWithCache(string(text), cfg, cache)
	if err != nil {
		return err
	}

	out := output{Stats: res.Stats, Nodes: res.Nodes}

	if len(queries) > 0 && res.Graph != nil {
		rt := routing.NewRouter(res.Graph, res.Index())
		for _, q := range queries {
			ro := routeOutput{Start: q.start, End: q.end}
			result, err := rt.Route(q.start, q.end)
			if err != nil {
				ro.Error = err.Error()
			} else {
				ro.Success = result.Success
				ro.Distance = result.Distance
				ro.Stretch = result.Stretch
				ro.PathLength = result.PathLength
				for _, n := range result.Path {
					ro.Path = append(ro.Path, n.ID)
				}
			}
			out.Routes = append(out.Routes, ro)
		}
	}

	w := bufio.NewWriter(os.Stdout)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return w.Flush()
}

func embedWithCache(text string, cfg hconfig.EmbeddingConfig, cache *embedcache.Cache) (*hyperbolic.Result, error) {
	ctx := context.Background()

	if cache == nil {
		return hyperbolic.Embed(ctx, text, cfg)
	}

	key, err := embedcache.Key(text, cfg)
	if err != nil {
		return nil, fmt.Errorf("computing cache key: %w", err)
	}

	if entry, err := cache.Get(key); err == nil {
		edges, err := hgraph.ParseEdges(text)
		if err != nil {
			return nil, fmt.Errorf("embedding: %w", err)
		}
		g := hgraph.Build(edges)
		return &hyperbolic.Result{Nodes: entry.Nodes, Stats: entry.Stats, Graph: g}, nil
	}

	res, err := hyperbolic.Embed(ctx, text, cfg)
	if err != nil {
		return nil, err
	}
	if putErr := cache.Put(key, embedcache.FromResult(res)); putErr != nil {
		debug.Log("hmap: cache put failed: %v", putErr)
	}
	return res, nil
}
