package servecmder

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/sous/cmd/sous/configpath"
	"github.com/papercomputeco/sous/pkg/config"
	"github.com/papercomputeco/sous/pkg/logger"
	"github.com/papercomputeco/sous/pkg/recipes"
	"github.com/papercomputeco/sous/server"
)

const serveLongDesc string = `Serve the recipe assistant API.

Answers come from a TOML recipe book, reloaded whenever the file
changes, or from another recipe API with --upstream. Without
--recipes the built-in sample book is served. Ratings sent to
/api/feedback are kept in SQLite with --db, in memory otherwise.

Examples:
  sous serve
  sous serve --recipes ~/recipes.toml --vector --db ~/.sous/feedback.db
  sous serve --listen :9000 --upstream http://gpu-box:8000`

const serveShortDesc string = "Serve the recipe API"

type serveCommander struct {
	listen   string
	recipes  string
	db       string
	upstream string
	vector   bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (overrides config)")
	cmd.Flags().StringVarP(&cmder.recipes, "recipes", "r", "", "TOML recipe book (default: built-in sample book)")
	cmd.Flags().StringVar(&cmder.db, "db", "", "Path to SQLite feedback database (default: in-memory)")
	cmd.Flags().StringVar(&cmder.upstream, "upstream", "", "Forward questions to another recipe API")
	cmd.Flags().BoolVar(&cmder.vector, "vector", false, "Rank recipes with sqlite-vec embeddings instead of keywords")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := configpath.Load(cmd)
	if err != nil {
		return err
	}
	c.apply(cmd, cfg)

	log := logger.NewLogger(cfg.Debug, nil)
	defer log.Sync()

	answerer, closeAnswerer, err := newAnswerer(ctx, cfg.Server, log)
	if err != nil {
		return err
	}
	defer closeAnswerer()

	srv, err := server.New(server.Config{
		ListenAddr: cfg.Server.Listen,
		DBPath:     cfg.Server.DB,
	}, answerer, log)
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}
	defer srv.Close()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown did not complete", zap.Error(err))
		}
	}()

	return srv.Run()
}

func (c *serveCommander) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Server.Listen = c.listen
	}
	if flags.Changed("recipes") {
		cfg.Server.Recipes = c.recipes
	}
	if flags.Changed("db") {
		cfg.Server.DB = c.db
	}
	if flags.Changed("upstream") {
		cfg.Server.Upstream = c.upstream
	}
	if flags.Changed("vector") {
		cfg.Server.Vector = c.vector
	}
}

// newAnswerer builds the answering side of the server: an upstream relay, or
// a recipe assistant over the configured book that follows edits to it.
func newAnswerer(ctx context.Context, cfg config.ServerConfig, log *zap.Logger) (server.Answerer, func() error, error) {
	if cfg.Upstream != "" {
		log.Info("forwarding questions upstream", zap.String("upstream", cfg.Upstream))
		return server.NewUpstream(cfg.Upstream, log), func() error { return nil }, nil
	}

	build := recipes.KeywordBuilder
	if cfg.Vector {
		build = recipes.VectorBuilder
	}

	book := recipes.SampleBook()
	if cfg.Recipes != "" {
		var err error
		book, err = recipes.LoadBook(cfg.Recipes)
		if err != nil {
			return nil, nil, err
		}
	}

	idx, err := build(book.Recipes)
	if err != nil {
		return nil, nil, fmt.Errorf("could not index recipes: %w", err)
	}
	assistant := recipes.NewAssistant(idx, log)

	stopWatch := func() {}
	if cfg.Recipes != "" {
		stopWatch, err = recipes.Watch(ctx, cfg.Recipes, build, assistant, log)
		if err != nil {
			assistant.Close()
			return nil, nil, err
		}
	}

	log.Info("serving recipe book",
		zap.String("path", cfg.Recipes),
		zap.Int("recipe_count", idx.Len()),
		zap.Bool("vector", cfg.Vector),
	)

	// The watcher must be gone before the index it swaps is closed.
	closeFn := func() error {
		stopWatch()
		return assistant.Close()
	}

	return assistant, closeFn, nil
}
