package cli

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/pagefold/marginalia/pkg/outline"
	"github.com/pagefold/marginalia/pkg/pipeline"
	"github.com/pagefold/marginalia/pkg/render"
	"github.com/pagefold/marginalia/pkg/state"
)

// serveCommand creates the "serve" command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := pipeline.Options{}
	c.setCLIDefaults(&opts)

	var (
		addr    string
		noCache bool
		noState bool
	)

	cmd := &cobra.Command{
		Use:   "serve <document>",
		Short: "Serve a live mind-map preview over HTTP",
		Long: `Serve starts a local HTTP server rendering the document's mind map.
Every request re-reads the document and your stored annotations, so
refreshing the browser picks up edits; the pipeline cache keeps
unchanged stages cheap.

Endpoints:
  GET /             HTML page with the rendered mind map
  GET /svg          raw SVG
  GET /layout.json  node and edge geometry
  GET /tree.json    the merged outline tree
  GET /health       liveness check`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			opts.Path = args[0]
			opts.Logger = logger
			if err := pipeline.ValidateStyle(opts.Style); err != nil {
				return err
			}

			var store state.Store
			if !noState {
				s, err := c.newStateStore(ctx)
				if err != nil {
					printWarning("State store unavailable, serving without annotations: %v", err)
				} else {
					defer s.Close()
					store = s
				}
			}

			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := newPreviewServer(runner, store, opts, logger)

			httpServer := &http.Server{
				Addr:         addr,
				Handler:      srv,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 60 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				httpServer.Shutdown(shutdownCtx)
			}()

			printSuccess("Serving %s", opts.Path)
			fmt.Println("  " + StyleLink.Render("http://"+addr))
			printDetail("Press Ctrl+C to stop")

			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", c.serveAddr(), "listen address")
	cmd.Flags().StringVar(&opts.Style, "style", opts.Style, "color style: light or dark")
	cmd.Flags().StringVar(&opts.Format, "source-format", "", "source format (pdf, markdown, html, docx); detected from the extension if empty")
	cmd.Flags().BoolVar(&noState, "no-state", false, "ignore stored annotations and moves")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the pipeline cache")

	return cmd
}

// serveAddr returns the configured preview server address.
func (c *CLI) serveAddr() string {
	if c.Config != nil && c.Config.Serve.Addr != "" {
		return c.Config.Serve.Addr
	}
	return DefaultServeAddr
}

// =============================================================================
// Preview Server
// =============================================================================

// previewServer is the HTTP preview server for one document.
type previewServer struct {
	router chi.Router
	runner *pipeline.Runner
	store  state.Store // nil when state is disabled
	opts   pipeline.Options
	log    *log.Logger
}

// newPreviewServer creates and configures the preview server.
func newPreviewServer(runner *pipeline.Runner, store state.Store, opts pipeline.Options, logger *log.Logger) *previewServer {
	s := &previewServer{
		runner: runner,
		store:  store,
		opts:   opts,
		log:    logger,
	}
	s.setupRoutes()
	return s
}

func (s *previewServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *previewServer) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))

	r.Get("/", s.handleIndex)
	r.Get("/svg", s.handleSVG)
	r.Get("/layout.json", s.handleLayout)
	r.Get("/tree.json", s.handleTree)
	r.Get("/health", s.handleHealth)

	s.router = r
}

// options returns the pipeline options with the latest stored state merged
// in, so browser refreshes see annotation edits.
func (s *previewServer) options(ctx context.Context) (pipeline.Options, error) {
	opts := s.opts
	if s.store == nil {
		return opts, nil
	}
	st, err := loadDocState(ctx, s.store, opts.Path, "")
	if err != nil {
		return opts, err
	}
	applyDocState(&opts, st)
	return opts, nil
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}} - marginalia</title>
<style>
body { margin: 0; background: {{.Background}}; }
main { display: flex; justify-content: center; padding: 24px; }
svg { max-width: 100%; height: auto; }
</style>
</head>
<body>
<main>
{{.SVG}}
</main>
</body>
</html>
`))

func (s *previewServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	opts.Formats = []string{pipeline.FormatSVG}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.fail(w, err)
		return
	}

	style, err := render.StyleByName(opts.Style)
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = indexTemplate.Execute(w, struct {
		Title      string
		Background string
		SVG        template.HTML
	}{
		Title:      result.Document.Title,
		Background: style.Background,
		SVG:        template.HTML(result.Artifacts[pipeline.FormatSVG]),
	})
	if err != nil {
		s.log.Error("render index", "err", err)
	}
}

func (s *previewServer) handleSVG(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	opts.Formats = []string{pipeline.FormatSVG}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(result.Artifacts[pipeline.FormatSVG])
}

func (s *previewServer) handleLayout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	opts, err := s.options(ctx)
	if err != nil {
		s.fail(w, err)
		return
	}

	doc, err := s.runner.Load(ctx, opts)
	if err != nil {
		s.fail(w, err)
		return
	}
	tree, err := s.runner.BuildTree(ctx, doc, opts)
	if err != nil {
		s.fail(w, err)
		return
	}
	res, err := s.runner.ComputeLayout(ctx, tree, opts)
	if err != nil {
		s.fail(w, err)
		return
	}

	data, err := render.RenderJSON(res,
		render.WithJSONTitle(tree.Root().Title),
		render.WithJSONStyle(opts.Style),
	)
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *previewServer) handleTree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	opts, err := s.options(ctx)
	if err != nil {
		s.fail(w, err)
		return
	}

	doc, err := s.runner.Load(ctx, opts)
	if err != nil {
		s.fail(w, err)
		return
	}
	tree, err := s.runner.BuildTree(ctx, doc, opts)
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := outline.WriteJSON(tree, w); err != nil {
		s.log.Error("write tree", "err", err)
	}
}

func (s *previewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// fail reports a pipeline error as a 500 with a plain text body.
func (s *previewServer) fail(w http.ResponseWriter, err error) {
	s.log.Error("preview failed", "err", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// requestLogger logs incoming requests.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).Round(time.Millisecond),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
