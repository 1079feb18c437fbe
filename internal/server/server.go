package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/danielgtaylor/humaclient"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-viewer/internal/api"
	"github.com/joeblew999/plat-viewer/internal/api/live"
	"github.com/joeblew999/plat-viewer/internal/config"
	"github.com/joeblew999/plat-viewer/internal/service"
	"github.com/joeblew999/plat-viewer/internal/urlstate"
)

// Name is the service name reported by the API.
const Name = "plat-viewer"

// Config holds the server configuration.
type Config struct {
	Host      string
	Port      string
	ConfigDir string // Directory holding app/*.yaml, layers.yaml and geojson/
	App       string // Application config merged over app/default.yaml
	Logger    logrus.FieldLogger
	Bus       *service.EventBus
}

// Server is the viewer HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	services *api.Services
	log      logrus.FieldLogger
}

// Load reads the application and layer configuration from cfg.ConfigDir
// and creates a server for it.
func Load(cfg Config) (*Server, error) {
	app, err := config.LoadApp(cfg.ConfigDir, cfg.App)
	if err != nil {
		return nil, fmt.Errorf("load app config: %w", err)
	}
	raw, err := config.LoadLayers(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load layers: %w", err)
	}
	return New(cfg, app, config.Prepare(app, raw))
}

// New creates a server for an already prepared configuration.
func New(cfg Config, app *config.AppConfig, prepared config.Prepared) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	mode, err := urlstate.ParseMode(app.URLSync.Mode)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	// humago keeps the API on the stdlib mux next to the static handlers
	humaConfig := huma.DefaultConfig("plat-viewer API", api.Version)
	humaConfig.Info.Description = "Map viewer sessions: layer visibility, opacity, draw order and shareable URL state."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// No $schema links in response bodies
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	opts := []service.Option{
		service.WithLogger(cfg.Logger),
		service.WithBus(cfg.Bus),
		service.WithMode(mode),
	}
	if center, ok := app.Map.CenterPoint(); ok {
		opts = append(opts, service.WithDefaultView(urlstate.MapState{Zoom: app.Map.Zoom, Center: center}))
	}

	s := &Server{
		config:  cfg,
		mux:     mux,
		humaAPI: humaAPI,
		services: &api.Services{
			Sessions: service.NewSessionService(prepared, opts...),
			App:      app,
			Prepared: prepared,
		},
		log: cfg.Logger,
	}
	s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// ClientName is the interface name of the generated Go client.
const ClientName = "PlatViewerAPIClient"

// GenerateClient writes the Go client SDK for the API into outDir. The
// package is named after the last path element.
func (s *Server) GenerateClient(outDir string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	parent := filepath.Dir(outDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", parent, err)
	}
	// humaclient writes ./<package>/ relative to the working directory.
	if err := os.Chdir(parent); err != nil {
		return err
	}
	defer os.Chdir(wd)

	return humaclient.GenerateClientWithOptions(s.humaAPI, humaclient.Options{
		PackageName: filepath.Base(outDir),
		ClientName:  ClientName,
	})
}

// App returns the application configuration.
func (s *Server) App() *config.AppConfig {
	return s.services.App
}

// Sessions returns the session service.
func (s *Server) Sessions() *service.SessionService {
	return s.services.Sessions
}

// Close closes all sessions.
func (s *Server) Close() error {
	s.services.Sessions.Close()
	return nil
}

func (s *Server) routes() {
	// REST API routes (OpenAPI-documented JSON endpoints)
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(s.services))
	api.NewInfoHandler(Name, api.Version, s.services.App, s.services.Sessions).RegisterRoutes(s.humaAPI)

	// Datastar SSE routes
	live.NewHandler(s.services.Sessions).RegisterRoutes(s.humaAPI)

	if s.config.ConfigDir != "" {
		geojsonDir := filepath.Join(s.config.ConfigDir, "geojson")
		s.mux.Handle(config.StaticGeoJSONPath, http.StripPrefix(config.StaticGeoJSONPath, s.handleStatic(geojsonDir)))
	}

	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Add("Link", `</health>; rel="health"`)
	w.Header().Add("Link", `</openapi.json>; rel="service-desc"`)
	json.NewEncoder(w).Encode(map[string]string{
		"service": Name,
		"status":  "running",
	})
}

// handleStatic serves GeoJSON files referenced by static_geojson layers.
func (s *Server) handleStatic(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if filepath.Ext(r.URL.Path) == ".geojson" {
			w.Header().Set("Content-Type", "application/geo+json")
		}
		files.ServeHTTP(w, r)
	})
}
