package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/danielgtaylor/huma/v2/humacli"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-viewer/internal/logging"
	"github.com/joeblew999/plat-viewer/internal/server"
	"github.com/joeblew999/plat-viewer/internal/urlstate"
)

// Options defines all CLI flags and env vars for the viewer server.
// Flags: --host, --port, --config-dir, --app, --log-level, --log-format
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_CONFIG_DIR, SERVICE_APP, ...
type Options struct {
	Host      string `doc:"Host to bind to" default:"0.0.0.0"`
	Port      int    `doc:"Port to listen on" short:"p" default:"8086"`
	ConfigDir string `doc:"Directory with app/*.yaml, layers.yaml and geojson/" default:"config"`
	App       string `doc:"Application config to merge over app/default.yaml" default:"default"`
	LogLevel  string `doc:"Log level, overrides the application config"`
	LogFormat string `doc:"Log format (text or json), overrides the application config"`
}

func newServer(opts *Options) (*server.Server, error) {
	// Flags go first so config loading is logged at the requested level.
	log, err := logging.Setup(opts.LogLevel, opts.LogFormat)
	if err != nil {
		return nil, err
	}
	srv, err := server.Load(server.Config{
		Host:      opts.Host,
		Port:      fmt.Sprintf("%d", opts.Port),
		ConfigDir: opts.ConfigDir,
		App:       opts.App,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}

	lc := srv.App().Logging
	level, format := opts.LogLevel, opts.LogFormat
	if level == "" {
		level = lc.Level
	}
	if format == "" {
		format = lc.Format
	}
	if _, err := logging.Setup(level, format); err != nil {
		return nil, err
	}
	return srv, nil
}

func mustServer(opts *Options) *server.Server {
	srv, err := newServer(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return srv
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var srv *server.Server

		hooks.OnStart(func() {
			srv = mustServer(opts)
			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			logrus.WithFields(logrus.Fields{
				"server": baseURL,
				"config": opts.ConfigDir,
				"app":    opts.App,
			}).Info("plat-viewer API server starting")
			fmt.Println()
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Println()

			if err := http.ListenAndServe(addr, srv); err != nil {
				logrus.WithError(err).Fatal("server error")
			}
		})
		hooks.OnStop(func() {
			if srv != nil {
				srv.Close()
			}
		})
	})

	cli.Root().Use = "viewer"
	cli.Root().Short = "Map viewer state service"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := mustServer(opts)
			useYAML, _ := cmd.Flags().GetBool("yaml")
			printDoc(srv.OpenAPI(), useYAML)
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// gen-client subcommand: generate Go client SDK via humaclient
	genClientCmd := &cobra.Command{
		Use:   "gen-client",
		Short: "Generate Go client SDK from the API",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := mustServer(opts)
			defer srv.Close()
			outDir, _ := cmd.Flags().GetString("output")
			if err := srv.GenerateClient(outDir); err != nil {
				fmt.Fprintf(os.Stderr, "Error generating client: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Client SDK generated in %s/\n", outDir)
		}),
	}
	genClientCmd.Flags().StringP("output", "o", "pkg/viewerclient", "Output directory for generated client")
	cli.Root().AddCommand(genClientCmd)

	cli.Root().AddCommand(urlCommand())

	cli.Run()
}

// urlCommand groups the offline URL state tools.
func urlCommand() *cobra.Command {
	urlCmd := &cobra.Command{
		Use:   "url",
		Short: "Decode and re-encode viewer URL state against the layer configuration",
	}

	decodeCmd := &cobra.Command{
		Use:   "decode <query>",
		Short: "Apply a query string to a fresh session and print the resulting state",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			values := mustQuery(args[0])
			srv := mustServer(opts)
			defer srv.Close()

			useYAML, _ := cmd.Flags().GetBool("yaml")
			printDoc(srv.Sessions().Create(values).Info(), useYAML)
		}),
	}
	decodeCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")

	encodeCmd := &cobra.Command{
		Use:   "encode <query>",
		Short: "Apply a query string and print it re-encoded in another sync mode",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			values := mustQuery(args[0])
			modeName, _ := cmd.Flags().GetString("mode")
			mode, err := urlstate.ParseMode(modeName)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			srv := mustServer(opts)
			defer srv.Close()

			fmt.Println(urlstate.QueryString(srv.Sessions().Create(values).Encode(mode)))
		}),
	}
	encodeCmd.Flags().StringP("mode", "m", string(urlstate.ModeFull), "Sync mode: xyz, map or full")

	urlCmd.AddCommand(decodeCmd, encodeCmd)
	return urlCmd
}

func mustQuery(raw string) url.Values {
	if i := strings.Index(raw, "?"); i >= 0 {
		raw = raw[i+1:]
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing query: %v\n", err)
		os.Exit(1)
	}
	return values
}

func printDoc(v any, useYAML bool) {
	var output []byte
	var err error
	if useYAML {
		output, err = yaml.Marshal(v)
	} else {
		output, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(output))
}
