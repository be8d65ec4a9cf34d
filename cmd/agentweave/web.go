package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/agentweave/agentweave"
	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/logging"
	"github.com/agentweave/agentweave/metrics"
	"github.com/agentweave/agentweave/model"
	"github.com/agentweave/agentweave/pipeline"
)

type runRequest struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
}

type runResponse struct {
	Response string         `json:"response"`
	State    map[string]any `json:"state"`
}

func newWebCmd() *cobra.Command {
	var cfgFile string
	var pipelineName string

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve a configured pipeline over HTTP with /metrics and /healthz",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgFile)
			if err != nil {
				return err
			}

			logger := logging.NewSlogLogger()

			registry := prometheus.NewRegistry()
			recorder := metrics.NewPrometheusRecorder(registry)

			m, err := buildModel(cfg, func(o *model.RetryOptions) {
				o.Logger = logger
				o.Recorder = recorder
			})
			if err != nil {
				return err
			}

			root, err := buildPipeline(pipelineName, m, cfg.MaxLoopIterations)
			if err != nil {
				return err
			}

			weave := agentweave.New(root, func(o *agentweave.Options) {
				o.MaxModelCalls = cfg.MaxModelCalls
				o.Logger = logger
				o.Recorder = recorder
			})

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				fmt.Fprintln(w, "ok")
			})
			mux.HandleFunc("/run", func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
					return
				}

				var req runRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					http.Error(w, "invalid request body", http.StatusBadRequest)
					return
				}
				if req.Prompt == "" {
					http.Error(w, "prompt must not be empty", http.StatusBadRequest)
					return
				}
				if req.SessionID == "" {
					req.SessionID = core.NewID()
				}

				text, state, err := weave.RunAndWait(r.Context(), req.SessionID, core.NewUserText(req.Prompt))
				if err != nil {
					logger.Error("web.run.failed", "session", req.SessionID, "error", err)
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}

				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(runResponse{Response: text, State: state})
			})

			server := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("web.listen", "addr", cfg.Server.Addr, "pipeline", pipelineName, "provider", cfg.Provider)

			return server.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "path to config.yaml")
	cmd.Flags().StringVar(&pipelineName, "pipeline", "blog", "pipeline to serve: blog, research, story or coordinator")

	return cmd
}

func buildPipeline(name string, m model.Model, maxLoopIterations int) (core.Agent, error) {
	switch name {
	case "blog":
		return pipeline.NewBlogPipeline(m), nil
	case "research":
		return pipeline.NewResearchSystem(m), nil
	case "story":
		return pipeline.NewStoryRefinementLoop(m, maxLoopIterations), nil
	case "coordinator":
		return pipeline.NewResearchCoordinator(m), nil
	default:
		return nil, fmt.Errorf("unknown pipeline %q", name)
	}
}
