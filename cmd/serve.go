package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/millelog/new-world-profit-calculator/internal/market"
	"github.com/millelog/new-world-profit-calculator/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only HTTP API",
	Long:  "Serves rankings, cost resolutions, flip scans, and market health over HTTP.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", servePort),
			Handler:           newRouter(st),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("http server listening", zap.Int("port", servePort))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		zap.L().Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	},
}

// newRouter wires the API routes over the store.
func newRouter(st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/rankings", func(w http.ResponseWriter, req *http.Request) {
		serverID, playerID := queryIDs(req)
		analyzer, err := newAnalyzer(st, cfg.Evaluate.Strategy, cfg.Evaluate.TopN)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		recs, err := analyzer.EvaluateAll(req.Context(), serverID, playerID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	})

	r.Get("/api/items/{id}/cost", func(w http.ResponseWriter, req *http.Request) {
		itemID := chi.URLParam(req, "id")
		serverID, playerID := queryIDs(req)

		item, err := st.Item(req.Context(), itemID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if item == nil {
			writeError(w, http.StatusNotFound, fmt.Errorf("unknown item %q", itemID))
			return
		}

		cost, tree, err := newResolver(st).ResolveItemCost(req.Context(), itemID, serverID, playerID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		resp := map[string]any{
			"item_id":    itemID,
			"resolvable": !math.IsInf(cost, 1),
			"tree":       tree,
		}
		if !math.IsInf(cost, 1) {
			resp["cost"] = cost
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/api/items/{id}/health", func(w http.ResponseWriter, req *http.Request) {
		itemID := chi.URLParam(req, "id")
		serverID, _ := queryIDs(req)

		item, err := st.Item(req.Context(), itemID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if item == nil {
			writeError(w, http.StatusNotFound, fmt.Errorf("unknown item %q", itemID))
			return
		}

		samples, err := st.PriceHistory(req.Context(), itemID, serverID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, market.Analyze(samples))
	})

	r.Get("/api/buys", func(w http.ResponseWriter, req *http.Request) {
		serverID, _ := queryIDs(req)
		flips, err := st.ProfitableFlips(req.Context(), serverID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, flips)
	})

	return r
}

// queryIDs reads server/player overrides from the query string, falling
// back to the configured defaults.
func queryIDs(req *http.Request) (serverID, playerID int64) {
	serverID = cfg.Evaluate.ServerID
	playerID = cfg.Evaluate.PlayerID
	if v := req.URL.Query().Get("server"); v != "" {
		fmt.Sscanf(v, "%d", &serverID) //nolint:errcheck
	}
	if v := req.URL.Query().Get("player"); v != "" {
		fmt.Sscanf(v, "%d", &playerID) //nolint:errcheck
	}
	return serverID, playerID
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (defaults to config)")

	serveCmd.PreRun = func(*cobra.Command, []string) {
		if servePort == 0 {
			servePort = cfg.Server.Port
		}
	}

	rootCmd.AddCommand(serveCmd)
}
