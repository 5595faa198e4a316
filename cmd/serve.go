package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/hotspot-cli/internal/geojoin"
	"github.com/sells-group/hotspot-cli/internal/hotspot"
	"github.com/sells-group/hotspot-cli/internal/model"
	"github.com/sells-group/hotspot-cli/internal/store"
	"github.com/sells-group/hotspot-cli/internal/table"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve hotspot scoring and polygon joins over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st := openRunStore(ctx)
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := newServer(st)
		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           srv.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

type server struct {
	st      store.Store
	limiter *rate.Limiter
}

func newServer(st store.Store) *server {
	return &server{
		st:      st,
		limiter: rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst),
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(s.rateLimit)

	r.Get("/health", s.handleHealth)
	r.Post("/v1/hotspot", s.handleHotspot)
	r.Post("/v1/join", s.handleJoin)
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type hotspotRequest struct {
	Points     []map[string]any  `json:"points"`
	KNeighbors int               `json:"k_neighbors"`
	Workers    int               `json:"workers"`
	Columns    map[string]string `json:"columns"`
}

func (s *server) handleHotspot(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var req hotspotRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := hotspot.Options{
		IDCol:      columnOr(req.Columns, "id", cfg.Columns.ID),
		LatCol:     columnOr(req.Columns, "latitude", cfg.Columns.Latitude),
		LonCol:     columnOr(req.Columns, "longitude", cfg.Columns.Longitude),
		ValueCol:   columnOr(req.Columns, "value", cfg.Columns.Value),
		KNeighbors: cfg.Hotspot.KNeighbors,
		Workers:    cfg.Hotspot.Workers,
	}
	if req.KNeighbors > 0 {
		opts.KNeighbors = req.KNeighbors
	}
	if req.Workers > 0 {
		opts.Workers = req.Workers
	}

	tbl := tableFromRows(req.Points)
	run := recordRunStart(r.Context(), s.st, "hotspot", model.RunParams{
		Columns: map[string]string{
			"id":        opts.IDCol,
			"latitude":  opts.LatCol,
			"longitude": opts.LonCol,
			"value":     opts.ValueCol,
		},
		KNeighbors: opts.KNeighbors,
	})

	if err := hotspot.Compute(r.Context(), tbl, opts); err != nil {
		recordRunOutcome(r.Context(), s.st, run, 0, err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	recordRunOutcome(r.Context(), s.st, run, tbl.Len(), nil)

	writeJSON(w, http.StatusOK, map[string]any{"points": rowsFromTable(tbl)})
}

type joinRequest struct {
	Points       []map[string]any  `json:"points"`
	Polygons     json.RawMessage   `json:"polygons"`
	PolygonIDKey string            `json:"polygon_id_key"`
	Columns      map[string]string `json:"columns"`
}

func (s *server) handleJoin(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var req joinRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PolygonIDKey == "" {
		writeError(w, http.StatusBadRequest, "polygon_id_key is required")
		return
	}

	coll, err := geojoin.ParseGeoJSON(req.Polygons, req.PolygonIDKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := geojoin.Options{
		LatCol: columnOr(req.Columns, "latitude", cfg.Columns.Latitude),
		LonCol: columnOr(req.Columns, "longitude", cfg.Columns.Longitude),
	}

	tbl := tableFromRows(req.Points)
	run := recordRunStart(r.Context(), s.st, "join", model.RunParams{
		Columns: map[string]string{
			"latitude":  opts.LatCol,
			"longitude": opts.LonCol,
		},
		PolygonIDKey: req.PolygonIDKey,
	})

	if err := geojoin.Join(tbl, coll, opts); err != nil {
		recordRunOutcome(r.Context(), s.st, run, 0, err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sum, err := geojoin.Summarize(tbl, req.PolygonIDKey)
	if err != nil {
		recordRunOutcome(r.Context(), s.st, run, 0, err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	recordRunOutcome(r.Context(), s.st, run, tbl.Len(), nil)

	writeJSON(w, http.StatusOK, map[string]any{
		"points":  rowsFromTable(tbl),
		"summary": rowsFromTable(sum),
	})
}

func columnOr(cols map[string]string, key, fallback string) string {
	if v, ok := cols[key]; ok && v != "" {
		return v
	}
	return fallback
}

// tableFromRows builds a string-celled table from decoded JSON rows.
// Columns are the sorted union of the row keys so the result does not
// depend on map iteration order.
func tableFromRows(rows []map[string]any) *table.Table {
	seen := make(map[string]bool)
	var cols []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)

	tbl := table.New(cols)
	for _, row := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = cellString(row[c])
		}
		tbl.AppendRow(cells)
	}
	return tbl
}

// cellString renders a decoded JSON value as a cell. Numbers keep their
// source form because the decoder runs with UseNumber.
func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		return fmt.Sprint(val)
	}
}

func rowsFromTable(t *table.Table) []map[string]string {
	rows := make([]map[string]string, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		rows = append(rows, t.RowMap(i))
	}
	return rows
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
