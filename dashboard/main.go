package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	cfo "github.com/ajena12/carbon-footprint-optimizer"
	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type server struct {
	log         *zap.Logger
	ds          *cfo.Dataset
	resultsPath string
	modelDir    string
}

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	dataDir := flag.String("data_dir", "data", "Directory holding the dataset CSV files")
	resultsPath := flag.String("results_path", "outputs/optimization_results.csv", "Optimizer flow table")
	modelDir := flag.String("model_dir", "outputs/model", "Trained model directory")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ds, err := cfo.LoadDataset(*dataDir)
	if err != nil {
		logger.Fatal("loading dataset", zap.String("data_dir", *dataDir), zap.Error(err))
	}

	s := &server{log: logger, ds: ds, resultsPath: *resultsPath, modelDir: *modelDir}

	router := httprouter.New()
	router.HandlerFunc(http.MethodGet, "/", s.index)
	router.HandlerFunc(http.MethodGet, "/api/suppliers", s.suppliers)
	router.HandlerFunc(http.MethodGet, "/api/factories", s.factories)
	router.HandlerFunc(http.MethodGet, "/api/regions", s.regions)
	router.HandlerFunc(http.MethodGet, "/api/transport_modes", s.transportModes)
	router.HandlerFunc(http.MethodGet, "/api/routes", s.routes)
	router.HandlerFunc(http.MethodGet, "/api/demand", s.demand)
	router.HandlerFunc(http.MethodGet, "/api/results", s.results)
	router.HandlerFunc(http.MethodGet, "/api/summary", s.summary)
	router.HandlerFunc(http.MethodGet, "/api/predict", s.predict)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	})
	chain := alice.New(s.requestLogger, corsHandler.Handler).Then(router)

	logger.Info("dashboard listening", zap.String("addr", *addr), zap.String("data_dir", *dataDir))
	if err := http.ListenAndServe(*addr, chain); err != nil {
		logger.Fatal("http server", zap.Error(err))
	}
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encoding response", zap.Error(err))
	}
}

func (s *server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *server) suppliers(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ds.Suppliers)
}

func (s *server) factories(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ds.Factories)
}

func (s *server) regions(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ds.Regions)
}

func (s *server) transportModes(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ds.TransportModes)
}

func (s *server) routes(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"supplier_to_factory": s.ds.SupplyRoutes,
		"factory_to_region":   s.ds.DeliveryRoutes,
	})
}

func (s *server) demand(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ds.Demands)
}

// results and summary re-read the files on every request so a fresh
// optimizer run shows up without restarting the dashboard.
func (s *server) results(w http.ResponseWriter, _ *http.Request) {
	flows, err := cfo.LoadFlowResults(s.resultsPath)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "no optimization results yet: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, flows)
}

func (s *server) summary(w http.ResponseWriter, _ *http.Request) {
	path := strings.TrimSuffix(s.resultsPath, ".csv") + "_summary.json"
	data, err := os.ReadFile(path)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "no run summary yet: "+err.Error())
		return
	}
	var summary cfo.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		s.writeError(w, http.StatusInternalServerError, "decoding run summary: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *server) predict(w http.ResponseWriter, r *http.Request) {
	model, err := cfo.LoadEmissionModel(s.modelDir)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "no trained model: "+err.Error())
		return
	}
	q := r.URL.Query()
	distance, err := strconv.ParseFloat(q.Get("distance_km"), 64)
	if err != nil || distance < 0 {
		s.writeError(w, http.StatusBadRequest, "distance_km must be a non-negative number")
		return
	}
	loadTons := 1.0
	if v := q.Get("load_tons"); v != "" {
		loadTons, err = strconv.ParseFloat(v, 64)
		if err != nil || loadTons < 0 {
			s.writeError(w, http.StatusBadRequest, "load_tons must be a non-negative number")
			return
		}
	}
	stage := q.Get("stage")
	if stage == "" {
		stage = cfo.StageSupply
	}
	perTon, err := model.Predict(distance, q.Get("mode_id"), stage)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]float64{
		"predicted_kg_per_ton": perTon,
		"predicted_kg":         perTon * loadTons,
	})
}

const indexHTML = `<!doctype html>
<html>
<head><title>Carbon Footprint Optimizer</title></head>
<body>
<h1>Carbon Footprint Optimizer</h1>
<ul>
<li><a href="/api/suppliers">suppliers</a></li>
<li><a href="/api/factories">factories</a></li>
<li><a href="/api/regions">regions</a></li>
<li><a href="/api/transport_modes">transport modes</a></li>
<li><a href="/api/routes">routes</a></li>
<li><a href="/api/demand">demand</a></li>
<li><a href="/api/results">optimization results</a></li>
<li><a href="/api/summary">run summary</a></li>
<li><a href="/api/predict?distance_km=500&mode_id=truck">predict</a></li>
</ul>
</body>
</html>
`

func (s *server) index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}
