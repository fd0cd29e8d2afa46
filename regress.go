package cfo

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Model artifact file names inside the model directory.
const (
	ModelFile   = "emissions_model.json"
	MetricsFile = "metrics.json"
)

// TrainingSample is one route observation: emissions at a reference load
// of one ton.
type TrainingSample struct {
	RouteID     string
	DistanceKm  float64
	ModeID      string
	Stage       string
	EmissionsKg float64
}

// BuildTrainingSet derives one sample per route from a dataset, with the
// target emissions computed by the estimator at one ton of load.
func BuildTrainingSet(ds *Dataset) ([]TrainingSample, error) {
	var samples []TrainingSample
	for _, r := range ds.SupplyRoutes {
		mode, ok := ds.ModeByID(r.ModeID)
		if !ok {
			return nil, fmt.Errorf("supply route %s->%s: unknown mode id %q", r.SupplierID, r.FactoryID, r.ModeID)
		}
		samples = append(samples, TrainingSample{
			RouteID:     fmt.Sprintf("%s->%s", r.SupplierID, r.FactoryID),
			DistanceKm:  r.DistanceKm,
			ModeID:      r.ModeID,
			Stage:       StageSupply,
			EmissionsKg: EstimateEmissions(r.DistanceKm, 1.0, mode.EmissionFactor),
		})
	}
	for _, r := range ds.DeliveryRoutes {
		mode, ok := ds.ModeByID(r.ModeID)
		if !ok {
			return nil, fmt.Errorf("delivery route %s->%s: unknown mode id %q", r.FactoryID, r.RegionID, r.ModeID)
		}
		samples = append(samples, TrainingSample{
			RouteID:     fmt.Sprintf("%s->%s", r.FactoryID, r.RegionID),
			DistanceKm:  r.DistanceKm,
			ModeID:      r.ModeID,
			Stage:       StageDelivery,
			EmissionsKg: EstimateEmissions(r.DistanceKm, 1.0, mode.EmissionFactor),
		})
	}
	return samples, nil
}

// EmissionModel is a least-squares fit of per-ton route emissions. The
// design matrix holds one distance column per transport mode (distance is
// zero for samples of other modes), a delivery-stage indicator and an
// intercept, so the fit recovers each mode's factor exactly when the data
// comes from the estimator.
type EmissionModel struct {
	Modes      []string  `json:"modes"`
	ModeCoefs  []float64 `json:"mode_coefs"`
	StageCoef  float64   `json:"stage_coef"`
	Intercept  float64   `json:"intercept"`
	NumSamples int       `json:"n_samples"`
}

// ModelMetrics is the training fit quality written next to the model.
type ModelMetrics struct {
	MAE float64 `json:"mae"`
	R2  float64 `json:"r2"`
	N   int     `json:"n"`
}

// FitEmissionModel trains on the samples and reports training metrics.
func FitEmissionModel(samples []TrainingSample) (*EmissionModel, *ModelMetrics, error) {
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("no training samples")
	}
	modeSet := map[string]bool{}
	for _, s := range samples {
		modeSet[s.ModeID] = true
	}
	modes := make([]string, 0, len(modeSet))
	for m := range modeSet {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	modeIdx := make(map[string]int, len(modes))
	for i, m := range modes {
		modeIdx[m] = i
	}

	cols := len(modes) + 2 // per-mode distance, stage indicator, intercept
	if len(samples) < cols {
		return nil, nil, fmt.Errorf("need at least %d samples for %d features, got %d", cols, cols, len(samples))
	}

	x := mat.NewDense(len(samples), cols, nil)
	y := mat.NewDense(len(samples), 1, nil)
	for i, s := range samples {
		x.Set(i, modeIdx[s.ModeID], s.DistanceKm)
		if s.Stage == StageDelivery {
			x.Set(i, len(modes), 1)
		}
		x.Set(i, len(modes)+1, 1)
		y.Set(i, 0, s.EmissionsKg)
	}

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, y); err != nil {
		return nil, nil, fmt.Errorf("least squares solve: %w", err)
	}

	model := &EmissionModel{
		Modes:      modes,
		ModeCoefs:  make([]float64, len(modes)),
		StageCoef:  beta.At(len(modes), 0),
		Intercept:  beta.At(len(modes)+1, 0),
		NumSamples: len(samples),
	}
	for i := range modes {
		model.ModeCoefs[i] = beta.At(i, 0)
	}

	truth := make([]float64, len(samples))
	preds := make([]float64, len(samples))
	mae := 0.0
	for i, s := range samples {
		p, err := model.Predict(s.DistanceKm, s.ModeID, s.Stage)
		if err != nil {
			return nil, nil, err
		}
		truth[i] = s.EmissionsKg
		preds[i] = p
		mae += math.Abs(p - s.EmissionsKg)
	}
	metrics := &ModelMetrics{
		MAE: mae / float64(len(samples)),
		R2:  stat.RSquaredFrom(preds, truth, nil),
		N:   len(samples),
	}
	return model, metrics, nil
}

// Predict estimates per-ton emissions in kg for one route.
func (m *EmissionModel) Predict(distanceKm float64, modeID, stage string) (float64, error) {
	idx := -1
	for i, mode := range m.Modes {
		if mode == modeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("mode %q not seen during training", modeID)
	}
	p := m.ModeCoefs[idx]*distanceKm + m.Intercept
	if stage == StageDelivery {
		p += m.StageCoef
	}
	return p, nil
}

// SaveEmissionModel writes the model and its metrics into dir.
func SaveEmissionModel(dir string, model *EmissionModel, metrics *ModelMetrics) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := WriteJSONFile(filepath.Join(dir, ModelFile), model); err != nil {
		return err
	}
	return WriteJSONFile(filepath.Join(dir, MetricsFile), metrics)
}

// LoadEmissionModel reads a model written by SaveEmissionModel.
func LoadEmissionModel(dir string) (*EmissionModel, error) {
	data, err := os.ReadFile(filepath.Join(dir, ModelFile))
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}
	model := &EmissionModel{}
	if err := json.Unmarshal(data, model); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}
	return model, nil
}
