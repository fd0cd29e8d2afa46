package cfo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteLoadDataset(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.NumSuppliers = 4
	cfg.NumFactories = 2
	cfg.NumRegions = 3
	ds, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	dir := t.TempDir()
	if err := WriteDataset(dir, ds); err != nil {
		t.Fatalf("WriteDataset failed: %v", err)
	}
	for _, name := range []string{
		SuppliersFile, FactoriesFile, RegionsFile, TransportModesFile,
		SupplyRoutesFile, DeliveryRoutesFile, DemandFile,
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}

	loaded, err := LoadDataset(dir)
	if err != nil {
		t.Fatalf("LoadDataset failed: %v", err)
	}
	if len(loaded.Suppliers) != len(ds.Suppliers) ||
		len(loaded.SupplyRoutes) != len(ds.SupplyRoutes) ||
		len(loaded.Demands) != len(ds.Demands) {
		t.Error("loaded dataset has different row counts than the written one")
	}
	if loaded.Suppliers[0] != ds.Suppliers[0] {
		t.Errorf("supplier row changed through write/load: %+v vs %+v", loaded.Suppliers[0], ds.Suppliers[0])
	}
}

func TestWriteDatasetByteIdentical(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 99

	dirA := t.TempDir()
	dirB := t.TempDir()
	for _, dir := range []string{dirA, dirB} {
		ds, err := Generate(cfg)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if err := WriteDataset(dir, ds); err != nil {
			t.Fatalf("WriteDataset failed: %v", err)
		}
	}

	entries, err := os.ReadDir(dirA)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		a, err := os.ReadFile(filepath.Join(dirA, e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		b, err := os.ReadFile(filepath.Join(dirB, e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		if string(a) != string(b) {
			t.Errorf("%s differs between two runs with the same seed", e.Name())
		}
	}
}

func TestLoadDatasetRejectsDanglingIDs(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.NumSuppliers = 2
	cfg.NumFactories = 2
	cfg.NumRegions = 2
	ds, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	dir := t.TempDir()
	if err := WriteDataset(dir, ds); err != nil {
		t.Fatalf("WriteDataset failed: %v", err)
	}

	// Append a route referencing a supplier that does not exist.
	path := filepath.Join(dir, SupplyRoutesFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("S999,F01,123.4,truck\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	_, err = LoadDataset(dir)
	if err == nil {
		t.Fatal("expected load to fail on dangling supplier id")
	}
	if !strings.Contains(err.Error(), "S999") {
		t.Errorf("error should name the dangling id, got: %v", err)
	}
}

func TestValidateDataset(t *testing.T) {
	ds := &Dataset{
		Suppliers:      []Supplier{{ID: "S001", CapacityTons: 100}},
		Factories:      []Factory{{ID: "F01", CapacityTons: 100}},
		Regions:        []Region{{ID: "R001", DemandTons: 50}},
		TransportModes: []TransportMode{{ID: "truck", EmissionFactor: 0.1, CostFactor: 0.09}},
		SupplyRoutes:   []SupplyRoute{{SupplierID: "S001", FactoryID: "F01", DistanceKm: 100, ModeID: "truck"}},
		DeliveryRoutes: []DeliveryRoute{{FactoryID: "F01", RegionID: "R001", DistanceKm: 100, ModeID: "truck"}},
		Demands:        []Demand{{RegionID: "R001", Quantity: 50, Period: "2025-01"}},
	}
	if err := ValidateDataset(ds); err != nil {
		t.Fatalf("valid dataset rejected: %v", err)
	}

	ds.DeliveryRoutes[0].ModeID = "zeppelin"
	if err := ValidateDataset(ds); err == nil {
		t.Error("expected error for unknown mode id")
	}
}

func TestFlowResultsRoundTrip(t *testing.T) {
	flows := []FlowRow{
		{RouteID: "S001->F01", Stage: StageSupply, FromID: "S001", ToID: "F01", FlowTons: 80, EmissionsKg: 800, Cost: 720},
	}
	path := filepath.Join(t.TempDir(), "nested", "results.csv")
	if err := WriteFlowResults(path, flows); err != nil {
		t.Fatalf("WriteFlowResults failed: %v", err)
	}
	loaded, err := LoadFlowResults(path)
	if err != nil {
		t.Fatalf("LoadFlowResults failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0] != flows[0] {
		t.Errorf("round trip changed rows: %+v", loaded)
	}
}
