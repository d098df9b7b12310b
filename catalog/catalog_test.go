package catalog_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/graphplan"
	"github.com/rlch/graphplan/catalog"
)

func sampleIntents() []*catalog.Intent {
	return []*catalog.Intent{
		{
			ID:          "intent_1",
			Category:    "person_search",
			Description: "Buscar pessoa por cpf",
			EntityType:  "Person",
			Property:    "cpf",
			Examples:    []string{"Buscar pessoa com cpf <VALOR>"},
			Template:    "MATCH (n:Person) WHERE n.cpf[0] = $value RETURN n",
			Steps:       catalog.PropertySteps,
			EntityKinds: []catalog.EntityKind{catalog.KindNationalID},
		},
		{
			ID:          "intent_2",
			Category:    "person_vehicle_search",
			Description: "Buscar Person via Vehicle por plate",
			PathNodes:   []string{"Person", "Vehicle"},
			PathRels:    []string{"OWNS"},
			Property:    "plate",
			Examples:    []string{"Buscar pessoa associados a veículo com placa <VALOR>"},
			Template:    "MATCH (start:Person)-[:OWNS]->(end:Vehicle) WHERE end.plate[0] = $value RETURN start as resultado",
			Steps:       catalog.CompositeSteps,
		},
	}
}

func TestCatalog_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "intents_catalog.json")
	want := catalog.New("5.2-metadata", "2026-01-02T03:04:05Z", sampleIntents())

	require.NoError(t, want.Save(path))

	got, err := catalog.Load(path)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got, cmpopts.IgnoreUnexported(catalog.Catalog{})); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	in, ok := got.Lookup("intent_2")
	require.True(t, ok)
	assert.True(t, in.IsComposite())
	assert.Equal(t, 2, got.TotalIntents)
}

func TestCatalog_SaveKeepsNonASCII(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "c.json")
	require.NoError(t, catalog.New("v", "", sampleIntents()).Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "veículo")
	assert.Contains(t, string(data), "<VALOR>")
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	_, err := catalog.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, graphplan.ErrCatalogUnavailable))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	c := catalog.LoadOrEmpty(filepath.Join(t.TempDir(), "nope.json"), nil)
	assert.Equal(t, 0, c.Len())
}

func TestLoad_InvalidJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := catalog.Load(path)
	assert.ErrorIs(t, err, graphplan.ErrCatalogUnavailable)
}

func TestCatalog_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, catalog.New("v", "", sampleIntents()).Validate())

	dup := sampleIntents()
	dup[1].ID = "intent_1"
	assert.ErrorIs(t, catalog.New("v", "", dup).Validate(), catalog.ErrDuplicateIntent)

	twoParams := sampleIntents()
	twoParams[0].Template = "MATCH (n) WHERE n.a = $value AND n.b = $other RETURN n"
	assert.ErrorIs(t, catalog.New("v", "", twoParams).Validate(), catalog.ErrTemplateParams)

	noParams := sampleIntents()
	noParams[0].Template = "MATCH (n) RETURN n"
	assert.ErrorIs(t, catalog.New("v", "", noParams).Validate(), catalog.ErrTemplateParams)
}

func TestCatalog_Template(t *testing.T) {
	t.Parallel()

	c := catalog.New("v", "", sampleIntents())

	tmpl, ok := c.Template("intent_1")
	assert.True(t, ok)
	assert.Contains(t, tmpl, "$value")

	_, ok = c.Template("intent_99")
	assert.False(t, ok)

	var nilCatalog *catalog.Catalog

	_, ok = nilCatalog.Lookup("intent_1")
	assert.False(t, ok)
}

func TestParams(t *testing.T) {
	t.Parallel()

	got := catalog.Params("MATCH (n) WHERE n.a = $value OR n.b = $value AND n.c = $x_1 RETURN n")
	if diff := cmp.Diff([]string{"value", "x_1"}, got); diff != "" {
		t.Errorf("Params() mismatch (-want +got):\n%s", diff)
	}
}

func TestInferKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		entityType string
		property   string
		category   string
		want       []catalog.EntityKind
	}{
		{"cpf property", "Person", "cpf", "person_search", []catalog.EntityKind{catalog.KindNationalID}},
		{"plate", "Vehicle", "plate", "vehicle_search", []catalog.EntityKind{catalog.KindPlate}},
		{"plate entity type", "LicensePlate", "number", "licenseplate_search", []catalog.EntityKind{catalog.KindPlate}},
		{"phone", "Telephone", "number", "telephone_search", []catalog.EntityKind{catalog.KindPhone}},
		{"whatsapp category", "Account", "id", "whatsappaccount_search", []catalog.EntityKind{catalog.KindPhone}},
		{"imei", "MobileDevice", "imei", "mobiledevice_search", []catalog.EntityKind{catalog.KindDevice}},
		{"several", "PersonVehicle", "plate", "x", []catalog.EntityKind{catalog.KindNationalID, catalog.KindPlate}},
		{"none", "Company", "name", "company_search", []catalog.EntityKind{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := catalog.InferKinds(tt.entityType, tt.property, tt.category)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("InferKinds() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIntent_KindsFallsBackToInference(t *testing.T) {
	t.Parallel()

	in := &catalog.Intent{EntityType: "Vehicle", Property: "plate"}
	assert.Equal(t, []catalog.EntityKind{catalog.KindPlate}, in.Kinds())

	in.EntityKinds = []catalog.EntityKind{catalog.KindDevice}
	assert.Equal(t, []catalog.EntityKind{catalog.KindDevice}, in.Kinds())
}
