package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ibis-route-manager/internal/logging"
	"ibis-route-manager/internal/model"
)

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestExport_WritesOneFilePerRoute(t *testing.T) {
	out := t.TempDir()
	routes := []model.Route{
		{ID: "1", Type: model.RouteTypeBus, Name: "Route #101!", IbisLineCmd: 101, IbisDestinationCmd: 12, AlfaSignText: "Hauptbahnhof", AlfaSignBinFile: "1.bin"},
		{ID: "2", Type: model.RouteTypeTram, Name: "Tram 4", IbisLineCmd: 4, IbisDestinationCmd: 230, AlfaSignText: "Südfriedhof", AlfaSignBinFile: "2.bin"},
		{ID: "3", Type: model.RouteTypeBus, Name: "N1", IbisLineCmd: 901, IbisDestinationCmd: 1, AlfaSignText: "", AlfaSignBinFile: "3.bin"},
	}

	result, err := New(Options{WriteIndex: true}, logging.Discard()).Export(routes, out)
	require.NoError(t, err)
	assert.Empty(t, result.Collisions)
	assert.Len(t, result.Files, 4)

	assert.ElementsMatch(t, []string{"route__101_.json", "n1.json"}, listDir(t, filepath.Join(out, "data", "buses")))
	assert.ElementsMatch(t, []string{"tram_4.json"}, listDir(t, filepath.Join(out, "data", "trams")))

	var doc map[string]any
	readJSON(t, filepath.Join(out, "data", "buses", "route__101_.json"), &doc)
	assert.Equal(t, map[string]any{
		"id":                 "1",
		"name":               "Route #101!",
		"ibisLineCmd":        float64(101),
		"ibisDestinationCmd": float64(12),
		"alfaSignText":       "Hauptbahnhof",
		"alfaSignBinFile":    "1.bin",
	}, doc)

	var idx index
	readJSON(t, filepath.Join(out, "data", "index.json"), &idx)
	assert.Equal(t, []indexEntry{{Name: "Route #101!", File: "route__101_"}, {Name: "N1", File: "n1"}}, idx.Buses)
	assert.Equal(t, []indexEntry{{Name: "Tram 4", File: "tram_4"}}, idx.Trams)
}

func TestExport_CollidingNamesLastWriteWins(t *testing.T) {
	out := t.TempDir()
	routes := []model.Route{
		{ID: "first", Type: model.RouteTypeBus, Name: "A/B", IbisLineCmd: 1},
		{ID: "second", Type: model.RouteTypeBus, Name: "A-B", IbisLineCmd: 2},
	}

	result, err := New(Options{}, logging.Discard()).Export(routes, out)
	require.NoError(t, err)

	assert.Equal(t, []string{"a_b.json"}, listDir(t, filepath.Join(out, "data", "buses")))

	var doc routeFile
	readJSON(t, filepath.Join(out, "data", "buses", "a_b.json"), &doc)
	assert.Equal(t, "second", doc.ID)
	assert.Equal(t, "A-B", doc.Name)
	assert.Equal(t, 2, doc.IbisLineCmd)

	require.Len(t, result.Collisions, 1)
	assert.Equal(t, "first", result.Collisions[0].OverwrittenID)
	assert.Equal(t, "second", result.Collisions[0].WinnerID)
	assert.Len(t, result.Files, 1)
}

func TestExport_CollisionKeepsOneIndexEntry(t *testing.T) {
	out := t.TempDir()
	routes := []model.Route{
		{ID: "first", Type: model.RouteTypeBus, Name: "A/B"},
		{ID: "other", Type: model.RouteTypeBus, Name: "C"},
		{ID: "second", Type: model.RouteTypeBus, Name: "A-B"},
		{ID: "tram", Type: model.RouteTypeTram, Name: "A/B"},
	}

	_, err := New(Options{WriteIndex: true}, logging.Discard()).Export(routes, out)
	require.NoError(t, err)

	var idx index
	readJSON(t, filepath.Join(out, "data", "index.json"), &idx)
	assert.Equal(t, []indexEntry{{Name: "A-B", File: "a_b"}, {Name: "C", File: "c"}}, idx.Buses)
	assert.Equal(t, []indexEntry{{Name: "A/B", File: "a_b"}}, idx.Trams)
}

func TestExport_SameNameDifferentTypesDoNotCollide(t *testing.T) {
	out := t.TempDir()
	routes := []model.Route{
		{ID: "1", Type: model.RouteTypeBus, Name: "Line 5"},
		{ID: "2", Type: model.RouteTypeTram, Name: "Line 5"},
	}

	result, err := New(Options{}, logging.Discard()).Export(routes, out)
	require.NoError(t, err)
	assert.Empty(t, result.Collisions)
	assert.FileExists(t, filepath.Join(out, "data", "buses", "line_5.json"))
	assert.FileExists(t, filepath.Join(out, "data", "trams", "line_5.json"))
}

func TestExport_EmptyRouteListStillCreatesTree(t *testing.T) {
	out := t.TempDir()

	_, err := New(Options{WriteIndex: true}, logging.Discard()).Export(nil, out)
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(out, "data", "buses"))
	assert.DirExists(t, filepath.Join(out, "data", "trams"))

	data, err := os.ReadFile(filepath.Join(out, "data", "index.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"buses":[],"trams":[]}`, string(data))
}

func TestExport_NoIndexWhenDisabled(t *testing.T) {
	out := t.TempDir()

	_, err := New(Options{}, logging.Discard()).Export([]model.Route{{ID: "1", Type: model.RouteTypeBus, Name: "x"}}, out)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(out, "data", "index.json"))
}

func TestExport_EmbedsSignBytes(t *testing.T) {
	out := t.TempDir()
	signs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(signs, "1.bin"), []byte{0x00, 0x7F, 0xFF}, 0o644))

	routes := []model.Route{
		{ID: "1", Type: model.RouteTypeBus, Name: "with sign", AlfaSignBinFile: "1.bin"},
		{ID: "2", Type: model.RouteTypeBus, Name: "without sign", AlfaSignBinFile: "2.bin"},
	}

	_, err := New(Options{SignDir: signs}, logging.Discard()).Export(routes, out)
	require.NoError(t, err)

	var with map[string]any
	readJSON(t, filepath.Join(out, "data", "buses", "with_sign.json"), &with)
	assert.Equal(t, []any{float64(0), float64(127), float64(255)}, with["alfaSignBytes"])

	var without map[string]any
	readJSON(t, filepath.Join(out, "data", "buses", "without_sign.json"), &without)
	assert.NotContains(t, without, "alfaSignBytes")
}

func TestExport_CopiesSignBinaryIntoTypeDirectory(t *testing.T) {
	out := t.TempDir()
	signs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(signs, "ring.bin"), []byte{0x01, 0x02}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(signs, "zoo.bin"), []byte{0x03}, 0o644))

	routes := []model.Route{
		{ID: "t1", Type: model.RouteTypeTram, Name: "Tram 3", AlfaSignBinFile: "ring.bin"},
		{ID: "b1", Type: model.RouteTypeBus, Name: "Bus 12", AlfaSignBinFile: "zoo.bin"},
		{ID: "b2", Type: model.RouteTypeBus, Name: "Bus 13", AlfaSignBinFile: "missing.bin"},
	}

	result, err := New(Options{SignDir: signs}, logging.Discard()).Export(routes, out)
	require.NoError(t, err)

	tramBin := filepath.Join(out, "data", "trams", "ring.bin")
	busBin := filepath.Join(out, "data", "buses", "zoo.bin")

	data, err := os.ReadFile(tramBin)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, data)
	assert.NoFileExists(t, filepath.Join(out, "data", "buses", "ring.bin"))

	data, err = os.ReadFile(busBin)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03}, data)
	assert.NoFileExists(t, filepath.Join(out, "data", "buses", "missing.bin"))

	assert.Contains(t, result.Files, tramBin)
	assert.Contains(t, result.Files, busBin)
	assert.Len(t, result.Files, 5)
}

func TestExport_FilesystemFailure(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := New(Options{}, logging.Discard()).Export(nil, blocker)
	assert.Error(t, err)
}

func TestExport_UnknownType(t *testing.T) {
	_, err := New(Options{}, logging.Discard()).Export([]model.Route{{ID: "1", Type: "ferry", Name: "x"}}, t.TempDir())
	assert.Error(t, err)
}

func TestExport_EmptyDirectory(t *testing.T) {
	_, err := New(Options{}, logging.Discard()).Export(nil, "")
	assert.Error(t, err)
}
