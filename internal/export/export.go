// Package export writes the route list as the file tree the ESP32 firmware
// reads from its flash filesystem:
//
//	<out>/data/index.json
//	<out>/data/buses/<name>.json
//	<out>/data/trams/<name>.json
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"ibis-route-manager/internal/model"
	"ibis-route-manager/internal/parse"
)

const (
	dataDir   = "data"
	busesDir  = "buses"
	tramsDir  = "trams"
	indexFile = "index.json"
)

// Options controls optional parts of the export.
type Options struct {
	// WriteIndex writes data/index.json listing every route by type.
	WriteIndex bool
	// SignDir, when set, is searched for each route's sign binary; found files
	// are embedded as alfaSignBytes and copied next to the route file.
	SignDir string
}

// Exporter writes route files.
type Exporter struct {
	opts Options
	log  logrus.FieldLogger
}

// New creates an Exporter.
func New(opts Options, log logrus.FieldLogger) *Exporter {
	return &Exporter{opts: opts, log: log}
}

// Collision records two routes of the same type that sanitize to the same
// file. The later route's data is what ends up on disk.
type Collision struct {
	File          string `json:"file"`
	OverwrittenID string `json:"overwrittenId"`
	WinnerID      string `json:"winnerId"`
}

// Result summarizes a finished export.
type Result struct {
	Root       string      `json:"root"`
	Files      []string    `json:"files"`
	Collisions []Collision `json:"collisions,omitempty"`
}

// routeFile is the per-route document.
type routeFile struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	IbisLineCmd        int       `json:"ibisLineCmd"`
	IbisDestinationCmd int       `json:"ibisDestinationCmd"`
	AlfaSignText       string    `json:"alfaSignText"`
	AlfaSignBinFile    string    `json:"alfaSignBinFile"`
	AlfaSignBytes      byteArray `json:"alfaSignBytes,omitempty"`
}

type indexEntry struct {
	Name string `json:"name"`
	File string `json:"file"`
}

type index struct {
	Buses []indexEntry `json:"buses"`
	Trams []indexEntry `json:"trams"`
}

// byteArray marshals as a JSON array of numbers rather than base64, which is
// what the firmware's JSON reader expects.
type byteArray []byte

func (b byteArray) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.Grow(len(b)*4 + 2)
	sb.WriteByte('[')
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(v)))
	}
	sb.WriteByte(']')
	return []byte(sb.String()), nil
}

// Export writes every route under outputDir. Routes are written in the given
// order, so when two names collide within a type the later one wins.
func (e *Exporter) Export(routes []model.Route, outputDir string) (*Result, error) {
	if outputDir == "" {
		return nil, errors.New("export directory is empty")
	}

	root := filepath.Join(outputDir, dataDir)
	dirs := map[model.RouteType]string{
		model.RouteTypeBus:  filepath.Join(root, busesDir),
		model.RouteTypeTram: filepath.Join(root, tramsDir),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	result := &Result{Root: root, Files: make([]string, 0, len(routes))}
	idx := index{Buses: []indexEntry{}, Trams: []indexEntry{}}
	written := make(map[string]string, len(routes)) // path -> route id
	listed := make(map[string]int, len(routes))     // path -> position in its index list
	files := make(map[string]bool, len(routes))
	addFile := func(path string) {
		if !files[path] {
			files[path] = true
			result.Files = append(result.Files, path)
		}
	}

	for _, route := range routes {
		dir, ok := dirs[route.Type]
		if !ok {
			return nil, fmt.Errorf("route %s has unknown type %q", route.ID, route.Type)
		}

		base := parse.FileName(route.Name)
		path := filepath.Join(dir, base+".json")

		if prev, seen := written[path]; seen {
			c := Collision{File: path, OverwrittenID: prev, WinnerID: route.ID}
			result.Collisions = append(result.Collisions, c)
			e.log.WithFields(logrus.Fields{
				"file":        path,
				"overwritten": prev,
				"winner":      route.ID,
			}).Warn("route names collide after sanitizing; earlier file overwritten")
		}

		doc, err := e.document(route)
		if err != nil {
			return nil, err
		}
		if err := writeJSON(path, doc); err != nil {
			return nil, err
		}
		written[path] = route.ID
		addFile(path)

		// The controller loads the sign from the same directory as the route.
		if doc.AlfaSignBytes != nil {
			binPath := filepath.Join(dir, filepath.Base(route.AlfaSignBinFile))
			if err := os.WriteFile(binPath, doc.AlfaSignBytes, 0o644); err != nil {
				return nil, fmt.Errorf("failed to write %s: %w", binPath, err)
			}
			addFile(binPath)
		}

		entries := &idx.Buses
		if route.Type == model.RouteTypeTram {
			entries = &idx.Trams
		}
		entry := indexEntry{Name: route.Name, File: base}
		if pos, seen := listed[path]; seen {
			(*entries)[pos] = entry
		} else {
			listed[path] = len(*entries)
			*entries = append(*entries, entry)
		}
	}

	if e.opts.WriteIndex {
		path := filepath.Join(root, indexFile)
		if err := writeJSON(path, idx); err != nil {
			return nil, err
		}
		result.Files = append(result.Files, path)
	}

	e.log.WithFields(logrus.Fields{
		"root":       root,
		"routes":     len(routes),
		"collisions": len(result.Collisions),
	}).Info("export finished")
	return result, nil
}

func (e *Exporter) document(route model.Route) (routeFile, error) {
	doc := routeFile{
		ID:                 route.ID,
		Name:               route.Name,
		IbisLineCmd:        route.IbisLineCmd,
		IbisDestinationCmd: route.IbisDestinationCmd,
		AlfaSignText:       route.AlfaSignText,
		AlfaSignBinFile:    route.AlfaSignBinFile,
	}
	if e.opts.SignDir == "" || route.AlfaSignBinFile == "" {
		return doc, nil
	}

	// Only the base name is honoured so a stored value cannot point outside
	// the sign directory.
	path := filepath.Join(e.opts.SignDir, filepath.Base(route.AlfaSignBinFile))
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		doc.AlfaSignBytes = data
	case errors.Is(err, os.ErrNotExist):
		e.log.WithFields(logrus.Fields{"id": route.ID, "file": path}).Debug("no sign binary for route")
	default:
		return routeFile{}, fmt.Errorf("failed to read sign binary %s: %w", path, err)
	}
	return doc, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
