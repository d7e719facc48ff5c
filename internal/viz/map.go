package viz

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"percances/internal/frame"
)

// AllowedColumns are the fields a crash map can be colored by.
var AllowedColumns = []string{
	"nivel_dano_vehiculo", "total_lesionados", "genero_lesionado", "punto_impacto",
}

// Mexico City center.
const (
	centerLat = 19.4326
	centerLon = -99.1332
)

// FilterSeverity keeps only rows whose vehicle damage level is present
// and at or above min. Min must be within the 0-4 severity scale.
func FilterSeverity(f *frame.Frame, min float64) (*frame.Frame, error) {
	if min < 0 || min > 4 {
		return nil, fmt.Errorf("min severity %v outside [0, 4]", min)
	}
	col, ok := f.Column("nivel_dano_vehiculo")
	if !ok {
		return nil, fmt.Errorf("column nivel_dano_vehiculo missing")
	}
	return f.Filter(func(row int) bool {
		cell := col.Cells[row]
		if cell == nil {
			return false
		}
		level, err := strconv.ParseFloat(*cell, 64)
		return err == nil && level >= min
	}), nil
}

type mapPoint struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Value string  `json:"value"`
}

// WriteCrashMap renders a standalone interactive map of the crashes at
// or above min severity, colored by the chosen column, into
// outDir/mexico_city_map_<column>.html. Rows missing coordinates or the
// color value are dropped from the map, not from the data.
func WriteCrashMap(f *frame.Frame, column string, min float64, outDir string) (string, error) {
	allowed := false
	for _, name := range AllowedColumns {
		if name == column {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("column must be one of %v, got %q", AllowedColumns, column)
	}

	filtered, err := FilterSeverity(f, min)
	if err != nil {
		return "", err
	}

	latCol, okLat := filtered.Column("latitud")
	lonCol, okLon := filtered.Column("longitud")
	valueCol, okValue := filtered.Column(column)
	if !okLat || !okLon || !okValue {
		return "", fmt.Errorf("map needs latitud, longitud and %s columns", column)
	}

	points := make([]mapPoint, 0, filtered.Rows())
	for row := 0; row < filtered.Rows(); row++ {
		if latCol.Cells[row] == nil || lonCol.Cells[row] == nil || valueCol.Cells[row] == nil {
			continue
		}
		lat, errLat := strconv.ParseFloat(*latCol.Cells[row], 64)
		lon, errLon := strconv.ParseFloat(*lonCol.Cells[row], 64)
		if errLat != nil || errLon != nil {
			continue
		}
		points = append(points, mapPoint{Lat: lat, Lon: lon, Value: *valueCol.Cells[row]})
	}

	blob, err := json.Marshal(points)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	outPath := filepath.Join(outDir, fmt.Sprintf("mexico_city_map_%s.html", column))
	file, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	data := struct {
		Title     string
		CenterLat float64
		CenterLon float64
		Numeric   bool
		Points    template.JS
	}{
		Title:     "Mexico City - " + titleCase(column),
		CenterLat: centerLat,
		CenterLon: centerLon,
		Numeric:   column != "genero_lesionado",
		Points:    template.JS(blob),
	}
	if err := mapTemplate.Execute(file, data); err != nil {
		return "", err
	}
	return outPath, nil
}

// WriteAllMaps renders one crash map per allowed column. A column that
// cannot be rendered is reported and skipped so the remaining maps
// still come out.
func WriteAllMaps(f *frame.Frame, min float64, outDir string) ([]string, []string) {
	var paths []string
	var errs []string
	for _, column := range AllowedColumns {
		path, err := WriteCrashMap(f, column, min, outDir)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", column, err))
			continue
		}
		paths = append(paths, path)
	}
	return paths, errs
}

func titleCase(column string) string {
	words := strings.Split(column, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

var mapTemplate = template.Must(template.New("crashmap").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; } #title { position: absolute; top: 8px; left: 56px; z-index: 1000; background: #fff; padding: 4px 10px; border-radius: 4px; font-family: sans-serif; }</style>
</head>
<body>
<div id="title">{{.Title}}</div>
<div id="map"></div>
<script>
var points = {{.Points}};
var numeric = {{.Numeric}};
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLon}}], 10);
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);

var palette = ['#440154', '#3b528b', '#21918c', '#5ec962', '#fde725'];
var categories = {};
function color(value) {
  if (numeric) {
    var n = Number(value);
    if (isNaN(n)) { return '#999'; }
    var i = Math.max(0, Math.min(palette.length - 1, Math.round(n)));
    return palette[i];
  }
  if (!(value in categories)) {
    categories[value] = Object.keys(categories).length % palette.length;
  }
  return palette[categories[value]];
}

points.forEach(function (p) {
  L.circleMarker([p.lat, p.lon], {
    radius: 4, weight: 0, fillOpacity: 0.7, fillColor: color(p.value)
  }).bindPopup(String(p.value)).addTo(map);
});
</script>
</body>
</html>
`))
