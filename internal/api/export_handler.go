// File path: internal/api/export_handler.go
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/jvaldebenito/cronoplan/internal/common"
	"github.com/jvaldebenito/cronoplan/internal/schedule"
	"github.com/jvaldebenito/cronoplan/internal/xlsx"
)

const excelMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleExportExcel re-serializes the stored snapshot, raw and derived
// columns alike, as a workbook attachment.
func (s *Server) handleExportExcel(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	buf, err := xlsx.Write(ds.Table)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("export workbook: %w", err))
		return
	}
	name := fmt.Sprintf("proyecto_con_derivados_%s.xlsx", shortKey(ds.Key))
	w.Header().Set("Content-Type", excelMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
	common.Logger().Info("api: excel export", "upload_id", ds.Key, "bytes", buf.Len())
}

// handleExportHTML renders a self-contained interactive gantt page from the
// stored snapshot, with plotly loaded from the CDN.
func (s *Server) handleExportHTML(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	view := schedule.Project(ds.Table)
	payload, err := json.Marshal(view)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("encode gantt data: %w", err))
		return
	}
	var buf bytes.Buffer
	data := ganttPageData{
		Title: ds.Filename,
		Data:  template.JS(payload),
	}
	if err := ganttTemplate.Execute(&buf, data); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("render gantt page: %w", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="gantt_interactivo.html"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func shortKey(key string) string {
	if len(key) > 8 {
		return key[:8]
	}
	return key
}

type ganttPageData struct {
	Title string
	Data  template.JS
}

var ganttTemplate = template.Must(template.New("gantt").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>Gantt - {{.Title}}</title>
<script src="https://cdn.plot.ly/plotly-2.32.0.min.js"></script>
</head>
<body>
<div id="gantt" style="width:100%;height:90vh;"></div>
<script>
const view = {{.Data}};
const rows = view.rows.filter(r => r.InicioPlan && r.FinPlan);
const traces = rows.map(r => ({
  type: "bar",
  orientation: "h",
  y: [r.ID + " " + r.Tarea],
  base: [r.InicioPlan],
  x: [(new Date(r.FinPlan) - new Date(r.InicioPlan)) / 86400000 || 1],
  marker: {color: view.paletaEstados[r.EstadoAuto] || "#95a5a6"},
  name: r.EstadoAuto,
  hovertext: r.Tarea,
  showlegend: false
}));
Plotly.newPlot("gantt", traces, {
  barmode: "overlay",
  xaxis: {title: "Días desde inicio planificado"},
  yaxis: {autorange: "reversed"},
  margin: {l: 220}
});
</script>
</body>
</html>
`))
