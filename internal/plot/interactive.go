package plot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"math"

	"github.com/KaramelBytes/flowplot-cli/internal/utils"
)

// Page is a standalone HTML document holding a grid of interactive panels.
type Page struct {
	Title       string
	Columns     int
	PanelHeight int
	Panels      []Panel
}

type pageData struct {
	Title       string
	Columns     int
	PanelHeight int
	PanelsJSON  template.JS
}

type pointJSON struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
}

type panelJSON struct {
	Title   string      `json:"title"`
	Caption string      `json:"caption"`
	XLabel  string      `json:"xLabel"`
	YLabel  string      `json:"yLabel"`
	Points  []pointJSON `json:"points"`
	Line    []pointJSON `json:"line,omitempty"`
}

// Rows is the number of grid rows, ceil(panels/columns).
func (p Page) Rows() int {
	cols := p.columns()
	return (len(p.Panels) + cols - 1) / cols
}

func (p Page) columns() int {
	if p.Columns <= 0 {
		return 1
	}
	return p.Columns
}

// Render returns the page as HTML.
func (p Page) Render() ([]byte, error) {
	panels := make([]panelJSON, 0, len(p.Panels))
	for _, pn := range p.Panels {
		if len(pn.X) != len(pn.Y) {
			return nil, fmt.Errorf("panel %q: x and y lengths differ (%d vs %d)", pn.Title, len(pn.X), len(pn.Y))
		}
		pj := panelJSON{
			Title:   pn.Title,
			Caption: pn.Caption(),
			XLabel:  pn.XLabel,
			YLabel:  pn.YLabel,
			Points:  make([]pointJSON, 0, len(pn.X)),
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := range pn.X {
			if math.IsNaN(pn.X[i]) || math.IsNaN(pn.Y[i]) {
				continue
			}
			pt := pointJSON{X: pn.X[i], Y: pn.Y[i]}
			if i < len(pn.Labels) {
				pt.Label = pn.Labels[i]
			}
			pj.Points = append(pj.Points, pt)
			lo = math.Min(lo, pn.X[i])
			hi = math.Max(hi, pn.X[i])
		}
		if pn.Fit != nil && len(pj.Points) > 0 {
			pj.Line = []pointJSON{
				{X: lo, Y: pn.Fit.Predict(lo)},
				{X: hi, Y: pn.Fit.Predict(hi)},
			}
		}
		panels = append(panels, pj)
	}
	payload, err := json.Marshal(panels)
	if err != nil {
		return nil, err
	}
	height := p.PanelHeight
	if height <= 0 {
		height = 300
	}
	vm := pageData{
		Title:       p.Title,
		Columns:     p.columns(),
		PanelHeight: height,
		PanelsJSON:  template.JS(payload),
	}
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, vm); err != nil {
		return nil, fmt.Errorf("render page %q: %w", p.Title, err)
	}
	return buf.Bytes(), nil
}

// WriteInteractive renders page to path atomically.
func WriteInteractive(path string, page Page) error {
	b, err := page.Render()
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, b)
}

var pageTemplate = template.Must(template.New("interactive").Parse(pageTemplateHTML))

const pageTemplateHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{ .Title }}</title>
  <script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.2/dist/chart.umd.min.js"></script>
  <style>
    body {
      font-family: -apple-system, "Segoe UI", Roboto, sans-serif;
      margin: 1.5rem;
      color: #0F172A;
      background: #F8FAFC;
    }
    h1 { font-size: 1.4rem; text-align: center; }
    .grid {
      display: grid;
      grid-template-columns: repeat({{ .Columns }}, minmax(0, 1fr));
      gap: 1rem;
    }
    .panel {
      background: #FFFFFF;
      border: 1px solid #E2E8F0;
      border-radius: 8px;
      padding: 0.75rem;
    }
    .panel h2 { font-size: 1rem; margin: 0 0 0.25rem 0; text-align: center; }
    .caption { font-size: 0.8rem; color: #475569; text-align: right; }
    .canvas-wrap { position: relative; height: {{ .PanelHeight }}px; }
    .empty { text-align: center; color: #64748B; }
  </style>
</head>
<body>
  <h1>{{ .Title }}</h1>
  <div id="grid" class="grid"></div>
  <p id="empty" class="empty" hidden>No comparisons.</p>
  <script>
    const panels = {{ .PanelsJSON }};
    const grid = document.getElementById('grid');
    if (panels.length === 0) {
      document.getElementById('empty').hidden = false;
    }
    panels.forEach((p, i) => {
      const card = document.createElement('div');
      card.className = 'panel';
      const h = document.createElement('h2');
      h.textContent = p.title;
      const wrap = document.createElement('div');
      wrap.className = 'canvas-wrap';
      const canvas = document.createElement('canvas');
      canvas.id = 'panel-' + i;
      wrap.appendChild(canvas);
      const cap = document.createElement('div');
      cap.className = 'caption';
      cap.textContent = p.caption;
      card.appendChild(h);
      card.appendChild(wrap);
      card.appendChild(cap);
      grid.appendChild(card);

      const datasets = [{
        type: 'scatter',
        label: p.title,
        data: p.points,
        backgroundColor: 'rgba(37, 99, 235, 0.7)',
        pointRadius: 3
      }];
      if (p.line) {
        datasets.push({
          type: 'line',
          label: 'Fit',
          data: p.line,
          borderColor: 'rgb(220, 38, 38)',
          borderWidth: 1.5,
          pointRadius: 0,
          fill: false
        });
      }
      new Chart(canvas, {
        data: { datasets },
        options: {
          maintainAspectRatio: false,
          parsing: false,
          plugins: {
            legend: { display: false },
            tooltip: {
              filter: (item) => item.datasetIndex === 0,
              callbacks: {
                label: (ctx) => {
                  const d = ctx.raw;
                  return ['Sample: ' + (d.label || ''), 'X: ' + d.x, 'Y: ' + d.y];
                }
              }
            }
          },
          scales: {
            x: { type: 'linear', title: { display: true, text: p.xLabel } },
            y: { type: 'linear', title: { display: true, text: p.yLabel } }
          }
        }
      });
    });
  </script>
</body>
</html>
`
