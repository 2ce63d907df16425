package styles

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	chartHeight = 480
	barWidth    = 18
	minWidth    = 480
)

// RenderBar draws a bar chart of the style counts
func RenderBar(styles []Style) (image.Image, error) {
	if len(styles) == 0 {
		return nil, fmt.Errorf("no styles to plot")
	}

	names := make([]string, len(styles))
	counts := make(plotter.Values, len(styles))
	for i, s := range styles {
		names[i] = s.Name
		counts[i] = float64(s.Count)
	}

	p := plot.New()
	p.Title.Text = "Paintings by style"
	p.Y.Label.Text = "Paintings"
	p.X.Tick.Label.Rotation = 1.2
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	bars, err := plotter.NewBarChart(counts, vg.Points(barWidth))
	if err != nil {
		return nil, fmt.Errorf("failed to create bar chart: %w", err)
	}
	p.Add(bars)
	p.NominalX(names...)

	width := vg.Length(len(styles)) * vg.Points(barWidth*2)
	if width < minWidth {
		width = minWidth
	}

	canvas := vgimg.New(width, vg.Points(chartHeight))
	p.Draw(draw.New(canvas))
	return canvas.Image(), nil
}

// PlotBar renders the bar chart as a PNG file at path
func PlotBar(styles []Style, path string) error {
	img, err := RenderBar(styles)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create plot file: %w", err)
	}

	if err := png.Encode(file, img); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode plot: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close plot file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace plot file: %w", err)
	}

	return nil
}
