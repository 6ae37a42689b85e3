// Package plotting renders the experiment figures: side-by-side scatter
// panels comparing source, generated and target point clouds, and loss
// curves read from a training-history document.
package plotting

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/killian31/SGDSlicedWasserstein/internal/config"
	"github.com/killian31/SGDSlicedWasserstein/pkg/history"
)

// DefaultDPI is the raster resolution used when none is configured.
const DefaultDPI = 300

var ErrNot2D = errors.New("plotting: batch must have exactly 2 columns")

var (
	colorTrain     = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	colorValid     = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	colorGenerated = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xb3}
	colorTarget    = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xb3}
)

// Predictor produces a generated batch from a source batch. Eval-mode
// switching and gradient handling belong to the implementation.
type Predictor interface {
	Predict(batch *mat.Dense) (*mat.Dense, error)
}

type options struct {
	title string
	dpi   int
}

type Option func(*options)

// WithTitle overrides the overall figure title.
func WithTitle(title string) Option {
	return func(o *options) {
		o.title = title
	}
}

// WithDPI sets the raster resolution of the rendered figure.
func WithDPI(dpi int) Option {
	return func(o *options) {
		o.dpi = dpi
	}
}

// OptionsFromEnv reads the figure defaults configured in the environment
// (PLOT_DPI) as a set of options to prepend at call sites.
func OptionsFromEnv(ctx context.Context) ([]Option, error) {
	cfg, err := config.LoadPlotEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("load plot config: %w", err)
	}
	return []Option{WithDPI(cfg.DPI)}, nil
}

func buildOptions(title string, opts []Option) options {
	o := options{title: title, dpi: DefaultDPI}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Figure is a rendered raster canvas. Callers that only want the image
// on screen or over a socket use WriteTo; Save writes a PNG file.
type Figure struct {
	canvas *vgimg.Canvas
}

// WriteTo streams the figure to w as PNG.
func (f *Figure) WriteTo(w io.Writer) (int64, error) {
	png := vgimg.PngCanvas{Canvas: f.canvas}
	return png.WriteTo(w)
}

// Save writes the figure to path as a PNG file.
func (f *Figure) Save(path string) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create figure file: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("write figure: %w", err)
	}

	log.Debug().Str("path", path).Msg("saved figure")
	return w.Close()
}

// Distributions renders four side-by-side scatter panels: the source
// distribution, the generated distribution, the target distribution, and
// a generated-vs-target overlay. All three batches must be (n, 2)
// matrices of 2-D points.
func Distributions(source, generated, target mat.Matrix, opts ...Option) (*Figure, error) {
	o := buildOptions("Distribution Comparison", opts)

	for name, m := range map[string]mat.Matrix{
		"source": source, "generated": generated, "target": target,
	} {
		rows, cols := m.Dims()
		if cols != 2 {
			return nil, fmt.Errorf("%w: %s batch has %d", ErrNot2D, name, cols)
		}
		if rows == 0 {
			return nil, fmt.Errorf("plotting: %s batch is empty", name)
		}
	}

	sourcePanel, err := scatterPanel("Source Distribution", source, colorTrain)
	if err != nil {
		return nil, err
	}
	generatedPanel, err := scatterPanel("Generated Distribution", generated, colorTrain)
	if err != nil {
		return nil, err
	}
	targetPanel, err := scatterPanel("Target Distribution", target, colorTrain)
	if err != nil {
		return nil, err
	}

	overlayPanel, err := overlay(generated, target)
	if err != nil {
		return nil, err
	}

	return tile(o, sourcePanel, generatedPanel, targetPanel, overlayPanel)
}

// ModelResults runs the model on the source batch and renders the
// resulting distributions figure.
func ModelResults(model Predictor, source, target *mat.Dense, opts ...Option) (*Figure, error) {
	generated, err := model.Predict(source)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	return Distributions(source, generated, target, opts...)
}

// Loss renders train and validation loss curves against their epoch
// index. Series of unequal lengths are plotted as-is.
func Loss(h *history.History, opts ...Option) (*Figure, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}

	o := buildOptions("Training and Validation Loss", opts)

	p := plot.New()
	p.Title.Text = o.title
	p.X.Label.Text = "Epoch"
	p.Y.Label.Text = "Loss"
	p.Add(plotter.NewGrid())

	if len(h.TrainLoss) > 0 {
		train, err := plotter.NewLine(seriesXYs(h.TrainLoss))
		if err != nil {
			return nil, fmt.Errorf("train loss line: %w", err)
		}
		train.LineStyle.Color = colorTrain
		p.Add(train)
		p.Legend.Add("Train Loss", train)
	}

	if len(h.ValidLoss) > 0 {
		valid, err := plotter.NewLine(seriesXYs(h.ValidLoss))
		if err != nil {
			return nil, fmt.Errorf("valid loss line: %w", err)
		}
		valid.LineStyle.Color = colorValid
		p.Add(valid)
		p.Legend.Add("Valid Loss", valid)
	}
	p.Legend.Top = true

	canvas := vgimg.NewWith(
		vgimg.UseWH(10*vg.Inch, 5*vg.Inch),
		vgimg.UseDPI(o.dpi),
	)
	p.Draw(draw.New(canvas))

	return &Figure{canvas: canvas}, nil
}

// LossFromFile loads a training-history JSON file and renders its loss
// curves.
func LossFromFile(path string, opts ...Option) (*Figure, error) {
	h, err := history.Load(path)
	if err != nil {
		return nil, err
	}
	return Loss(h, opts...)
}

func scatterPanel(title string, m mat.Matrix, c color.Color) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	p.Add(plotter.NewGrid())

	s, err := newScatter(m, c)
	if err != nil {
		return nil, fmt.Errorf("%s scatter: %w", title, err)
	}
	p.Add(s)

	return p, nil
}

func overlay(generated, target mat.Matrix) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Generated vs Target"
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	p.Add(plotter.NewGrid())

	gs, err := newScatter(generated, colorGenerated)
	if err != nil {
		return nil, fmt.Errorf("overlay generated scatter: %w", err)
	}
	p.Add(gs)
	p.Legend.Add("Generated", gs)

	ts, err := newScatter(target, colorTarget)
	if err != nil {
		return nil, fmt.Errorf("overlay target scatter: %w", err)
	}
	p.Add(ts)
	p.Legend.Add("Target", ts)
	p.Legend.Top = true

	return p, nil
}

func newScatter(m mat.Matrix, c color.Color) (*plotter.Scatter, error) {
	s, err := plotter.NewScatter(matrixXYs(m))
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = vg.Points(2)
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	return s, nil
}

// tile lays the panels out in a single row under a shared title.
func tile(o options, panels ...*plot.Plot) (*Figure, error) {
	const (
		panelWidth  = 3.5 * vg.Inch
		panelHeight = 3.5 * vg.Inch
		titleHeight = 0.4 * vg.Inch
	)

	width := panelWidth * vg.Length(len(panels))
	canvas := vgimg.NewWith(
		vgimg.UseWH(width, panelHeight+titleHeight),
		vgimg.UseDPI(o.dpi),
	)
	dc := draw.New(canvas)

	if o.title != "" {
		sty := text.Style{
			Color:   color.Black,
			Font:    font.Font{Typeface: "Liberation", Variant: "Sans", Size: vg.Points(16)},
			Handler: text.Plain{Fonts: font.DefaultCache},
			XAlign:  draw.XCenter,
			YAlign:  draw.YTop,
		}
		dc.FillText(sty, vg.Point{X: dc.X(0.5), Y: dc.Y(1)}, o.title)
	}

	plotArea := draw.Crop(dc, 0, 0, 0, -titleHeight)
	tiles := draw.Tiles{
		Rows: 1,
		Cols: len(panels),
		PadX: vg.Millimeter * 2,
	}

	grid := [][]*plot.Plot{panels}
	canvases := plot.Align(grid, tiles, plotArea)
	for i, p := range panels {
		p.Draw(canvases[0][i])
	}

	return &Figure{canvas: canvas}, nil
}

func matrixXYs(m mat.Matrix) plotter.XYs {
	n, _ := m.Dims()
	xys := make(plotter.XYs, n)
	for i := range xys {
		xys[i].X = m.At(i, 0)
		xys[i].Y = m.At(i, 1)
	}
	return xys
}

func seriesXYs(series []float64) plotter.XYs {
	xys := make(plotter.XYs, len(series))
	for i, v := range series {
		xys[i].X = float64(i)
		xys[i].Y = v
	}
	return xys
}
