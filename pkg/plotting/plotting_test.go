package plotting

import (
	"bytes"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/killian31/SGDSlicedWasserstein/pkg/history"
)

func pointCloud(t *testing.T, n int) *mat.Dense {
	t.Helper()
	rng := rand.New(rand.NewPCG(uint64(n), 0))
	data := make([]float64, n*2)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return mat.NewDense(n, 2, data)
}

func TestDistributionsSmoke(t *testing.T) {
	source := pointCloud(t, 50)
	generated := pointCloud(t, 50)
	target := pointCloud(t, 50)

	fig, err := Distributions(source, generated, target)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "distributions.png")
	require.NoError(t, fig.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestDistributionsWriteTo(t *testing.T) {
	fig, err := Distributions(pointCloud(t, 10), pointCloud(t, 10), pointCloud(t, 10),
		WithTitle("Round 3"), WithDPI(72))
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := fig.WriteTo(&buf)
	require.NoError(t, err)
	assert.Positive(t, n)
	assert.Equal(t, "\x89PNG", buf.String()[:4])
}

func TestDistributionsRejectsNon2DBatches(t *testing.T) {
	bad := mat.NewDense(5, 3, nil)
	good := pointCloud(t, 5)

	_, err := Distributions(good, bad, good)
	require.ErrorIs(t, err, ErrNot2D)
}

func TestDistributionsRejectsEmptyBatch(t *testing.T) {
	empty := &mat.Dense{}
	_, err := Distributions(pointCloud(t, 5), pointCloud(t, 5), empty)
	require.Error(t, err)
}

type identityModel struct{}

func (identityModel) Predict(batch *mat.Dense) (*mat.Dense, error) {
	out := &mat.Dense{}
	out.CloneFrom(batch)
	return out, nil
}

func TestModelResults(t *testing.T) {
	fig, err := ModelResults(identityModel{}, pointCloud(t, 20), pointCloud(t, 20), WithDPI(72))
	require.NoError(t, err)
	assert.NotNil(t, fig)
}

func TestLossSeriesAgainstEpochIndex(t *testing.T) {
	xys := seriesXYs([]float64{1.0, 0.5, 0.25})

	require.Len(t, xys, 3)
	for i, xy := range xys {
		assert.Equal(t, float64(i), xy.X)
	}
	assert.Equal(t, 0.25, xys[2].Y)
}

func TestLossFromFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"train_loss": [1.0, 0.5, 0.25], "valid_loss": [1.2, 0.6, 0.3]}`), 0o644))

	fig, err := LossFromFile(path, WithDPI(72))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "loss.png")
	require.NoError(t, fig.Save(out))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("PLOT_DPI", "72")

	opts, err := OptionsFromEnv(t.Context())
	require.NoError(t, err)

	o := buildOptions("t", opts)
	assert.Equal(t, 72, o.dpi)
}

func TestLossRejectsEmptyHistory(t *testing.T) {
	_, err := Loss(&history.History{})
	require.ErrorIs(t, err, history.ErrNoSeries)
}
