package track

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/trackpilot/internal/core/systems/physics"
)

func TestNewRejectsMalformedGrids(t *testing.T) {
	tests := []struct {
		name        string
		cells       [][]uint8
		granularity float64
	}{
		{"nil grid", nil, 1},
		{"empty row", [][]uint8{{}}, 1},
		{"ragged", [][]uint8{{0, 0}, {0}}, 1},
		{"zero granularity", [][]uint8{{0}}, 0},
		{"negative granularity", [][]uint8{{0}}, -2},
		{"nan granularity", [][]uint8{{0}}, math.NaN()},
		{"infinite granularity", [][]uint8{{0}}, math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cells, tt.granularity)
			assert.ErrorIs(t, err, ErrTrackFormat)
		})
	}
}

func TestNewCopiesCells(t *testing.T) {
	cells := [][]uint8{{0, 0}, {0, 0}}
	tr, err := New(cells, 1)
	require.NoError(t, err)

	cells[0][0] = 1
	assert.False(t, tr.Occupied(physics.Vec(0.5, 0.5)))
	assert.Equal(t, 2, tr.Rows())
	assert.Equal(t, 2, tr.Cols())
}

func TestCellIndexing(t *testing.T) {
	// 2 rows x 3 cols, granularity 10. Only row 1, col 2 is occupied.
	tr := MustNew([][]uint8{
		{0, 0, 0},
		{0, 0, 1},
	}, 10)

	row, col, ok := tr.Cell(physics.Vec(25, 15))
	require.True(t, ok)
	assert.Equal(t, 1, row)
	assert.Equal(t, 2, col)
	assert.True(t, tr.Occupied(physics.Vec(25, 15)))

	// x selects the column, y the row.
	assert.False(t, tr.Occupied(physics.Vec(15, 25)))
	assert.False(t, tr.Occupied(physics.Vec(0, 0)))
	assert.False(t, tr.Occupied(physics.Vec(29.999, 9.999)))

	w, h := tr.Size()
	assert.Equal(t, 30.0, w)
	assert.Equal(t, 20.0, h)
}

func TestOutOfBoundsIsOccupied(t *testing.T) {
	tr := MustNew([][]uint8{{0, 0}, {0, 0}}, 1)
	for _, p := range []physics.Vector2D{
		physics.Vec(-0.01, 0.5),
		physics.Vec(0.5, -0.01),
		physics.Vec(2, 0.5),
		physics.Vec(0.5, 2),
		physics.Vec(math.NaN(), 0),
		physics.Vec(math.Inf(1), 0),
		physics.Vec(1e300, 1e300),
	} {
		_, _, ok := tr.Cell(p)
		assert.False(t, ok, "%v", p)
		assert.True(t, tr.Occupied(p), "%v", p)
	}
	assert.Equal(t, uint8(1), tr.At(-1, 0))
	assert.Equal(t, uint8(1), tr.At(0, 2))
	assert.Equal(t, uint8(0), tr.At(1, 1))
}

func TestSensorAgainstTrack(t *testing.T) {
	// 30x30 free grid: from (15, 15) heading +Y the edge is 15 units away.
	cells := make([][]uint8, 30)
	for i := range cells {
		cells[i] = make([]uint8, 30)
	}
	tr := MustNew(cells, 1)
	r := physics.Sense(tr, physics.Vec(15.5, 15.5), physics.Polar(0, 0))
	assert.Equal(t, 15.0, r[0])
	assert.Equal(t, 16.0, r[4])

	// Large free grid: every ray hits the cap.
	big := make([][]uint8, 100)
	for i := range big {
		big[i] = make([]uint8, 100)
	}
	tr = MustNew(big, 1)
	assert.Equal(t, physics.Readings{20, 20, 20, 20, 20}, physics.Sense(tr, physics.Vec(50, 50), physics.Polar(3, 17)))
}

func TestDecodePNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.Set(x, y, color.White)
		}
	}
	img.Set(2, 1, color.Black)
	img.Set(0, 0, color.RGBA{R: 255, G: 255, B: 254, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	tr, err := Decode(&buf, 5)
	require.NoError(t, err)
	assert.Equal(t, [][]uint8{{1, 0, 0}, {0, 0, 1}}, tr.Cells())
	assert.Equal(t, 5.0, tr.Granularity())
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not an image")), 1)
	assert.ErrorIs(t, err, ErrTrackFormat)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("does/not/exist.png", 1)
	assert.Error(t, err)
}
