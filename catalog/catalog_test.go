package catalog

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/bodgit/asciixel/convert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func output(n int) *convert.Output {
	out := &convert.Output{
		Mode:   convert.ColoredGlyph,
		Size:   image.Pt(4, 4),
		Stride: image.Pt(2, 2),
	}
	for i := 0; i < n; i++ {
		out.Instructions = append(out.Instructions, convert.Instruction{
			Pos:   image.Pt(i, 0),
			Glyph: 1,
			Color: color.RGBA{255, 0, 0, 255},
		})
	}
	return out
}

func TestDigest(t *testing.T) {
	a, err := Digest(output(2))
	require.NoError(t, err)
	b, err := Digest(output(2))
	require.NoError(t, err)
	c, err := Digest(output(3))
	require.NoError(t, err)

	assert.Len(t, a, 40)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestRuns(t *testing.T) {
	c := open(t)

	runs, err := c.Runs()
	require.NoError(t, err)
	assert.Empty(t, runs)

	id, err := c.StartRun(Run{Name: "ASCIIXEL_clip_ASCII_elSize12_asciiPal2", Source: "clip.mp4", Mode: "plain", Ramp: 2, Levels: 8, CellSize: 12})
	require.NoError(t, err)

	require.NoError(t, c.AddFrame(id, 1, output(1)))
	require.NoError(t, c.AddFrame(id, 0, output(2)))
	// Replaces the earlier frame 1
	require.NoError(t, c.AddFrame(id, 1, output(3)))
	require.NoError(t, c.FinishRun(id, 2))

	runs, err = c.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, "clip.mp4", runs[0].Source)
	assert.Equal(t, 2, runs[0].Frames)
	assert.False(t, runs[0].Started.IsZero())
	assert.False(t, runs[0].Finished.IsZero())

	frames, err := c.Frames(id)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, 0, frames[0].Index)
	assert.Equal(t, 2, frames[0].Instructions)
	assert.Equal(t, 3, frames[1].Instructions)

	_, err = c.Frames(id + 1)
	assert.Equal(t, ErrUnknownRun, err)
	assert.Equal(t, ErrUnknownRun, c.FinishRun(id+1, 0))

	// Frames must belong to a run
	assert.Error(t, c.AddFrame(id+1, 0, output(1)))
}

func TestRecorder(t *testing.T) {
	c := open(t)

	r, err := NewRecorder(c, Run{Name: "a", Source: "a.png", Mode: "color_block", Levels: 4, CellSize: 8})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, r.FrameDone(i, output(i)))
	}
	require.NoError(t, r.Close())

	runs, err := c.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, r.Run(), runs[0].ID)
	assert.Equal(t, 3, runs[0].Frames)

	frames, err := c.Frames(r.Run())
	require.NoError(t, err)
	assert.Len(t, frames, 3)
}

func TestPersistent(t *testing.T) {
	file := filepath.Join(t.TempDir(), "runs.db")

	c, err := Open(file)
	require.NoError(t, err)
	_, err = c.StartRun(Run{Name: "a", Source: "a", Mode: "plain"})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, err = Open(file)
	require.NoError(t, err)
	defer c.Close()

	runs, err := c.Runs()
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
