package catalog

import "github.com/bodgit/asciixel/convert"

// Recorder stores the digest of every converted frame of one run
type Recorder struct {
	c      *Catalog
	run    int64
	frames int
}

// NewRecorder starts r in c
func NewRecorder(c *Catalog, r Run) (*Recorder, error) {
	id, err := c.StartRun(r)
	if err != nil {
		return nil, err
	}
	return &Recorder{c: c, run: id}, nil
}

// Run returns the id of the run being recorded
func (r *Recorder) Run() int64 {
	return r.run
}

// FrameDone stores the digest of out
func (r *Recorder) FrameDone(index int, out *convert.Output) error {
	if err := r.c.AddFrame(r.run, index, out); err != nil {
		return err
	}
	if index+1 > r.frames {
		r.frames = index + 1
	}
	return nil
}

// Close marks the run finished
func (r *Recorder) Close() error {
	return r.c.FinishRun(r.run, r.frames)
}
