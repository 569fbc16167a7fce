package export

import (
	"image"
	"image/png"
	"os"
	"sync"
)

type job struct {
	index int
	m     *image.RGBA
}

// Sequence writes every frame as <dir>/<name>_%05d.png using a pool of
// encoders
type Sequence struct {
	dir  string
	name string
	jobs chan job
	errs []<-chan error

	mu     sync.Mutex
	err    error
	closed bool
}

// NewSequence creates dir and starts workers encoders
func NewSequence(dir, name string, workers int) (*Sequence, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	s := &Sequence{
		dir:  dir,
		name: name,
		jobs: make(chan job, workers),
	}
	for i := 0; i < workers; i++ {
		s.errs = append(s.errs, s.worker(s.jobs))
	}

	return s, nil
}

func writePNG(file string, m image.Image) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}

	if err := png.Encode(f, m); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func (s *Sequence) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *Sequence) failed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Sequence) worker(in <-chan job) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for j := range in {
			if s.failed() != nil {
				// Keep draining so writers never block
				continue
			}
			if err := writePNG(Filename(s.dir, s.name, j.index), j.m); err != nil {
				s.fail(err)
				errc <- err
			}
		}
	}()
	return errc
}

// WriteFrame implements Exporter. It fails fast once any encoder has
// failed.
func (s *Sequence) WriteFrame(index int, m image.Image) error {
	if s.closed {
		return ErrClosed
	}
	if err := s.failed(); err != nil {
		return err
	}
	s.jobs <- job{index: index, m: cloneRGBA(m)}
	return nil
}

// Close waits for pending frames to be written
func (s *Sequence) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.jobs)
	return waitForPipeline(s.errs...)
}
