package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// sink fans finished lines out to stdout and the optional log file. File
// output is buffered and flushed on Shutdown; the first write error sticks.
type sink struct {
	mu      sync.Mutex
	direct  []io.Writer
	buffers []*bufio.Writer
	closers []io.Closer
	err     error
}

func newSink(direct ...io.Writer) *sink {
	return &sink{direct: direct}
}

func (s *sink) addFile(f io.WriteCloser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffers = append(s.buffers, bufio.NewWriterSize(f, 32*1024))
	s.closers = append(s.closers, f)
}

func (s *sink) write(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, w := range s.direct {
		if _, err := w.Write(line); err != nil {
			s.err = err
			return err
		}
	}
	for _, w := range s.buffers {
		if _, err := w.Write(line); err != nil {
			s.err = err
			return err
		}
	}
	return nil
}

func (s *sink) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, w := range s.buffers {
		if err := w.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.buffers, s.closers = nil, nil
	return errors.Join(errs...)
}
