package render

import (
	"log"
	"time"

	"github.com/loov/hrtime"
)

// Stats counts presented frames and periodically logs the frame rate.
type Stats struct {
	now      func() time.Duration
	interval time.Duration
	logger   *log.Logger

	started bool
	start   time.Duration
	frames  int
	total   uint64
	reports int
}

// NewStats returns Stats that logs every interval. A zero interval only
// counts frames.
func NewStats(interval time.Duration, logger *log.Logger) *Stats {
	if logger == nil {
		logger = log.Default()
	}
	return &Stats{now: hrtime.Now, interval: interval, logger: logger}
}

// Frame records one presented frame.
func (s *Stats) Frame() {
	t := s.now()
	if !s.started {
		s.started = true
		s.start = t
	}
	s.frames++
	s.total++

	if s.interval <= 0 {
		return
	}
	elapsed := t - s.start
	if elapsed < s.interval {
		return
	}
	fps := float64(s.frames) / elapsed.Seconds()
	s.logger.Printf("%d frames in %v: %.1f fps, %v/frame",
		s.frames, elapsed.Round(time.Millisecond), fps, elapsed/time.Duration(s.frames))
	s.reports++
	s.start = t
	s.frames = 0
}

// Total returns the number of frames recorded so far.
func (s *Stats) Total() uint64 { return s.total }
