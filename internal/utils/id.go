package utils

import (
	"fmt"
	"hash/fnv"
	"os"
	"sync"
	"time"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/errors"
)

// twepoch is the custom epoch ids count from: 2012/12/12 23:59:59 GMT.
const twepoch = int64(1355327999000)

const (
	nodeBits     = 10
	sequenceBits = 12

	maxNode      = -1 ^ (-1 << nodeBits)
	sequenceMask = -1 ^ (-1 << sequenceBits)

	nodeShift      = sequenceBits
	timestampShift = sequenceBits + nodeBits

	// maxClockRegression is how far backwards the clock may step before we
	// refuse to generate ids rather than wait it out.
	maxClockRegression = 10 * time.Millisecond
)

// Snowflake generates time-ordered, process-unique identifiers: 41 bits of
// millisecond timestamp, 10 bits of node id, 12 bits of per-millisecond
// sequence. Successive ids from one instance are strictly increasing.
type Snowflake struct {
	mu sync.Mutex

	node     int64
	sequence int64
	lastTime int64

	now func() int64
}

// NewSnowflake returns a generator whose node id is derived from the
// hostname and pid.
func NewSnowflake() *Snowflake {
	host, _ := os.Hostname()
	h := fnv.New32a()
	fmt.Fprintf(h, "%s:%d", host, os.Getpid())
	return &Snowflake{
		node: int64(h.Sum32()) & maxNode,
		now:  func() int64 { return time.Now().UnixMilli() },
	}
}

// NextID returns the next identifier as a decimal string.
func (s *Snowflake) NextID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now()
	if ts < s.lastTime {
		offset := time.Duration(s.lastTime-ts) * time.Millisecond
		if offset > maxClockRegression {
			return "", fmt.Errorf("%w refusing to generate id for %s", errors.ErrClockBackwards, offset)
		}
		ts = s.tillNextMillis(s.lastTime)
	}

	if ts == s.lastTime {
		s.sequence = (s.sequence + 1) & sequenceMask
		if s.sequence == 0 {
			ts = s.tillNextMillis(ts)
		}
	} else {
		s.sequence = 0
	}
	s.lastTime = ts

	id := (ts-twepoch)<<timestampShift | s.node<<nodeShift | s.sequence
	return fmt.Sprintf("%d", id), nil
}

func (s *Snowflake) tillNextMillis(last int64) int64 {
	ts := s.now()
	for ts <= last {
		ts = s.now()
	}
	return ts
}

var (
	taskSeqMu sync.Mutex
	taskSeq   int
)

// NewTaskID returns a time-ordered task identifier: the current unix
// millisecond timestamp with a three digit rolling suffix.
func NewTaskID() string {
	taskSeqMu.Lock()
	taskSeq = (taskSeq + 1) % 1000
	seq := taskSeq
	taskSeqMu.Unlock()
	return fmt.Sprintf("%d%03d", time.Now().UnixMilli(), seq)
}
