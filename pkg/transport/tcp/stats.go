package tcp

import "go.uber.org/atomic"

// Stats are the transport's running counters. All fields are safe for concurrent use.
type Stats struct {
	accepted     atomic.Int64
	rejected     atomic.Int64
	active       atomic.Int64
	acceptErrors atomic.Int64
	bytesEchoed  atomic.Int64

	peerClosed atomic.Int64
	ioErrors   atomic.Int64
	idle       atomic.Int64
	shutdown   atomic.Int64
	panics     atomic.Int64
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Accepted     int64
	Rejected     int64
	Active       int64
	AcceptErrors int64
	BytesEchoed  int64
	PeerClosed   int64
	IOErrors     int64
	Idle         int64
	Shutdown     int64
	Panics       int64
}

func (s *Stats) closed(r Reason) {
	s.active.Dec()
	switch r {
	case ReasonPeerClosed:
		s.peerClosed.Inc()
	case ReasonError:
		s.ioErrors.Inc()
	case ReasonIdle:
		s.idle.Inc()
	case ReasonShutdown:
		s.shutdown.Inc()
	case ReasonPanic:
		s.panics.Inc()
	}
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Accepted:     s.accepted.Load(),
		Rejected:     s.rejected.Load(),
		Active:       s.active.Load(),
		AcceptErrors: s.acceptErrors.Load(),
		BytesEchoed:  s.bytesEchoed.Load(),
		PeerClosed:   s.peerClosed.Load(),
		IOErrors:     s.ioErrors.Load(),
		Idle:         s.idle.Load(),
		Shutdown:     s.shutdown.Load(),
		Panics:       s.panics.Load(),
	}
}
