package frame

// PayloadSize is the fixed body length following a frame marker.
const PayloadSize = 17

// State is the synchronizer position in the stream.
type State uint8

const (
	AwaitingSync State = iota
	PayloadExpected
)

func (s State) String() string {
	if s == PayloadExpected {
		return "payload_expected"
	}
	return "awaiting_sync"
}

// Pending is the context of the frame whose payload is expected next.
type Pending struct {
	Kind   Kind
	Range  RangeCode
	Marker byte
}

// Synchronizer tracks marker framing for one stream. It must be owned by a
// single reader.
type Synchronizer struct {
	state   State
	pending Pending
	joined  bool
}

// NewSynchronizer returns a synchronizer awaiting its first marker.
func NewSynchronizer() *Synchronizer {
	return &Synchronizer{}
}

// State reports the current position.
func (s *Synchronizer) State() State { return s.state }

// Joined reports whether at least one frame marker has been seen. Before
// that the stream may have been joined mid-payload, so stray bytes with bit
// 7 set are expected.
func (s *Synchronizer) Joined() bool { return s.joined }

// Feed classifies b and advances the state machine. Feeding while a payload
// is expected drops the pending frame and rescans from b.
func (s *Synchronizer) Feed(b byte) SyncResult {
	s.Reset()
	res := Classify(b)
	if res.Kind == Frame {
		s.state = PayloadExpected
		s.pending = Pending{Kind: res.Frame, Range: res.Range, Marker: b}
		s.joined = true
	}
	return res
}

// Pending returns the frame waiting for its payload. The bool is false when
// no payload is expected.
func (s *Synchronizer) Pending() (Pending, bool) {
	if s.state != PayloadExpected {
		return Pending{}, false
	}
	return s.pending, true
}

// Complete marks the pending payload as consumed and returns its context.
func (s *Synchronizer) Complete() (Pending, bool) {
	p, ok := s.Pending()
	s.Reset()
	return p, ok
}

// Reset drops any pending frame, e.g. after a short read.
func (s *Synchronizer) Reset() {
	s.state = AwaitingSync
	s.pending = Pending{}
}
