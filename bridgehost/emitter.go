package bridgehost

import "sync"

// Emitter is the outbound message-bus producer interface the withdrawal and
// custodian-transition pipelines use to hand off to the federated signer
// network (SPEC_FULL §9's "Wormhole VAA emission" reinterpretation). The
// signer network itself is out of scope; Emitter's only job is to assign a
// monotonic sequence number to each emitted payload.
type Emitter interface {
	Emit(topic string, payload []byte) (sequence uint64, err error)
}

// InMemoryEmitter is a process-local Emitter: sequence numbers increase
// monotonically per topic, messages are retained for inspection (e.g. by an
// operator harness or test), never delivered anywhere. Production
// deployments supply their own Emitter backed by a real message bus.
type InMemoryEmitter struct {
	mu       sync.Mutex
	nextSeq  map[string]uint64
	messages map[string][][]byte
}

func NewInMemoryEmitter() *InMemoryEmitter {
	return &InMemoryEmitter{
		nextSeq:  make(map[string]uint64),
		messages: make(map[string][][]byte),
	}
}

func (e *InMemoryEmitter) Emit(topic string, payload []byte) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	seq := e.nextSeq[topic]
	e.nextSeq[topic] = seq + 1
	e.messages[topic] = append(e.messages[topic], append([]byte(nil), payload...))
	return seq, nil
}

// Messages returns a copy of every payload emitted on topic, in order.
func (e *InMemoryEmitter) Messages(topic string) [][]byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]byte, len(e.messages[topic]))
	copy(out, e.messages[topic])
	return out
}
