package transport

import (
	"bytes"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/openliq/nft-vault/internal/constant"
	"github.com/openliq/nft-vault/pkg/msg"
)

// Status is the transport's view of a message it accepted.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusPending
	StatusExecuted
	StatusFailed
)

type delivery struct {
	env  msg.Envelope
	hash common.Hash
}

// Loopback routes envelopes between endpoints registered per chain id, one
// delivery attempt each, and records the outcome. A non-execution proof is
// issued only for messages whose delivery failed; its contract is "this
// message did not and will not execute", and it covers the full envelope
// content accepted at Send, not just the hash.
type Loopback struct {
	mu        sync.Mutex
	log       log.Logger
	endpoints map[msg.ChainId]Endpoint
	outcomes  map[common.Hash]Status
	contents  map[common.Hash][]byte
	pending   []delivery
	notify    chan struct{}
	failures  map[msg.ChainId]chan msg.Envelope
	wg        sync.WaitGroup
	stop      chan struct{}
	stopped   bool
	nonce     uint64
}

func NewLoopback() *Loopback {
	l := &Loopback{
		log:       log.New("system", "transport"),
		endpoints: make(map[msg.ChainId]Endpoint),
		outcomes:  make(map[common.Hash]Status),
		contents:  make(map[common.Hash][]byte),
		notify:    make(chan struct{}, 1),
		failures:  make(map[msg.ChainId]chan msg.Envelope),
		stop:      make(chan struct{}),
	}
	go l.run()
	return l
}

// Listen registers the endpoint messages destined for chain id are executed
// against.
func (l *Loopback) Listen(id msg.ChainId, e Endpoint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.Debug("Registering endpoint", "chain", id)
	l.endpoints[id] = e
}

// Send accepts the envelope, assigns its message hash and queues it for
// delivery. The hash is returned before any delivery attempt happens. The
// queue is unbounded so a sender holding its own locks never deadlocks
// against the delivery worker.
func (l *Loopback) Send(env *msg.Envelope) (common.Hash, error) {
	enc, err := rlp.EncodeToBytes(env)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "encode envelope")
	}

	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return common.Hash{}, errors.New("transport stopped")
	}
	l.nonce++
	hash := env.ContentHash(l.nonce)
	env.Hash = hash
	l.outcomes[hash] = StatusPending
	l.contents[hash] = enc
	l.wg.Add(1)
	l.pending = append(l.pending, delivery{env: *env, hash: hash})
	l.mu.Unlock()

	select {
	case l.notify <- struct{}{}:
	default:
	}
	return hash, nil
}

func (l *Loopback) run() {
	for {
		select {
		case <-l.stop:
			return
		case <-l.notify:
		}
		for {
			l.mu.Lock()
			if len(l.pending) == 0 {
				l.mu.Unlock()
				break
			}
			d := l.pending[0]
			l.pending = l.pending[1:]
			l.mu.Unlock()
			l.deliver(d)
			l.wg.Done()
		}
	}
}

func (l *Loopback) deliver(d delivery) {
	l.mu.Lock()
	ep, ok := l.endpoints[d.env.DestChain]
	l.mu.Unlock()

	if !ok {
		l.log.Warn("No endpoint for destination", "chain", d.env.DestChain, "msgHash", d.hash)
		l.fail(d)
		return
	}

	err := ep.Receive(d.env.Payload, Context{MsgHash: d.hash, SrcChain: d.env.SrcChain})
	if err != nil {
		l.log.Warn("Delivery failed", "msgHash", d.hash, "dest", d.env.DestChain, "err", err)
		l.fail(d)
		return
	}
	l.log.Info("Delivered message", "msgHash", d.hash, "src", d.env.SrcChain, "dest", d.env.DestChain)
	l.setOutcome(d.hash, StatusExecuted)
}

func (l *Loopback) fail(d delivery) {
	l.setOutcome(d.hash, StatusFailed)
	select {
	case l.failureCh(d.env.SrcChain) <- d.env:
	default:
		l.log.Error("Failure queue full, dropping notification", "msgHash", d.hash)
	}
}

// Failures exposes messages sent from the given chain whose delivery
// failed, for that chain's compensating release path.
func (l *Loopback) Failures(src msg.ChainId) <-chan msg.Envelope {
	return l.failureCh(src)
}

func (l *Loopback) failureCh(src msg.ChainId) chan msg.Envelope {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.failures[src]
	if !ok {
		ch = make(chan msg.Envelope, 64)
		l.failures[src] = ch
	}
	return ch
}

func (l *Loopback) setOutcome(h common.Hash, s Status) {
	l.mu.Lock()
	l.outcomes[h] = s
	l.mu.Unlock()
}

// Outcome reports the transport's record for a message hash.
func (l *Loopback) Outcome(h common.Hash) Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.outcomes[h]
}

// Flush blocks until every queued delivery has been attempted.
func (l *Loopback) Flush() {
	l.wg.Wait()
}

func (l *Loopback) Stop() {
	l.mu.Lock()
	if !l.stopped {
		l.stopped = true
		close(l.stop)
	}
	l.mu.Unlock()
}

// Proof issues a non-execution proof for a failed message.
func (l *Loopback) Proof(h common.Hash) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.outcomes[h] {
	case StatusUnknown:
		return nil, errors.Wrapf(constant.ErrUnknownMessage, "msgHash %s", h)
	case StatusFailed:
		return proofBytes(h), nil
	default:
		return nil, errors.Wrapf(constant.ErrProofInvalid, "message %s is not failed", h)
	}
}

// Verify checks a non-execution proof against the exact message content it
// was issued for: the presented envelope must match, byte for byte, the one
// accepted at Send under that hash.
func (l *Loopback) Verify(env *msg.Envelope, proof []byte) error {
	l.mu.Lock()
	status := l.outcomes[env.Hash]
	recorded := l.contents[env.Hash]
	l.mu.Unlock()

	if status != StatusFailed {
		return errors.Wrapf(constant.ErrProofInvalid, "message %s did not fail", env.Hash)
	}
	enc, err := rlp.EncodeToBytes(env)
	if err != nil {
		return errors.Wrap(err, "encode envelope")
	}
	if !bytes.Equal(enc, recorded) {
		return errors.Wrap(constant.ErrProofInvalid, "envelope does not match the accepted message")
	}
	if !bytes.Equal(proof, proofBytes(env.Hash)) {
		return errors.Wrap(constant.ErrProofInvalid, "proof mismatch")
	}
	return nil
}

func proofBytes(h common.Hash) []byte {
	return crypto.Keccak256(h.Bytes(), []byte("non-execution"))
}
