// Package vault implements the custody and bridged-token issuance protocol:
// Send locks or burns a batch on this chain and emits a cross-chain message,
// Receive reconstructs the batch when the transport executes a message here,
// and Release returns custody when a message provably failed to execute.
package vault

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/openliq/nft-vault/internal/constant"
	"github.com/openliq/nft-vault/internal/factory"
	"github.com/openliq/nft-vault/internal/registry"
	"github.com/openliq/nft-vault/internal/resolver"
	"github.com/openliq/nft-vault/internal/token"
	"github.com/openliq/nft-vault/internal/transport"
	"github.com/openliq/nft-vault/pkg/msg"
	"github.com/openliq/nft-vault/pkg/store"
)

// Settlement status per message hash: Sent is set by Send, and exactly one
// of Received or Released may follow. Both are terminal.
const (
	statusSent     byte = 1
	statusReceived byte = 2
	statusReleased byte = 3
)

type Vault struct {
	chainId   msg.ChainId
	address   common.Address
	log       log.Logger
	reg       *registry.Registry
	fac       *factory.Factory
	bindings  *token.Bindings
	transport transport.Transport
	resolver  *resolver.Resolver
	settled   *store.Store

	// entry serializes Send/Receive/Release so a token callback cannot
	// re-enter the protocol mid-call.
	entry sync.Mutex

	sentFeed event.Feed
	recvFeed event.Feed
	relFeed  event.Feed
}

// HoldingAddress derives the vault's own custody account for a chain. It is
// a pure function of the chain id so both sides of a pair can predict it.
func HoldingAddress(chainId msg.ChainId) common.Address {
	var be [8]byte
	for i := 0; i < 8; i++ {
		be[7-i] = byte(uint64(chainId) >> (8 * i))
	}
	h := crypto.Keccak256([]byte("nft-vault/holding"), be[:])
	return common.BytesToAddress(h[12:])
}

func New(chainId msg.ChainId, db ethdb.KeyValueStore, reg *registry.Registry,
	bindings *token.Bindings, t transport.Transport, res *resolver.Resolver) *Vault {
	v := &Vault{
		chainId:   chainId,
		address:   HoldingAddress(chainId),
		log:       log.New("system", "vault", "chain", chainId),
		reg:       reg,
		bindings:  bindings,
		transport: t,
		resolver:  res,
		settled:   store.New(db, "settle:"),
	}
	v.fac = factory.New(v.address, reg, bindings)
	return v
}

func (v *Vault) ChainId() msg.ChainId {
	return v.chainId
}

// Address is the vault's token-holding account on its chain.
func (v *Vault) Address() common.Address {
	return v.address
}

func (v *Vault) Factory() *factory.Factory {
	return v.fac
}

// Endpoint returns the handle the transport executes deliveries through.
// Receive is reachable only via this handle, which reproduces the "callable
// only by the transport" restriction structurally.
func (v *Vault) Endpoint() transport.Endpoint {
	return endpoint{v: v}
}

type endpoint struct {
	v *Vault
}

func (e endpoint) Receive(payload []byte, ctx transport.Context) error {
	return e.v.receive(payload, ctx)
}

// settlementOf returns the recorded status for a message hash. Sent records
// additionally carry the keccak of the payload they were emitted with.
func (v *Vault) settlementOf(h common.Hash) (byte, []byte, bool, error) {
	raw, ok, err := v.settled.Get(h.Bytes())
	if err != nil || !ok {
		return 0, nil, false, err
	}
	switch len(raw) {
	case 1:
		return raw[0], nil, true, nil
	case 1 + common.HashLength:
		return raw[0], raw[1:], true, nil
	}
	return 0, nil, false, errors.Errorf("corrupt settlement record for %s", h)
}

func (v *Vault) setSettlement(h common.Hash, s byte) error {
	return v.settled.Put(h.Bytes(), []byte{s})
}

// markSent records the Sent status together with the payload hash, so a
// later Release can reject an envelope whose content was swapped under a
// legitimately failed message hash.
func (v *Vault) markSent(h common.Hash, payload []byte) error {
	rec := make([]byte, 0, 1+common.HashLength)
	rec = append(rec, statusSent)
	rec = append(rec, crypto.Keccak256(payload)...)
	return v.settled.Put(h.Bytes(), rec)
}

// journal collects the inverse of every custody mutation applied so far in
// a call, so a late failure unwinds the whole batch.
type journal struct {
	undo []func() error
}

func (j *journal) add(fn func() error) {
	j.undo = append(j.undo, fn)
}

func (j *journal) revert(l log.Logger) {
	for i := len(j.undo) - 1; i >= 0; i-- {
		if err := j.undo[i](); err != nil {
			l.Error("Failed to unwind custody change", "err", err)
		}
	}
}

func validateBatch(ids []*big.Int) error {
	if len(ids) == 0 {
		return constant.ErrEmptyBatch
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == nil {
			return errors.New("nil token id in batch")
		}
		k := id.String()
		if _, ok := seen[k]; ok {
			return errors.Wrapf(constant.ErrDuplicateTokenId, "token id %s", id)
		}
		seen[k] = struct{}{}
	}
	return nil
}
