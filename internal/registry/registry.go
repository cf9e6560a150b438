// Package registry owns the bidirectional association between canonical
// tokens and their locally deployed wrapped counterparts. Entries are
// created once, by the factory, and never deleted or reassigned.
package registry

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/openliq/nft-vault/internal/constant"
	"github.com/openliq/nft-vault/pkg/msg"
	"github.com/openliq/nft-vault/pkg/store"
)

type Registry struct {
	mu        sync.RWMutex
	log       log.Logger
	wrapped   *store.Store // wrapped address -> rlp(descriptor)
	canonical *store.Store // descriptor key  -> wrapped address
	byWrapped map[common.Address]msg.CanonicalDescriptor
	byCanon   map[string]common.Address
}

// New builds a registry over db, reloading any persisted associations.
func New(db ethdb.KeyValueStore) (*Registry, error) {
	r := &Registry{
		log:       log.New("system", "registry"),
		wrapped:   store.New(db, "wrapped:"),
		canonical: store.New(db, "canon:"),
		byWrapped: make(map[common.Address]msg.CanonicalDescriptor),
		byCanon:   make(map[string]common.Address),
	}
	if err := r.load(); err != nil {
		return nil, errors.Wrap(err, "load registry")
	}
	return r, nil
}

func (r *Registry) load() error {
	var decodeErr error
	err := r.wrapped.Each(func(k, v []byte) bool {
		var d msg.CanonicalDescriptor
		if decodeErr = rlp.DecodeBytes(v, &d); decodeErr != nil {
			return false
		}
		addr := common.BytesToAddress(k)
		r.byWrapped[addr] = d
		r.byCanon[string(d.Key())] = addr
		return true
	})
	if decodeErr != nil {
		return decodeErr
	}
	return err
}

func (r *Registry) IsWrapped(addr common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byWrapped[addr]
	return ok
}

// CanonicalOf returns the descriptor a local wrapped address represents.
func (r *Registry) CanonicalOf(addr common.Address) (msg.CanonicalDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byWrapped[addr]
	return d, ok
}

// WrappedOf returns the local wrapped address for a canonical token.
func (r *Registry) WrappedOf(chainId msg.ChainId, tok common.Address) (common.Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d := msg.CanonicalDescriptor{ChainId: chainId, Token: tok}
	addr, ok := r.byCanon[string(d.Key())]
	return addr, ok
}

// Register binds a wrapped address to its canonical descriptor. Registering
// the same pair again is a no-op; a conflicting descriptor for an already
// bound address is a hard failure, never an overwrite.
func (r *Registry) Register(wrapped common.Address, d msg.CanonicalDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byWrapped[wrapped]; ok {
		if prev.Equal(d) {
			return nil
		}
		return errors.Wrapf(constant.ErrDescriptorConflict, "wrapped %s", wrapped)
	}
	if prev, ok := r.byCanon[string(d.Key())]; ok && prev != wrapped {
		return errors.Wrapf(constant.ErrDescriptorConflict, "canonical %s on chain %d", d.Token, d.ChainId)
	}

	enc, err := rlp.EncodeToBytes(&d)
	if err != nil {
		return errors.Wrap(err, "encode descriptor")
	}
	if err := r.wrapped.Put(wrapped.Bytes(), enc); err != nil {
		return errors.Wrap(err, "persist wrapped entry")
	}
	if err := r.canonical.Put(d.Key(), wrapped.Bytes()); err != nil {
		return errors.Wrap(err, "persist canonical entry")
	}

	r.byWrapped[wrapped] = d
	r.byCanon[string(d.Key())] = wrapped
	r.log.Debug("Registered bridged token", "wrapped", wrapped, "canonical", d.Token, "chain", d.ChainId)
	return nil
}
