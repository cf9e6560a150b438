// Package resolver is the name-to-address collaborator: per-chain lookup of
// the paired vault contracts and the local transport.
package resolver

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/openliq/nft-vault/internal/constant"
	"github.com/openliq/nft-vault/pkg/msg"
)

const (
	NameVault     = "vault"
	NameTransport = "transport"
)

type key struct {
	chain msg.ChainId
	name  string
}

type Resolver struct {
	mu sync.RWMutex
	m  map[key]common.Address
}

func New() *Resolver {
	return &Resolver{m: make(map[key]common.Address)}
}

func (r *Resolver) Register(chain msg.ChainId, name string, addr common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[key{chain: chain, name: name}] = addr
}

// Resolve returns the address registered under (chain, name). A zero result
// is an error unless allowZero is set.
func (r *Resolver) Resolve(chain msg.ChainId, name string, allowZero bool) (common.Address, error) {
	r.mu.RLock()
	addr := r.m[key{chain: chain, name: name}]
	r.mu.RUnlock()

	if addr == constant.ZeroAddress && !allowZero {
		return constant.ZeroAddress, errors.Wrapf(constant.ErrZeroAddress, "%s on chain %d", name, chain)
	}
	return addr, nil
}
