// Package factory deploys wrapped-token handlers at deterministic addresses
// derived from the canonical descriptor, so every chain and every replay
// converges on the same local address for the same canonical token.
package factory

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/openliq/nft-vault/internal/constant"
	"github.com/openliq/nft-vault/internal/registry"
	"github.com/openliq/nft-vault/internal/token"
	"github.com/openliq/nft-vault/pkg/msg"
)

// wrappedCodeHash pins the handler "code" the deterministic address commits
// to, so the derivation matches the CREATE2 form.
var wrappedCodeHash = crypto.Keccak256Hash([]byte("nft-vault/wrapped-nft/v1"))

// DeployedEvent is emitted once per canonical token per chain, when its
// wrapped counterpart is instantiated.
type DeployedEvent struct {
	ChainId        msg.ChainId
	CanonicalToken common.Address
	BridgedToken   common.Address
	Symbol         string
	Name           string
}

type Factory struct {
	vault    common.Address
	reg      *registry.Registry
	bindings *token.Bindings
	log      log.Logger
	feed     event.Feed
}

func New(vault common.Address, reg *registry.Registry, bindings *token.Bindings) *Factory {
	return &Factory{
		vault:    vault,
		reg:      reg,
		bindings: bindings,
		log:      log.New("system", "factory"),
	}
}

// Salt derives the deployment salt from the descriptor's identity fields.
// The fixed-width concatenation makes it injective over (chainId, address).
func Salt(d msg.CanonicalDescriptor) common.Hash {
	return crypto.Keccak256Hash(d.Key())
}

// DeterministicAddress is a pure function of (homeChainId, token): the same
// canonical token yields the same wrapped address regardless of deployment
// order, caller, or replay count.
func (f *Factory) DeterministicAddress(d msg.CanonicalDescriptor) common.Address {
	h := crypto.Keccak256(
		[]byte{0xff},
		f.vault.Bytes(),
		Salt(d).Bytes(),
		wrappedCodeHash.Bytes(),
	)
	return common.BytesToAddress(h[12:])
}

// GetOrDeploy returns the wrapped handler address for d, instantiating and
// registering it on first use.
func (f *Factory) GetOrDeploy(d msg.CanonicalDescriptor) (common.Address, error) {
	if addr, ok := f.reg.WrappedOf(d.ChainId, d.Token); ok {
		// Registry entries survive restarts; the in-memory handler does
		// not. Rebind before handing the address back.
		if _, bound := f.bindings.Get(addr); !bound {
			if err := f.bindings.Bind(addr, f.newWrapped(d)); err != nil {
				return constant.ZeroAddress, errors.Wrap(err, "rebind wrapped handler")
			}
		}
		return addr, nil
	}

	addr := f.DeterministicAddress(d)
	if err := f.bindings.Bind(addr, f.newWrapped(d)); err != nil {
		return constant.ZeroAddress, errors.Wrapf(constant.ErrDeploymentFailed, "address %s occupied", addr)
	}
	if err := f.reg.Register(addr, d); err != nil {
		return constant.ZeroAddress, errors.Wrap(err, "register wrapped token")
	}

	f.log.Info("Deployed bridged token", "canonical", d.Token, "homeChain", d.ChainId, "bridged", addr, "symbol", d.Symbol)
	f.feed.Send(DeployedEvent{
		ChainId:        d.ChainId,
		CanonicalToken: d.Token,
		BridgedToken:   addr,
		Symbol:         d.Symbol,
		Name:           d.Name,
	})
	return addr, nil
}

func (f *Factory) newWrapped(d msg.CanonicalDescriptor) token.Wrapped {
	w := token.NewWrapped()
	// Init cannot fail on a fresh handler.
	_ = w.Init(token.InitParams{
		Manager:  f.vault,
		SrcToken: d.Token,
		SrcChain: d.ChainId,
		Symbol:   d.Symbol,
		// Decorate the display name so the wrapper is visually distinct
		// from the canonical collection.
		Name:    fmt.Sprintf("%s (bridged from %d)", d.Name, d.ChainId),
		BaseURI: d.BaseURI,
	})
	return w
}

// SubscribeDeployed registers a sink for deployment events.
func (f *Factory) SubscribeDeployed(ch chan<- DeployedEvent) event.Subscription {
	return f.feed.Subscribe(ch)
}
