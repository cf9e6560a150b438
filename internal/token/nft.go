package token

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/openliq/nft-vault/internal/constant"
	"github.com/openliq/nft-vault/pkg/msg"
)

// NFT is an in-process non-fungible token ledger. A pre-initialized instance
// stands in for a canonical collection; an uninitialized one is what the
// factory deploys and Inits as a wrapped handler.
type NFT struct {
	mu      sync.RWMutex
	symbol  string
	name    string
	baseURI string
	owners  map[string]common.Address

	inited   bool
	manager  common.Address
	srcToken common.Address
	srcChain msg.ChainId
}

// NewNFT returns a canonical collection with metadata already set.
func NewNFT(symbol, name, baseURI string) *NFT {
	return &NFT{
		symbol:  symbol,
		name:    name,
		baseURI: baseURI,
		owners:  make(map[string]common.Address),
		inited:  true,
	}
}

// NewWrapped returns an empty handler; Init must run before first use.
func NewWrapped() *NFT {
	return &NFT{owners: make(map[string]common.Address)}
}

func (n *NFT) Init(p InitParams) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.inited {
		return constant.ErrAlreadyInit
	}
	n.manager = p.Manager
	n.srcToken = p.SrcToken
	n.srcChain = p.SrcChain
	n.symbol = p.Symbol
	n.name = p.Name
	n.baseURI = p.BaseURI
	n.inited = true
	return nil
}

func (n *NFT) SupportsInterface(id [4]byte) bool {
	return id == constant.ERC721InterfaceId
}

func (n *NFT) Symbol() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.symbol
}

func (n *NFT) Name() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.name
}

// TokenURI renders the content URI for an id from the collection template.
func (n *NFT) TokenURI(id *big.Int) string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.baseURI + id.String()
}

// Manager is the vault that deployed this wrapper and alone may mint or
// burn it. Zero for canonical collections.
func (n *NFT) Manager() common.Address {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.manager
}

func (n *NFT) Source() (common.Address, msg.ChainId) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.srcToken, n.srcChain
}

func (n *NFT) OwnerOf(id *big.Int) (common.Address, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	owner, ok := n.owners[id.String()]
	return owner, ok
}

func (n *NFT) TransferFrom(from, to common.Address, id *big.Int) error {
	if to == constant.ZeroAddress {
		return constant.ErrInvalidRecipient
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	owner, ok := n.owners[id.String()]
	if !ok || owner != from {
		return errors.Wrapf(constant.ErrNotOwner, "token id %s", id)
	}
	n.owners[id.String()] = to
	return nil
}

// Mint assigns a fresh id to the recipient. Ids are never reused while live,
// so an existing owner means a protocol violation upstream.
func (n *NFT) Mint(to common.Address, id *big.Int) error {
	if to == constant.ZeroAddress {
		return constant.ErrInvalidRecipient
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.owners[id.String()]; ok {
		return errors.Wrapf(constant.ErrTokenAlreadyBound, "token id %s", id)
	}
	n.owners[id.String()] = to
	return nil
}

func (n *NFT) Burn(from common.Address, id *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	owner, ok := n.owners[id.String()]
	if !ok || owner != from {
		return errors.Wrapf(constant.ErrNotOwner, "token id %s", id)
	}
	delete(n.owners, id.String())
	return nil
}
