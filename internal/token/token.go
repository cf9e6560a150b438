// Package token defines the token-standard collaborator surface the vault
// custody protocol drives, plus an in-process non-fungible implementation
// used for wrapped handlers.
package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/openliq/nft-vault/pkg/msg"
)

// Token is the minimum surface a bridgeable token contract exposes.
type Token interface {
	// SupportsInterface is the capability probe run before any custody
	// change.
	SupportsInterface(id [4]byte) bool
	Symbol() string
	Name() string
	OwnerOf(id *big.Int) (common.Address, bool)
	TransferFrom(from, to common.Address, id *big.Int) error
}

// InitParams seeds a freshly deployed wrapped token. Init is called exactly
// once, by the factory.
type InitParams struct {
	Manager  common.Address
	SrcToken common.Address
	SrcChain msg.ChainId
	Symbol   string
	Name     string
	BaseURI  string
}

// Wrapped is a locally deployed representation of a canonical token,
// mintable and burnable only by the protocol that deployed it.
type Wrapped interface {
	Token
	Init(p InitParams) error
	Mint(to common.Address, id *big.Int) error
	Burn(from common.Address, id *big.Int) error
	Manager() common.Address
	Source() (common.Address, msg.ChainId)
}
