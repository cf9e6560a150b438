package constant

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// Vault is the default chain node type in the config file.
	Vault = "vault"

	RetryInterval      = time.Second * 3
	QueryRetryInterval = time.Second * 10
)

var (
	ZeroAddress = common.Address{}

	// OnlineChainId maps a running chain id to its configured name, for alarms.
	OnlineChainId = make(map[string]string)
)

// ERC721InterfaceId is the capability probe value every bridgeable token
// contract must answer true for.
var ERC721InterfaceId = [4]byte{0x80, 0xac, 0x58, 0xcd}

// Validation errors, rejected before any state change.
var (
	ErrUnsupportedToken = errors.New("token does not support the required interface")
	ErrInvalidChain     = errors.New("destination chain id is invalid")
	ErrInvalidRecipient = errors.New("recipient address is invalid")
	ErrInvalidToken     = errors.New("token address is invalid")
	ErrEmptyBatch       = errors.New("token id batch is empty")
	ErrDuplicateTokenId = errors.New("duplicate token id in batch")
)

// Ownership and custody errors.
var (
	ErrNotOwner           = errors.New("caller does not own token id")
	ErrVaultOwnerMismatch = errors.New("vault does not hold token id")
)

// Registry and factory errors.
var (
	ErrCanonicalNotFound  = errors.New("no canonical descriptor for wrapped token")
	ErrDescriptorConflict = errors.New("wrapped address already bound to a different canonical token")
	ErrDeploymentFailed   = errors.New("deterministic address already occupied")
	ErrAlreadyInit        = errors.New("wrapped token already initialized")
	ErrNotManager         = errors.New("caller is not the token manager")
	ErrUnknownToken       = errors.New("no token bound at address")
	ErrTokenAlreadyBound  = errors.New("token already bound at address")
)

// Authorization and settlement errors.
var (
	ErrNotTransport     = errors.New("caller is not the message transport")
	ErrInvalidOwner     = errors.New("message owner is the zero address")
	ErrWrongSourceChain = errors.New("message was not sent from this chain")
	ErrAlreadySettled   = errors.New("message already received or released")
	ErrUnknownMessage   = errors.New("message hash is unknown")
	ErrZeroAddress      = errors.New("name resolved to the zero address")
	ErrProofInvalid     = errors.New("non-execution proof is invalid")
)
