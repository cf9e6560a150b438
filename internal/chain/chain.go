package chain

import (
	"errors"

	"github.com/ethereum/go-ethereum/log"

	"github.com/openliq/nft-vault/config"
	"github.com/openliq/nft-vault/internal/attest"
	"github.com/openliq/nft-vault/internal/constant"
	"github.com/openliq/nft-vault/internal/resolver"
	"github.com/openliq/nft-vault/internal/transport"
)

type Chainer interface {
	Id() string
	Name() string
	Start() error // Start chain
	Stop()
}

// Init builds one vault node per configured chain, all wired to a shared
// transport and name resolver.
func Init(cfg *config.Config, l log.Logger) ([]Chainer, error) {
	lb := transport.NewLoopback()
	res := resolver.New()

	var att attest.Attester
	if cfg.Other.AttestationUrl != "" {
		att = attest.New(cfg.Other.AttestationUrl)
	}

	ret := make([]Chainer, 0)
	for _, ccfg := range cfg.Chains {
		var (
			err error
			c   Chainer
		)

		ele := ccfg
		switch ccfg.Type {
		case constant.Vault:
			c, err = newNode(&ele, l, lb, res, att)
		default:
			return nil, errors.New("unrecognized Chain Type")
		}
		if err != nil {
			return nil, err
		}
		ret = append(ret, c)
		constant.OnlineChainId[ccfg.Id] = ccfg.Name
	}
	return ret, nil
}
