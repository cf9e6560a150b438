package chain

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/openliq/nft-vault/config"
	"github.com/openliq/nft-vault/internal/attest"
	"github.com/openliq/nft-vault/internal/constant"
	"github.com/openliq/nft-vault/internal/indexer"
	"github.com/openliq/nft-vault/internal/registry"
	"github.com/openliq/nft-vault/internal/resolver"
	"github.com/openliq/nft-vault/internal/token"
	"github.com/openliq/nft-vault/internal/transport"
	"github.com/openliq/nft-vault/internal/vault"
	"github.com/openliq/nft-vault/pkg/msg"
	"github.com/openliq/nft-vault/pkg/store"
	"github.com/openliq/nft-vault/pkg/utils"
)

// node is one chain's worth of protocol state: the vault, its registry and
// token bindings, the durable store behind them, and the event indexer.
type node struct {
	cfg     *config.RawChainConfig
	chainId msg.ChainId
	log     log.Logger
	db      ethdb.Database
	v       *vault.Vault
	ix      *indexer.Indexer
	lb      *transport.Loopback
	att     attest.Attester
	stop    chan struct{}
}

func newNode(cfg *config.RawChainConfig, l log.Logger, lb *transport.Loopback,
	res *resolver.Resolver, att attest.Attester) (Chainer, error) {
	id, err := strconv.ParseUint(cfg.Id, 10, 64)
	if err != nil || id == 0 {
		return nil, errors.Errorf("invalid chain id %q", cfg.Id)
	}
	chainId := msg.ChainId(id)

	db, err := store.Open(cfg.Db)
	if err != nil {
		return nil, errors.Wrap(err, "open chain db")
	}
	reg, err := registry.New(db)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "build registry")
	}

	bindings := token.NewBindings()
	v := vault.New(chainId, db, reg, bindings, lb, res)
	lb.Listen(chainId, v.Endpoint())
	res.Register(chainId, resolver.NameVault, v.Address())

	n := &node{
		cfg:     cfg,
		chainId: chainId,
		log:     l.New("chain", cfg.Name),
		db:      db,
		v:       v,
		lb:      lb,
		att:     att,
		stop:    make(chan struct{}),
	}
	if cfg.Opts.EventDb != "" {
		n.ix, err = indexer.New(cfg.Opts.EventDb, v)
		if err != nil {
			db.Close()
			return nil, errors.Wrap(err, "build indexer")
		}
	}
	return n, nil
}

func (n *node) Id() string {
	return n.cfg.Id
}

func (n *node) Name() string {
	return n.cfg.Name
}

// Vault exposes the node's protocol entry points to embedders.
func (n *node) Vault() *vault.Vault {
	return n.v
}

func (n *node) Start() error {
	if n.ix != nil {
		n.ix.Start()
	}
	go n.watchProgress()
	go n.compensate()
	n.log.Info("Starting vault node ...", "chain", n.chainId)
	return nil
}

func (n *node) Stop() {
	close(n.stop)
	if n.ix != nil {
		n.ix.Stop()
	}
	if err := n.db.Close(); err != nil {
		n.log.Error("Failed to close chain db", "err", err)
	}
}

// watchProgress feeds the alarm watchdog whenever this chain sends.
func (n *node) watchProgress() {
	ch := make(chan vault.SentEvent, 16)
	sub := n.v.SubscribeSent(ch)
	defer sub.Unsubscribe()
	for {
		select {
		case <-n.stop:
			return
		case <-ch:
			utils.AddProgress(n.cfg.Id)
		}
	}
}

// compensate releases batches whose outgoing message provably failed to
// execute on its destination.
func (n *node) compensate() {
	failures := n.lb.Failures(n.chainId)
	for {
		select {
		case <-n.stop:
			return
		case env := <-failures:
			n.release(env)
		}
	}
}

func (n *node) release(env msg.Envelope) {
	var errorCount int
	for {
		proof, err := n.proofFor(env.Hash)
		if err == nil {
			err = n.v.Release(&env, proof)
		}
		if err == nil {
			n.log.Info("Released failed transfer", "msgHash", env.Hash)
			return
		}
		if errors.Is(err, constant.ErrAlreadySettled) {
			n.log.Warn("Message already settled, skipping release", "msgHash", env.Hash)
			return
		}
		n.log.Warn("Release failed, will retry", "msgHash", env.Hash, "err", err)
		errorCount++
		if errorCount >= 10 {
			utils.Alarm(context.Background(), fmt.Sprintf("release %s failed on chain %s, err is %s", env.Hash, n.cfg.Id, err.Error()))
			return
		}
		select {
		case <-n.stop:
			return
		case <-time.After(constant.RetryInterval):
		}
	}
}

func (n *node) proofFor(hash common.Hash) ([]byte, error) {
	if n.att != nil {
		res, err := n.att.GetProof(hash.Hex())
		if err != nil {
			return nil, err
		}
		return common.FromHex(res.Proof), nil
	}
	return n.lb.Proof(hash)
}
