package core

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"

	"github.com/openliq/nft-vault/internal/chain"
)

type Core struct {
	Registry []chain.Chainer
	log      log.Logger
	sysErr   <-chan error
}

func New(sysErr <-chan error) *Core {
	return &Core{
		Registry: make([]chain.Chainer, 0),
		log:      log.New("system", "core"),
		sysErr:   sysErr,
	}
}

// AddChain registers the chain in the Registry
func (c *Core) AddChain(chain chain.Chainer) {
	c.Registry = append(c.Registry, chain)
}

// Start will call all registered chains' Start methods and block forever (or until signal is received)
func (c *Core) Start() {
	for _, ch := range c.Registry {
		err := ch.Start()
		if err != nil {
			c.log.Error("failed to start chain", "chain", ch.Id(), "err", err)
			return
		}
		c.log.Info(fmt.Sprintf("Started %s chain", ch.Name()))
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	// Block here and wait for a signal
	select {
	case err := <-c.sysErr:
		c.log.Error("FATAL ERROR. Shutting down.", "err", err)
	case <-sigc:
		c.log.Warn("Interrupt received, shutting down now.")
	}

	// Signal chains to shutdown
	for _, ch := range c.Registry {
		ch.Stop()
	}
}

func (c *Core) Errors() <-chan error {
	return c.sysErr
}
