package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/openliq/nft-vault/internal/constant"
)

const DefaultConfigPath = "./config.json"

type Config struct {
	Chains []RawChainConfig `json:"chains"`
	Other  Construction     `json:"other,omitempty"`
}

type RawChainConfig struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Id   string `json:"id"`
	Db   string `json:"db"`
	Opts opt    `json:"opts"`
}

type opt struct {
	EventDb  string `json:"eventDb,omitempty"`
	GasLimit string `json:"gasLimit,omitempty"`
	FeeValue string `json:"feeValue,omitempty"`
}

type Construction struct {
	MonitorUrl     string `json:"monitor_url,omitempty"`
	AttestationUrl string `json:"attestation_url,omitempty"`
	Env            string `json:"env,omitempty"`
}

func Local(cfgFile string) (*Config, error) {
	var fig Config
	path := DefaultConfigPath
	if cfgFile != "" {
		path = cfgFile
	}

	err := loadConfig(path, &fig)
	if err != nil {
		return &fig, err
	}

	err = fig.validate()
	if err != nil {
		return nil, err
	}
	return &fig, nil
}

func loadConfig(file string, config *Config) error {
	ext := filepath.Ext(file)
	fp, err := filepath.Abs(file)
	if err != nil {
		return err
	}

	f, err := os.Open(filepath.Clean(fp))
	if err != nil {
		return err
	}

	if ext == ".json" {
		if err = json.NewDecoder(f).Decode(&config); err != nil {
			return err
		}
	} else {
		return fmt.Errorf("unrecognized extention: %s", ext)
	}

	return nil
}

func (c *Config) validate() error {
	for idx, chain := range c.Chains {
		if chain.Id == "" {
			return fmt.Errorf("required field chain.Id empty for chain %s", chain.Name)
		}
		if chain.Type == "" {
			c.Chains[idx].Type = constant.Vault
		}
		if chain.Name == "" {
			return fmt.Errorf("required field chain.Name empty for chain %s", chain.Id)
		}
	}
	return nil
}
