// Package attest fetches non-execution attestations from the transport
// operator's HTTP service, for feeding into the release protocol.
package attest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Attester fetches the non-execution attestation for a message hash.
type Attester interface {
	GetProof(hash string) (*Resp, error)
}

// Resp is the attestation service's answer for one message hash.
type Resp struct {
	Proof  string `json:"proof"`
	Status string `json:"status"`
}

type attest struct {
	endpoint string
	client   *http.Client
}

func New(url string) Attester {
	return &attest{
		endpoint: url,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *attest) GetProof(hash string) (*Resp, error) {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/%s", a.endpoint, hash), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("attestation service returned %s", res.Status)
	}

	ret := &Resp{}
	if err := json.NewDecoder(res.Body).Decode(ret); err != nil {
		return nil, errors.Wrap(err, "decode attestation")
	}
	return ret, nil
}
