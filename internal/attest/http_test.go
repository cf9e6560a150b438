package attest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetProof(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/0xabc") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"proof": "0xdeadbeef", "status": "complete"}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL).GetProof("0xabc")
	if err != nil {
		t.Fatalf("get proof: %v", err)
	}
	if res.Proof != "0xdeadbeef" || res.Status != "complete" {
		t.Errorf("bad response: %+v", res)
	}
}

func TestGetProofServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := New(srv.URL).GetProof("0xabc"); err == nil {
		t.Error("server error must surface")
	}
}

func TestGetProofBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	if _, err := New(srv.URL).GetProof("0xabc"); err == nil {
		t.Error("malformed body must surface")
	}
}
