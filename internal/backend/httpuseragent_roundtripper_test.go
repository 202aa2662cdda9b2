package backend

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTransportUserAgent(t *testing.T) {
	var seen string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	rt, err := Transport(TransportOptions{HTTPUserAgent: "get-longhorn-backup-test"})
	if err != nil {
		t.Fatal(err)
	}

	client := &http.Client{Transport: rt}
	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status code: %d, got: %d", http.StatusOK, resp.StatusCode)
	}
	if seen != "get-longhorn-backup-test" {
		t.Errorf("Expected User-Agent: get-longhorn-backup-test, got: %s", seen)
	}
}

func TestTransportRootCertErrors(t *testing.T) {
	if _, err := Transport(TransportOptions{RootCertFilenames: []string{""}}); err == nil {
		t.Error("expected error for empty root certificate filename")
	}

	if _, err := Transport(TransportOptions{RootCertFilenames: []string{t.TempDir() + "/missing.pem"}}); err == nil {
		t.Error("expected error for missing root certificate file")
	}
}
