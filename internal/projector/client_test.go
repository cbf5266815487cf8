package projector

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientPower(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lighting/api/v01/pj/power" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"power": PowerInit})
	}))
	defer srv.Close()

	c := NewClient(strings.TrimPrefix(srv.URL, "http://"), "admin", "pw")
	state, err := c.Power()
	if err != nil {
		t.Fatalf("Power failed: %v", err)
	}
	if state != PowerInit {
		t.Errorf("Expected INIT, got %s", state)
	}
}

func TestClientSetPowerBody(t *testing.T) {
	var gotMethod, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	}))
	defer srv.Close()

	c := NewClient(strings.TrimPrefix(srv.URL, "http://"), "admin", "pw")
	if err := c.SetPower(PowerOn); err != nil {
		t.Fatalf("SetPower failed: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Errorf("Expected PUT, got %s", gotMethod)
	}
	if gotBody != `{"power":"ON"}` {
		t.Errorf("Unexpected body %s", gotBody)
	}
}

func TestClientVolumeRange(t *testing.T) {
	c := NewClient("203.0.113.9", "admin", "pw")
	if err := c.SetVolume(21); err == nil {
		t.Error("Expected out-of-range error for volume 21")
	}
	if err := c.SetVolume(-1); err == nil {
		t.Error("Expected out-of-range error for volume -1")
	}
}

func TestClientNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(strings.TrimPrefix(srv.URL, "http://"), "admin", "bad")
	if _, err := c.Power(); err == nil {
		t.Error("Expected error on 401")
	}
}
