package generichttp_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nasa-jpl/ku10405/generichttp"
)

func TestSubMuxSanitize(t *testing.T) {
	cases := map[string]string{
		"omc/ku10405":    "/omc/ku10405",
		"/omc/ku10405":   "/omc/ku10405",
		"/omc/ku10405/":  "/omc/ku10405",
		"/omc/ku10405/*": "/omc/ku10405",
	}
	for in, want := range cases {
		if got := generichttp.SubMuxSanitize(in); got != want {
			t.Errorf("SubMuxSanitize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEndpointsSorted(t *testing.T) {
	rt := generichttp.RouteTable{
		generichttp.MethodPath{Method: http.MethodPost, Path: "/tap"}:  nil,
		generichttp.MethodPath{Method: http.MethodGet, Path: "/lock"}:  nil,
		generichttp.MethodPath{Method: http.MethodPost, Path: "/lock"}: nil,
	}
	eps := rt.Endpoints()
	if len(eps) != 3 {
		t.Fatalf("expected 3 endpoints, got %d", len(eps))
	}
	for i := 1; i < len(eps); i++ {
		if eps[i-1] > eps[i] {
			t.Fatalf("endpoints not sorted: %v", eps)
		}
	}
}

func TestGetBool(t *testing.T) {
	h := generichttp.GetBool(func() (bool, error) { return true, nil })
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var b struct {
		Bool bool `json:"bool"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatal(err)
	}
	if !b.Bool {
		t.Fatal("expected true payload")
	}
}

func TestGetBoolError(t *testing.T) {
	h := generichttp.GetBool(func() (bool, error) { return false, errors.New("broken") })
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestSetBool(t *testing.T) {
	var got bool
	h := generichttp.SetBool(func(b bool) error { got = b; return nil })
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"bool": true}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !got {
		t.Fatal("setter did not receive true")
	}
}

func TestSetBoolBadBody(t *testing.T) {
	h := generichttp.SetBool(func(bool) error { return nil })
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not json")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
