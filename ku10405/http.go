package ku10405

import (
	"encoding/json"
	"net/http"

	"github.com/nasa-jpl/ku10405/generichttp"
)

// TapRequest is the JSON payload of the /tap route.  Enable and Apply default
// to true when omitted, matching SetTap's common usage.
type TapRequest struct {
	Channel int   `json:"channel"`
	Mag     int   `json:"mag"`
	Phase   int   `json:"phase"`
	Enable  *bool `json:"enable"`
	Apply   *bool `json:"apply"`
}

// HTTPWrapper provides HTTP bindings on top of the underlying Go interface
type HTTPWrapper struct {
	// TC is the controller being wrapped
	TC *TapController

	// RouteTable maps method/path pairs to handlers
	RouteTable generichttp.RouteTable
}

// NewHTTPWrapper returns a new HTTP wrapper with the route table pre-configured
func NewHTTPWrapper(tc *TapController) HTTPWrapper {
	w := HTTPWrapper{TC: tc}
	rt := generichttp.RouteTable{
		generichttp.MethodPath{Method: http.MethodPost, Path: "/tap"}:   w.SetTap,
		generichttp.MethodPath{Method: http.MethodPost, Path: "/apply"}: w.Apply,
		generichttp.MethodPath{Method: http.MethodGet, Path: "/readback"}: generichttp.GetBool(func() (bool, error) {
			return tc.Readback(), nil
		}),
		generichttp.MethodPath{Method: http.MethodPost, Path: "/readback"}: generichttp.SetBool(func(b bool) error {
			tc.SetReadback(b)
			return nil
		}),
	}
	w.RouteTable = rt
	return w
}

// RT satisfies generichttp.HTTPer
func (h HTTPWrapper) RT() generichttp.RouteTable {
	return h.RouteTable
}

// SetTap decodes a TapRequest from the body and programs the tap.  Domain
// violations return 400, readback mismatches and bus faults 500.
func (h HTTPWrapper) SetTap(w http.ResponseWriter, r *http.Request) {
	req := TapRequest{}
	err := json.NewDecoder(r.Body).Decode(&req)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	enable := true
	if req.Enable != nil {
		enable = *req.Enable
	}
	apply := true
	if req.Apply != nil {
		apply = *req.Apply
	}
	err = h.TC.SetTap(req.Channel, req.Mag, req.Phase, enable, apply)
	if err != nil {
		if _, ok := err.(RangeError); ok {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Apply pulses the apply line, committing any taps programmed with apply false
func (h HTTPWrapper) Apply(w http.ResponseWriter, r *http.Request) {
	err := h.TC.Apply()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
