// Package server contains the shared HTTP reply machinery used by the device
// wrappers.
package server

import (
	"encoding/json"
	"go/types"
	"net/http"
)

// FloatT is a strongly typed single field JSON shell, {"f64": value}
type FloatT struct {
	F64 float64 `json:"f64"`
}

// IntT is a strongly typed single field JSON shell, {"int": value}
type IntT struct {
	Int int `json:"int"`
}

// StrT is a strongly typed single field JSON shell, {"str": value}
type StrT struct {
	Str string `json:"str"`
}

// BoolT is a strongly typed single field JSON shell, {"bool": value}
type BoolT struct {
	Bool bool `json:"bool"`
}

// HumanPayload carries one value of a basic kind without resorting to
// reflection.  Only the field matching T is consulted.
type HumanPayload struct {
	// T is the kind of the payload
	T types.BasicKind

	// Int is the value when T == types.Int
	Int int

	// Float is the value when T == types.Float64
	Float float64

	// String is the value when T == types.String
	String string

	// Bool is the value when T == types.Bool
	Bool bool
}

// EncodeAndRespond writes the payload to w as its JSON shell with an OK
// status.
func (hp HumanPayload) EncodeAndRespond(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	var err error
	switch hp.T {
	case types.Bool:
		err = json.NewEncoder(w).Encode(BoolT{Bool: hp.Bool})
	case types.Int:
		err = json.NewEncoder(w).Encode(IntT{Int: hp.Int})
	case types.Float64:
		err = json.NewEncoder(w).Encode(FloatT{F64: hp.Float})
	case types.String:
		err = json.NewEncoder(w).Encode(StrT{Str: hp.String})
	default:
		http.Error(w, "payload kind not supported", http.StatusInternalServerError)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
