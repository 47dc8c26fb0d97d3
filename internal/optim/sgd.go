// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/blas/blas32"

	"github.com/fern-ml/fern/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum:
//
//	v = momentum * v + grad
//	param = param - lr * v
//
// With momentum zero the velocity buffer is skipped entirely.
type SGD struct {
	params   map[string]*tensor.RawTensor
	lr       float64
	momentum float64

	// velocity buffers keyed by parameter identifier, allocated lazily on
	// the first step.
	velocity map[string]*tensor.RawTensor
}

// NewSGD creates an SGD optimizer over the given parameters (a model's
// state dict).
func NewSGD(params map[string]*tensor.RawTensor, lr, momentum float64) *SGD {
	return &SGD{
		params:   params,
		lr:       lr,
		momentum: momentum,
		velocity: make(map[string]*tensor.RawTensor),
	}
}

// Name returns "sgd".
func (s *SGD) Name() string { return "sgd" }

// LR returns the learning rate.
func (s *SGD) LR() float64 { return s.lr }

// SetLR changes the learning rate.
func (s *SGD) SetLR(lr float64) { s.lr = lr }

// Step applies one SGD update. Gradients are looked up by parameter
// tensor identity.
func (s *SGD) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) error {
	for _, name := range sortedNames(s.params) {
		param := s.params[name]
		grad, ok := grads[param]
		if !ok {
			continue
		}
		if !param.Shape().Equal(grad.Shape()) {
			return fmt.Errorf("parameter %q: gradient shape %v does not match parameter shape %v",
				name, grad.Shape(), param.Shape())
		}

		update := grad
		if s.momentum != 0 {
			v, ok := s.velocity[name]
			if !ok {
				v, _ = tensor.NewRaw(param.Shape(), param.DType(), param.Device())
				s.velocity[name] = v
			}
			if err := axpby(s.momentum, v, grad); err != nil {
				return fmt.Errorf("parameter %q: %w", name, err)
			}
			update = v
		}
		if err := axpy(-s.lr, update, param); err != nil {
			return fmt.Errorf("parameter %q: %w", name, err)
		}
	}
	return nil
}

// StateDict returns the velocity buffers keyed "velocity.{identifier}".
func (s *SGD) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor, len(s.velocity))
	for name, v := range s.velocity {
		state["velocity."+name] = v.Clone()
	}
	return state
}

// LoadStateDict restores velocity buffers saved by StateDict.
func (s *SGD) LoadStateDict(state map[string]*tensor.RawTensor) error {
	restored := make(map[string]*tensor.RawTensor, len(state))
	for key, v := range state {
		name, ok := strings.CutPrefix(key, "velocity.")
		if !ok {
			return fmt.Errorf("unknown optimizer state key %q", key)
		}
		param, ok := s.params[name]
		if !ok {
			return fmt.Errorf("optimizer state %q: no such parameter", key)
		}
		if !param.Shape().Equal(v.Shape()) {
			return fmt.Errorf("optimizer state %q: shape %v does not match parameter shape %v",
				key, v.Shape(), param.Shape())
		}
		restored[name] = v.Clone()
	}
	s.velocity = restored
	return nil
}

// axpy computes y += alpha * x in place.
func axpy(alpha float64, x, y *tensor.RawTensor) error {
	switch x.DType() {
	case tensor.Float32:
		blas32.Axpy(float32(alpha),
			blas32.Vector{N: x.NumElements(), Inc: 1, Data: x.AsFloat32()},
			blas32.Vector{N: y.NumElements(), Inc: 1, Data: y.AsFloat32()})
	case tensor.Float64:
		xd, yd := x.AsFloat64(), y.AsFloat64()
		for i := range yd {
			yd[i] += alpha * xd[i]
		}
	default:
		return fmt.Errorf("unsupported parameter dtype %s", x.DType())
	}
	return nil
}

// axpby computes y = beta * y + x in place.
func axpby(beta float64, y, x *tensor.RawTensor) error {
	switch y.DType() {
	case tensor.Float32:
		v := blas32.Vector{N: y.NumElements(), Inc: 1, Data: y.AsFloat32()}
		blas32.Scal(float32(beta), v)
		blas32.Axpy(1,
			blas32.Vector{N: x.NumElements(), Inc: 1, Data: x.AsFloat32()}, v)
	case tensor.Float64:
		yd, xd := y.AsFloat64(), x.AsFloat64()
		for i := range yd {
			yd[i] = beta*yd[i] + xd[i]
		}
	default:
		return fmt.Errorf("unsupported parameter dtype %s", y.DType())
	}
	return nil
}

func sortedNames(m map[string]*tensor.RawTensor) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
