// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"fmt"
	"math"
	"strings"

	"github.com/fern-ml/fern/internal/tensor"
)

// Adam implements the Adam optimizer (Kingma & Ba, 2015) with bias
// correction:
//
//	m = beta1 * m + (1 - beta1) * grad
//	v = beta2 * v + (1 - beta2) * grad²
//	param -= lr * m_hat / (sqrt(v_hat) + eps)
type Adam struct {
	params map[string]*tensor.RawTensor
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64

	step int
	m    map[string]*tensor.RawTensor
	v    map[string]*tensor.RawTensor
}

// NewAdam creates an Adam optimizer with the standard defaults
// beta1=0.9, beta2=0.999, eps=1e-8.
func NewAdam(params map[string]*tensor.RawTensor, lr float64) *Adam {
	return &Adam{
		params: params,
		lr:     lr,
		beta1:  0.9,
		beta2:  0.999,
		eps:    1e-8,
		m:      make(map[string]*tensor.RawTensor),
		v:      make(map[string]*tensor.RawTensor),
	}
}

// Name returns "adam".
func (a *Adam) Name() string { return "adam" }

// LR returns the learning rate.
func (a *Adam) LR() float64 { return a.lr }

// SetLR changes the learning rate.
func (a *Adam) SetLR(lr float64) { a.lr = lr }

// SetStep sets the bias-correction step counter, used when resuming from
// a checkpoint.
func (a *Adam) SetStep(step int) { a.step = step }

// Step applies one Adam update.
func (a *Adam) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) error {
	a.step++
	bc1 := 1 - math.Pow(a.beta1, float64(a.step))
	bc2 := 1 - math.Pow(a.beta2, float64(a.step))

	for _, name := range sortedNames(a.params) {
		param := a.params[name]
		grad, ok := grads[param]
		if !ok {
			continue
		}
		if !param.Shape().Equal(grad.Shape()) {
			return fmt.Errorf("parameter %q: gradient shape %v does not match parameter shape %v",
				name, grad.Shape(), param.Shape())
		}

		if _, ok := a.m[name]; !ok {
			a.m[name], _ = tensor.NewRaw(param.Shape(), param.DType(), param.Device())
			a.v[name], _ = tensor.NewRaw(param.Shape(), param.DType(), param.Device())
		}

		switch param.DType() {
		case tensor.Float32:
			p, g := param.AsFloat32(), grad.AsFloat32()
			m, v := a.m[name].AsFloat32(), a.v[name].AsFloat32()
			for i := range p {
				gi := float64(g[i])
				mi := a.beta1*float64(m[i]) + (1-a.beta1)*gi
				vi := a.beta2*float64(v[i]) + (1-a.beta2)*gi*gi
				m[i], v[i] = float32(mi), float32(vi)
				p[i] -= float32(a.lr * (mi / bc1) / (math.Sqrt(vi/bc2) + a.eps))
			}
		case tensor.Float64:
			p, g := param.AsFloat64(), grad.AsFloat64()
			m, v := a.m[name].AsFloat64(), a.v[name].AsFloat64()
			for i := range p {
				mi := a.beta1*m[i] + (1-a.beta1)*g[i]
				vi := a.beta2*v[i] + (1-a.beta2)*g[i]*g[i]
				m[i], v[i] = mi, vi
				p[i] -= a.lr * (mi / bc1) / (math.Sqrt(vi/bc2) + a.eps)
			}
		default:
			return fmt.Errorf("parameter %q: unsupported dtype %s", name, param.DType())
		}
	}
	return nil
}

// StateDict returns the moment buffers keyed "m.{identifier}" and
// "v.{identifier}". The step counter is stored in training metadata, not
// here.
func (a *Adam) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor, 2*len(a.m))
	for name, m := range a.m {
		state["m."+name] = m.Clone()
	}
	for name, v := range a.v {
		state["v."+name] = v.Clone()
	}
	return state
}

// LoadStateDict restores moment buffers saved by StateDict.
func (a *Adam) LoadStateDict(state map[string]*tensor.RawTensor) error {
	m := make(map[string]*tensor.RawTensor)
	v := make(map[string]*tensor.RawTensor)
	for key, t := range state {
		var dst map[string]*tensor.RawTensor
		var name string
		switch {
		case strings.HasPrefix(key, "m."):
			dst, name = m, key[2:]
		case strings.HasPrefix(key, "v."):
			dst, name = v, key[2:]
		default:
			return fmt.Errorf("unknown optimizer state key %q", key)
		}
		param, ok := a.params[name]
		if !ok {
			return fmt.Errorf("optimizer state %q: no such parameter", key)
		}
		if !param.Shape().Equal(t.Shape()) {
			return fmt.Errorf("optimizer state %q: shape %v does not match parameter shape %v",
				key, t.Shape(), param.Shape())
		}
		dst[name] = t.Clone()
	}
	a.m, a.v = m, v
	return nil
}
