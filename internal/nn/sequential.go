// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fern-ml/fern/internal/tensor"
)

// Sequential chains modules, feeding each one's output to the next.
//
// State dict keys are prefixed with the module's position: the weight of a
// Linear at index 0 appears as "0.weight". Stateless modules contribute no
// keys but still occupy an index, so the key layout is stable as long as
// the module list is.
type Sequential[T tensor.DType, B tensor.Backend] struct {
	modules []Module[T, B]
}

// NewSequential creates a Sequential container from the given modules.
func NewSequential[T tensor.DType, B tensor.Backend](modules ...Module[T, B]) *Sequential[T, B] {
	return &Sequential[T, B]{modules: modules}
}

// Add appends a module to the chain.
func (s *Sequential[T, B]) Add(m Module[T, B]) {
	s.modules = append(s.modules, m)
}

// Len returns the number of modules in the chain.
func (s *Sequential[T, B]) Len() int {
	return len(s.modules)
}

// Forward applies each module in order.
func (s *Sequential[T, B]) Forward(x *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	for _, m := range s.modules {
		x = m.Forward(x)
	}
	return x
}

// Parameters returns the parameters of all modules in order.
func (s *Sequential[T, B]) Parameters() []*Parameter[T, B] {
	var params []*Parameter[T, B]
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// StateDict returns all module tensors keyed "{index}.{name}".
func (s *Sequential[T, B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	for i, m := range s.modules {
		for name, t := range m.StateDict() {
			state[fmt.Sprintf("%d.%s", i, name)] = t
		}
	}
	return state
}

// LoadStateDict distributes "{index}.{name}" keys to the modules at those
// indices.
func (s *Sequential[T, B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	perModule := make(map[int]map[string]*tensor.RawTensor)
	for key, t := range state {
		idxStr, name, ok := strings.Cut(key, ".")
		if !ok {
			return fmt.Errorf("malformed key %q: expected {index}.{name}", key)
		}
		idx, err := strconv.Atoi(idxStr)
		if err != nil || idx < 0 || idx >= len(s.modules) {
			return fmt.Errorf("key %q: no module at index %q", key, idxStr)
		}
		if perModule[idx] == nil {
			perModule[idx] = make(map[string]*tensor.RawTensor)
		}
		perModule[idx][name] = t
	}

	for i, m := range s.modules {
		sub, ok := perModule[i]
		if !ok {
			if len(m.StateDict()) == 0 {
				continue
			}
			return fmt.Errorf("no state for module %d", i)
		}
		if err := m.LoadStateDict(sub); err != nil {
			return fmt.Errorf("module %d: %w", i, err)
		}
	}
	return nil
}
