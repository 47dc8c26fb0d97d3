// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"sort"

	"github.com/fern-ml/fern/internal/tensor"
)

// sortedKeys returns the map's keys in lexicographic order, for
// deterministic error reporting and serialization.
func sortedKeys(m map[string]*tensor.RawTensor) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
