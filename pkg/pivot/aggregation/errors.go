// Copyright 2026 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package aggregation

import (
	"fmt"

	"github.com/pingcap/errors"
	"github.com/pingcap/pivot/pkg/metrics"
)

// error definitions.
var (
	ErrMergeMismatch = errors.Normalize("cannot merge %s into %s",
		errors.RFCCodeText("Pivot:aggregation:ErrMergeMismatch"))
	ErrDuplicateKind = errors.Normalize("aggregator kind %d (%s) is already registered",
		errors.RFCCodeText("Pivot:aggregation:ErrDuplicateKind"))
	ErrNilAggregator = errors.Normalize("cannot register a nil aggregator",
		errors.RFCCodeText("Pivot:aggregation:ErrNilAggregator"))
)

// MergeMismatch reports that src cannot be merged into dst. The receiver of
// the failed Merge must be left unchanged.
func MergeMismatch(dst, src State) error {
	metrics.AggregationMergeMismatchCounter.Inc()
	return ErrMergeMismatch.GenWithStackByArgs(stateName(src), stateName(dst))
}

func stateName(s State) string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", s)
}
