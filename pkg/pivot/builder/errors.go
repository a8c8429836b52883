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

package builder

import (
	"github.com/pingcap/errors"
)

// ErrRecordShape is returned for a row whose column count differs from the
// header.
var ErrRecordShape = errors.Normalize("row %d has %d columns, header has %d",
	errors.RFCCodeText("Pivot:builder:ErrRecordShape"))
