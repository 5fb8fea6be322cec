// Copyright 2020-2021 Dolthub, Inc.
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

package driver

import (
	"database/sql/driver"

	"github.com/csvsqldb/csvsqldb/sql/types"
)

// variantToDriverValue converts one C1 Variant into a database/sql/driver
// Value. It mirrors the type switch Variant.String() uses for CSV/EXPLAIN
// text output but keeps the native Go representation instead of
// formatting it, so database/sql callers get int64/float64/bool/string/
// time.Time out of Rows.Scan instead of re-parsing a formatted string.
func variantToDriverValue(v types.Variant) (driver.Value, error) {
	if v.IsNull() {
		return nil, nil
	}

	switch v.Type() {
	case types.Boolean:
		return v.AsBool()
	case types.Int:
		return v.AsInt()
	case types.Real:
		return v.AsReal()
	case types.String:
		return v.AsString()
	case types.Date:
		return v.AsDate()
	case types.Time:
		return v.AsTime()
	case types.Timestamp:
		return v.AsTimestamp()
	default:
		return v.String(), nil
	}
}
