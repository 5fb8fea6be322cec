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

import "sync/atomic"

// connCounter hands out increasing connection ids, used only to make a
// Driver's log output distinguishable across the database/sql
// connection pool's concurrent Conns; csvsqldb.ExecutionEngine itself
// already stamps every query with its own uuid (engine.go), so this is
// coarser-grained and purely cosmetic.
var connCounter atomic.Uint64

func nextConnID() uint64 {
	return connCounter.Add(1)
}
