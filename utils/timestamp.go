//
// Copyright 2021 Rackspace
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS-IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package utils

import (
	"math/rand"
	"time"
)

type NowTimestampMillisFunc func() int64

var NowTimestampMillis NowTimestampMillisFunc = func() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// InstallAlternateTimestampFunc is intended for unit testing where a deterministic timestamp needs to be
// temporarily enabled. Be sure to defer re-invoke this function to re-install the prior one.
func InstallAlternateTimestampFunc(newFunc NowTimestampMillisFunc) (priorFunc NowTimestampMillisFunc) {
	priorFunc = NowTimestampMillis
	NowTimestampMillis = newFunc
	return
}

// Jitter returns a random duration in (0, spread]. A non-positive spread yields zero.
func Jitter(spread time.Duration) time.Duration {
	if spread <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(spread))) + 1
}
