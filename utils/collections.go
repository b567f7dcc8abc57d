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
	"strings"
	"unicode"
)

func IdentifierSafe(r rune) rune {
	switch {
	case unicode.IsLetter(r) || unicode.IsDigit(r):
		return r
	default:
		return '_'
	}
}

// RootIdentifier stands for "/". IdentifierSafe never yields it, so no other path collides with it.
const RootIdentifier = "-"

// PathIdentifier turns a mount point into a URL-safe identifier, "/srv/www" becomes "srv_www" and
// "/" becomes RootIdentifier.
func PathIdentifier(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return RootIdentifier
	}
	return strings.Map(IdentifierSafe, trimmed)
}
