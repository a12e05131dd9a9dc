// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sessionmgr

import "fmt"

// NotActiveError is returned by operations that require a session to
// already be held in the active-session map (e.g. Snapshot) when it is
// not.
type NotActiveError struct {
	ID string
}

func (e *NotActiveError) Error() string {
	return fmt.Sprintf("sessionmgr: session not active: %s", e.ID)
}
