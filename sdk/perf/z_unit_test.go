// Copyright 2025 Zintix Labs
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

package perf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRunModes(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	exe := func() error { calls++; return nil }

	for _, m := range Modes {
		if err := Run(exe, m, dir); err != nil {
			t.Fatalf("mode %q: %v", m, err)
		}
	}
	if calls != len(Modes) {
		t.Fatalf("calls: %d", calls)
	}
	for _, name := range []string{"cpu", "heap", "allocs"} {
		if st, err := os.Stat(filepath.Join(dir, name+".pprof")); err != nil || st.Size() == 0 {
			t.Fatalf("%s profile missing: %v", name, err)
		}
	}
}

func TestRunErrors(t *testing.T) {
	if err := Run(func() error { return nil }, "trace", t.TempDir()); err == nil {
		t.Fatalf("unknown mode should fail")
	}
	boom := errors.New("boom")
	if err := Run(func() error { return boom }, "heap", t.TempDir()); !errors.Is(err, boom) {
		t.Fatalf("exe error should pass through: %v", err)
	}
}
