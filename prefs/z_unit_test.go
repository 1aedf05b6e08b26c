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

package prefs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMemStore(t *testing.T) {
	s := NewMemStore()
	if _, ok := s.Get(2); ok {
		t.Fatalf("expected empty store")
	}
	if err := s.Set(2, "2_bottom"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok := s.Get(2); !ok || v != "2_bottom" {
		t.Fatalf("get: %q %v", v, ok)
	}
	_ = s.Set(2, "")
	if _, ok := s.Get(2); ok {
		t.Fatalf("empty value should delete")
	}
}

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	s, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(3, "3_top+tengTod"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(1, "run_bottom"); err != nil {
		t.Fatalf("set: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "3_top+tengTod") {
		t.Fatalf("file content: %s", data)
	}

	re, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if v, ok := re.Get(3); !ok || v != "3_top+tengTod" {
		t.Fatalf("reopened get: %q %v", v, ok)
	}
	if v, _ := re.Get(1); v != "run_bottom" {
		t.Fatalf("reopened get 1: %q", v)
	}
}

func TestFileStoreRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("default_types: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenFileStore(path); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := OpenFileStore(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
