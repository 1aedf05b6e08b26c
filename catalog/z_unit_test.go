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

package catalog

import (
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/setting/defaults"
)

func TestRegisterAllDefaults(t *testing.T) {
	c, err := New(defaults.FS)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.RegisterAll(); err != nil {
		t.Fatal(err)
	}
	c.Freeze()

	names := c.Names()
	want := []string{"hanoi", "lao", "stock", "thai"}
	if len(names) != len(want) {
		t.Fatalf("names: %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names: %v", names)
		}
	}
	rs, err := c.RoundSetting(" LAO ")
	if err != nil {
		t.Fatal(err)
	}
	if rs.LotteryType != bet.Lao {
		t.Fatalf("lao: %+v", rs)
	}
	sums, err := c.Summaries()
	if err != nil || len(sums) != 4 {
		t.Fatalf("summaries: %v %v", sums, err)
	}
	if err := c.Register(Entry{Name: "x", ConfigName: "thai.yaml"}); err == nil {
		t.Fatalf("frozen catalog should reject register")
	}
}

func TestMultiFS(t *testing.T) {
	a := fstest.MapFS{"a.yaml": {Data: []byte("round_name: a\n")}, "README.md": {Data: []byte("x")}}
	b := fstest.MapFS{"b.json": {Data: []byte(`{"round_name":"b","lottery_type":"hanoi"}`)}}
	c, err := New(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.RegisterAll(); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.GetByName("b"); !ok {
		t.Fatalf("b not registered")
	}
	if _, err := c.RoundSetting("nope"); err == nil {
		t.Fatalf("unknown round should fail")
	}

	if _, err := New(a, fstest.MapFS{"a.yaml": {Data: []byte("round_name: z\n")}}); err == nil {
		t.Fatalf("duplicate file across fs should fail")
	}
	if _, err := New(fstest.MapFS{"sub/a.yaml": {Data: []byte("round_name: z\n")}}); err == nil {
		t.Fatalf("nested fs should fail")
	}
	if _, err := New(); err == nil {
		t.Fatalf("no fs should fail")
	}
}

func TestRegisterAllDuplicateRoundName(t *testing.T) {
	c, err := New(fstest.MapFS{
		"a.yaml": {Data: []byte("round_name: same\n")},
		"b.yaml": {Data: []byte("round_name: SAME\n")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.RegisterAll(); err == nil {
		t.Fatalf("duplicate round names should fail")
	}
	if len(c.Names()) != 0 {
		t.Fatalf("failed RegisterAll must not register anything")
	}
}

func TestValidFileName(t *testing.T) {
	for _, bad := range []string{"", "a/b.yaml", ".yaml", "a.txt"} {
		if validFileName(bad) == nil {
			t.Fatalf("%q should be invalid", bad)
		}
	}
	if err := validFileName("thai.yml"); err != nil {
		t.Fatal(err)
	}
}
