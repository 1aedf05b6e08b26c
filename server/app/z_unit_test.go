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

package app

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

type fakeComp struct {
	runErr   error
	block    chan struct{}
	shutdown atomic.Int32
}

func (f *fakeComp) Run() error {
	if f.block != nil {
		<-f.block
	}
	return f.runErr
}

func (f *fakeComp) Shutdown(ctx context.Context) error {
	if f.shutdown.Add(1) == 1 && f.block != nil {
		close(f.block)
	}
	return nil
}

func TestAppStop(t *testing.T) {
	a := &fakeComp{block: make(chan struct{})}
	b := &fakeComp{block: make(chan struct{})}
	app := NewWith(a, b)
	app.Stop()
	if err := app.Run(); err != nil {
		t.Fatal(err)
	}
	if a.shutdown.Load() != 1 || b.shutdown.Load() != 1 {
		t.Fatalf("all components should be shut down once")
	}
}

func TestAppComponentError(t *testing.T) {
	boom := errors.New("boom")
	a := &fakeComp{runErr: boom}
	b := &fakeComp{block: make(chan struct{})}
	app := NewWith(a, b).WithShutdownTimeout(time.Second)
	if err := app.Run(); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if b.shutdown.Load() != 1 {
		t.Fatalf("b should be shut down")
	}
}

func TestAppServerClosedIsClean(t *testing.T) {
	a := &fakeComp{runErr: http.ErrServerClosed}
	if err := NewWith(a).Run(); err != nil {
		t.Fatalf("ErrServerClosed should be clean: %v", err)
	}
}
