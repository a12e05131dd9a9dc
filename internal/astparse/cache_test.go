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

package astparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/codeweave/internal/lang"
)

func TestCacheGetMissAndHit(t *testing.T) {
	c := NewCache()
	_, ok := c.Get("main.go")
	assert.False(t, ok)

	p, err := New(lang.Go)
	require.NoError(t, err)
	defer p.Close()

	tree, err := p.Parse([]byte("package main\n"))
	require.NoError(t, err)
	c.Put("main.go", tree)

	got, ok := c.Get("main.go")
	require.True(t, ok)
	assert.False(t, got.Root().HasError())
	assert.Equal(t, 1, c.Len())
}

func TestCachePutReplacesAndClosesPrior(t *testing.T) {
	c := NewCache()
	p, err := New(lang.Go)
	require.NoError(t, err)
	defer p.Close()

	first, err := p.Parse([]byte("package main\n"))
	require.NoError(t, err)
	c.Put("main.go", first)

	second, err := p.Parse([]byte("package main\n\nfunc f() {}\n"))
	require.NoError(t, err)
	c.Put("main.go", second)

	got, ok := c.Get("main.go")
	require.True(t, ok)
	assert.Equal(t, second.source, got.source)
	assert.Equal(t, 1, c.Len())
}

func TestCacheInvalidateRemovesEntry(t *testing.T) {
	c := NewCache()
	p, err := New(lang.Go)
	require.NoError(t, err)
	defer p.Close()

	tree, err := p.Parse([]byte("package main\n"))
	require.NoError(t, err)
	c.Put("main.go", tree)

	c.Invalidate("main.go")
	_, ok := c.Get("main.go")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}
