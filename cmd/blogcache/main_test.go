package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/blogcache/internal/cli"
)

func TestMainComponents(t *testing.T) {
	t.Run("version available", func(t *testing.T) {
		assert.NotEmpty(t, version)
	})

	t.Run("cli root command", func(t *testing.T) {
		root := cli.NewRootCmd(version)
		require.NotNil(t, root)
		assert.Equal(t, "blogcache", root.Name())
		assert.Equal(t, version, root.Version)
	})
}
