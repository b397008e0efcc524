package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadhub/leadhub-backend/internal/migrations"
)

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "crmctl dev\n", out.String())
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{
		{"migrate", "up"},
		{"migrate", "status"},
		{"invitations", "expire"},
		{"sessions", "clean"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	clean, _, _ := root.Find([]string{"sessions", "clean"})
	assert.Equal(t, "720h0m0s", clean.Flags().Lookup("retention").DefValue)
}

func TestPrintStatus(t *testing.T) {
	applied := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var out bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&out)

	printStatus(cmd, []migrations.Status{
		{Version: 1, Name: "core", AppliedAt: &applied},
		{Version: 2, Name: "crm"},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"VERSION", "NAME", "APPLIED"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"0001", "core", "2026-01-02", "03:04:05"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"0002", "crm", "pending"}, strings.Fields(lines[2]))
}
