package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun(t *testing.T) {
	t.Run("filter from stdin", func(t *testing.T) {
		code, stdout, stderr := runCLI(t, `{"OR": [{"email": {"starts_with": "a"}}, {"email": {"starts_with": "b"}}]}`,
			"-table", "users")
		require.Equal(t, 0, code, stderr)
		require.Contains(t, stdout, `sql:  SELECT * FROM "users" WHERE "email" ILIKE $1 OR "email" ILIKE $2`)
		require.Contains(t, stdout, `vars: ["a%","b%"]`)
		require.Contains(t, stdout, `explain: SELECT * FROM "users" WHERE "email" ILIKE 'a%' OR "email" ILIKE 'b%'`)
	})

	t.Run("filter file with config", func(t *testing.T) {
		dir := t.TempDir()
		filterPath := filepath.Join(dir, "filter.json")
		configPath := filepath.Join(dir, "fields.yaml")
		require.NoError(t, os.WriteFile(filterPath, []byte(`{"accountId": {"in": ["1", "2"]}}`), 0o600))
		require.NoError(t, os.WriteFile(configPath, []byte("columnFormatter: snake\nfields:\n  accountId:\n    renderAsLongs: true\n"), 0o600))

		code, stdout, stderr := runCLI(t, "", "-table", "users", "-config", configPath, filterPath)
		require.Equal(t, 0, code, stderr)
		require.Contains(t, stdout, `sql:  SELECT * FROM "users" WHERE "account_id" IN (1,2)`)
		require.Contains(t, stdout, "vars: []")
	})

	t.Run("having", func(t *testing.T) {
		code, stdout, stderr := runCLI(t, `{"count(*)": {"gt": 2}}`,
			"-table", "users", "-group", "company_id", "-having")
		require.Equal(t, 0, code, stderr)
		require.Contains(t, stdout, `sql:  SELECT * FROM "users" GROUP BY "company_id" HAVING count(*) > $1`)
		require.Contains(t, stdout, "vars: [2]")
	})

	t.Run("empty filter", func(t *testing.T) {
		code, stdout, stderr := runCLI(t, "", "-table", "users", "-")
		require.Equal(t, 0, code, stderr)
		require.Contains(t, stdout, `sql:  SELECT * FROM "users"`+"\n")
	})

	t.Run("help", func(t *testing.T) {
		code, _, stderr := runCLI(t, "", "-h")
		require.Equal(t, 0, code)
		require.Contains(t, stderr, "Usage: gqlwhere")
	})
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name     string
		stdin    string
		args     []string
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing table",
			args:     []string{},
			wantCode: 2,
			wantErr:  "-table is required",
		},
		{
			name:     "unknown flag",
			args:     []string{"-table", "users", "-nope"},
			wantCode: 2,
			wantErr:  "flag provided but not defined",
		},
		{
			name:     "having without group",
			stdin:    `{"id": {"is": 1}}`,
			args:     []string{"-table", "users", "-having"},
			wantCode: 1,
			wantErr:  "-having requires -group",
		},
		{
			name:     "invalid json",
			stdin:    `{"id": `,
			args:     []string{"-table", "users"},
			wantCode: 1,
			wantErr:  "decode filter",
		},
		{
			name:     "strict operators",
			stdin:    `{"id": {"eq": 1}}`,
			args:     []string{"-table", "users", "-strict"},
			wantCode: 1,
			wantErr:  "unknown operator",
		},
		{
			name:     "missing config",
			args:     []string{"-table", "users", "-config", "/nonexistent/fields.yaml"},
			wantCode: 1,
			wantErr:  "read filter config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.stdin, tt.args...)
			require.Equal(t, tt.wantCode, code)
			require.Contains(t, stderr, tt.wantErr)
		})
	}
}
