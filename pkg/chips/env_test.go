package chips_test

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ratio1/chipstage_sdk_go/pkg/chips"
	"github.com/Ratio1/chipstage_sdk_go/pkg/chips/mock"
	"github.com/Ratio1/chipstage_sdk_go/pkg/resultset"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CHIPSTAGE_RUNTIME_MODE", "CHIPSTAGE_API_URL", "CHIPSTAGE_MOCK_SEED", "CHIPSTAGE_DECODE"} {
		t.Setenv(k, "")
	}
}

func TestNewFromEnvHTTP(t *testing.T) {
	clearEnv(t)
	srv := httptest.NewServer(mock.NewHandler(seededStore(t, 3)))
	defer srv.Close()
	t.Setenv("CHIPSTAGE_API_URL", srv.URL)
	t.Setenv("CHIPSTAGE_DECODE", "buffered")

	client, mode, err := chips.NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http", mode)

	res, err := client.Query(context.Background(), "users", "SELECT * FROM users")
	require.NoError(t, err)
	assert.Equal(t, 3, res.First().RowCount())
}

func TestNewFromEnvMockWithSeed(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chips:
  - name: colors
    schema:
      - {name: name, type: Utf8}
    rows:
      - [red]
      - [green]
`), 0o600))
	t.Setenv("CHIPSTAGE_MOCK_SEED", path)

	client, mode, err := chips.NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "mock", mode)

	res, err := client.Query(context.Background(), "colors", "SELECT * FROM colors WHERE name = 'green'")
	require.NoError(t, err)
	cur := res.First()
	require.True(t, cur.Next())
	v, err := cur.GetString(resultset.Index(1))
	require.NoError(t, err)
	assert.Equal(t, "green", *v)
}

func TestNewFromEnvErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"http without url": {"CHIPSTAGE_RUNTIME_MODE": "http"},
		"unknown mode":     {"CHIPSTAGE_RUNTIME_MODE": "grpc"},
		"invalid url":      {"CHIPSTAGE_RUNTIME_MODE": "http", "CHIPSTAGE_API_URL": "http://[::1"},
		"bad decode":       {"CHIPSTAGE_DECODE": "lazy"},
		"missing seed":     {"CHIPSTAGE_RUNTIME_MODE": "mock", "CHIPSTAGE_MOCK_SEED": "/nonexistent/seed.yaml"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, _, err := chips.NewFromEnv()
			require.Error(t, err)
		})
	}
}
