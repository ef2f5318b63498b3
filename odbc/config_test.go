package odbc

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no driver", Config{Server: "localhost"}},
		{"no server", Config{Driver: "freetds"}},
		{"bad port", Config{Driver: "freetds", Server: "localhost", Port: 70000}},
		{"negative login timeout", Config{Driver: "freetds", Server: "localhost", LoginTimeout: Duration(-time.Second)}},
		{"negative conn timeout", Config{Driver: "freetds", Server: "localhost", ConnTimeout: Duration(-time.Second)}},
		{"negative pool size", Config{Driver: "freetds", Server: "localhost", PoolSize: -1}},
		{"param with separator", Config{Driver: "freetds", Server: "localhost", Params: map[string]string{"a=b": "c"}}},
		{"param value with separator", Config{Driver: "freetds", Server: "localhost", Params: map[string]string{"a": "b;c"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			require.Error(t, err)
			require.True(t, IsKind(err, InvalidConfig))
		})
	}

	require.NoError(t, (&Config{Driver: "freetds", Server: "localhost"}).Validate())
	// a DSN alone is a complete config
	require.NoError(t, (&Config{DSN: "DSN=mydb"}).Validate())
}

func TestConnectionString(t *testing.T) {
	cfg := Config{
		Driver:   "ODBC Driver 18 for SQL Server",
		Server:   "db.example.com",
		Port:     1433,
		Database: "orders",
		User:     "app",
		Password: "secret",
		Params: map[string]string{
			"TrustServerCertificate": "yes",
			"Encrypt":                "no",
		},
	}
	want := "driver={ODBC Driver 18 for SQL Server};" +
		"server=db.example.com,1433;" +
		"database=orders;" +
		"uid=app;pwd=secret;" +
		"Encrypt=no;TrustServerCertificate=yes;"
	require.Equal(t, want, cfg.ConnectionString())
}

func TestConnectionStringTrusted(t *testing.T) {
	cfg := Config{Driver: "d", Server: "s", User: "ignored", Trusted: true}
	require.Equal(t, "driver={d};server=s;trusted_connection=yes;", cfg.ConnectionString())
}

func TestConnectionStringDSN(t *testing.T) {
	cfg := Config{DSN: "DSN=mydb;UID=me", Driver: "ignored"}
	require.Equal(t, "DSN=mydb;UID=me", cfg.ConnectionString())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.yaml")
	data := `
driver: FreeTDS
server: db.example.com
port: 1433
database: orders
user: app
password: secret
login_timeout: 15s
conn_timeout: 45s
pool_size: 4
pool_acquire_timeout: 30s
params:
  TDS_Version: "7.4"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "FreeTDS", cfg.Driver)
	require.Equal(t, 1433, cfg.Port)
	require.Equal(t, Duration(15*time.Second), cfg.LoginTimeout)
	require.Equal(t, Duration(45*time.Second), cfg.ConnTimeout)
	require.Equal(t, 4, cfg.PoolSize)
	require.Equal(t, Duration(30*time.Second), cfg.PoolAcquireTimeout)
	require.Equal(t, "7.4", cfg.Params["TDS_Version"])
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: lonely\n"), 0o600))

	_, err := LoadConfig(path)
	require.True(t, IsKind(err, InvalidConfig))

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
