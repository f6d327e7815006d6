package database

import (
	"context"
	"strings"
	"testing"

	"github.com/lshigami/nodo-plus/config"
)

func TestBuildDSN(t *testing.T) {
	dsn := BuildDSN(config.Database{Host: "db", Port: "5432", User: "nodo", Password: "pw", Name: "nodo"})
	for _, want := range []string{"host=db", "port=5432", "user=nodo", "dbname=nodo", "sslmode=disable"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("dsn %q missing %q", dsn, want)
		}
	}
}

func TestResolveDSNPrefersURL(t *testing.T) {
	dsn, err := resolveDSN(context.Background(), config.Database{URL: "postgres://x", Host: "ignored"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dsn != "postgres://x" {
		t.Fatalf("expected url dsn, got %q", dsn)
	}
}

func TestParseSecret(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "ok", raw: `{"DATABASE_URL":"postgres://u@h/db"}`, want: "postgres://u@h/db"},
		{name: "missing key", raw: `{"OTHER":"x"}`, wantErr: true},
		{name: "not json", raw: `nope`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseSecret(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("got %q, %v", got, err)
			}
		})
	}
}

func TestDefaultCatalogValuesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range DefaultCatalogs {
		if seen[c.Value] {
			t.Fatalf("duplicate catalog value %s", c.Value)
		}
		seen[c.Value] = true
	}
}
