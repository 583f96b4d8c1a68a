package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestNilClientDegradesGracefully(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	SetCached(ctx, "products:all", []byte("[]"), time.Minute)
	if _, ok := GetCached(ctx, "products:all"); ok {
		t.Error("nil client must never report a hit")
	}
	InvalidateTable(ctx, "products")
	InvalidateKeys(ctx, "a", "b")
	RevokeToken(ctx, "sid", time.Minute)
	if revoked, known := IsTokenRevoked(ctx, "sid"); revoked || known {
		t.Error("nil client cannot answer revocation")
	}
	if IsHealthy() || Enabled() {
		t.Error("nil client is neither healthy nor enabled")
	}
	if err := Close(); err != nil {
		t.Errorf("Close on nil client: %v", err)
	}
}

func TestKeyIsDeterministic(t *testing.T) {
	a := Key(ProductsPrefix, map[string]string{"category": "books", "search": "go"})
	b := Key(ProductsPrefix, map[string]string{"search": "go", "category": "books", "status": ""})
	if a != b {
		t.Errorf("keys differ: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, ProductsPrefix) {
		t.Errorf("key %s lacks prefix", a)
	}
	if c := Key(ProductsPrefix, map[string]string{"category": "toys"}); c == a {
		t.Error("different params should produce different keys")
	}
	if got := Key(OrdersPrefix, nil); got != "orders:all" {
		t.Errorf("empty params key = %s", got)
	}
}

func TestPatternsForTable(t *testing.T) {
	tests := map[string][]string{
		"products":         {"products:*", "stats:*"},
		"orders":           {"orders:*", "stats:*"},
		"item_submissions": {"submissions:*", "stats:*"},
		"unknown":          nil,
	}
	for table, want := range tests {
		got := PatternsForTable(table)
		if len(got) != len(want) {
			t.Errorf("%s: got %v, want %v", table, got, want)
			continue
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s: got %v, want %v", table, got, want)
			}
		}
	}
}
