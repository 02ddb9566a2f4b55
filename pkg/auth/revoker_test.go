package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMemoryTokenRevokerExpires(t *testing.T) {
	now := time.Unix(1700000000, 0)
	r := NewMemoryTokenRevoker()
	r.now = func() time.Time { return now }
	ctx := context.Background()

	if err := r.Revoke(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := r.IsRevoked(ctx, "jti-1"); !ok {
		t.Fatalf("expected revoked")
	}
	now = now.Add(2 * time.Minute)
	if ok, _ := r.IsRevoked(ctx, "jti-1"); ok {
		t.Fatalf("expected revocation to expire")
	}
	if err := r.Revoke(ctx, "jti-2", 0); err != nil {
		t.Fatalf("zero ttl revoke: %v", err)
	}
	if ok, _ := r.IsRevoked(ctx, "jti-2"); ok {
		t.Fatalf("zero ttl should not revoke")
	}
}

func TestRedisTokenRevoker(t *testing.T) {
	redisSrv := miniredis.RunT(t)
	r, err := NewRedisTokenRevoker(redisSrv.Addr(), "", "")
	if err != nil {
		t.Fatalf("new revoker: %v", err)
	}
	defer r.Close()
	ctx := context.Background()

	if err := r.Revoke(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if !redisSrv.Exists("portfolio:revoked:jti-1") {
		t.Fatalf("expected prefixed key in redis")
	}
	ok, err := r.IsRevoked(ctx, "jti-1")
	if err != nil || !ok {
		t.Fatalf("expected revoked, got ok=%v err=%v", ok, err)
	}
	redisSrv.FastForward(2 * time.Minute)
	ok, err = r.IsRevoked(ctx, "jti-1")
	if err != nil || ok {
		t.Fatalf("expected expiry, got ok=%v err=%v", ok, err)
	}
}
