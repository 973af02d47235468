package lock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNilLockerGrantsLease(t *testing.T) {
	var l *Locker
	token, ok, err := l.TryLock(context.Background(), "ranking:creator:2026-10-12", time.Minute)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if err := l.Release(context.Background(), "ranking", token); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := l.Ping(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("ping err=%v", err)
	}
}

func TestTryLockValidatesArguments(t *testing.T) {
	var l *Locker
	if _, _, err := l.TryLock(context.Background(), "", time.Minute); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, _, err := l.TryLock(context.Background(), "k", 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}

func TestNewWithoutAddr(t *testing.T) {
	if NewRedisClient("", "") != nil {
		t.Fatalf("expected nil client")
	}
	if NewLocker(nil) != nil {
		t.Fatalf("expected nil locker")
	}
}
