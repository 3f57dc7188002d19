package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
)

func TestNewClientSuccess(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	ctx := context.Background()
	client, err := NewClient(ctx, fmt.Sprintf("redis://%s", s.Addr()), 0, zerolog.Nop())
	if err != nil {
		t.Fatalf("expected client, got error: %v", err)
	}
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestNewClientInvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "://bad-url", 0, zerolog.Nop())
	if err == nil {
		t.Fatalf("expected error for invalid URL")
	}
}

func TestNewClientPingFailure(t *testing.T) {
	s := miniredis.RunT(t)
	url := fmt.Sprintf("redis://%s", s.Addr())
	s.Close() // close before attempting to connect

	_, err := NewClient(context.Background(), url, 0, zerolog.Nop())
	if err == nil {
		t.Fatalf("expected ping error when server is down")
	}
}

func TestNewClientRetriesUntilServerIsUp(t *testing.T) {
	s := miniredis.RunT(t)
	url := fmt.Sprintf("redis://%s", s.Addr())
	s.Close()

	go func() {
		time.Sleep(300 * time.Millisecond)
		_ = s.Restart()
	}()

	client, err := NewClient(context.Background(), url, 5*time.Second, zerolog.Nop())
	if err != nil {
		t.Fatalf("expected client after retry, got error: %v", err)
	}
	defer client.Close()
}

func TestNewClientRetryHonoursContext(t *testing.T) {
	s := miniredis.RunT(t)
	url := fmt.Sprintf("redis://%s", s.Addr())
	s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := NewClient(ctx, url, time.Minute, zerolog.Nop()); err == nil {
		t.Fatalf("expected error when server stays down")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("expected retry loop to stop with the context")
	}
}
