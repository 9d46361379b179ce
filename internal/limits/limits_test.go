package limits

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestKeyedLimiterBurstThenDeny(t *testing.T) {
	l := NewKeyedLimiter(3)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("a") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.Allow("a") {
		t.Fatal("fourth request in the same instant should be denied")
	}
	if !l.Allow("b") {
		t.Fatal("other keys have their own bucket")
	}

	now = now.Add(time.Second)
	if !l.Allow("a") {
		t.Fatal("bucket should refill after a second")
	}
}

func TestKeyedLimiterMinimumRate(t *testing.T) {
	l := NewKeyedLimiter(0)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	if !l.Allow("a") {
		t.Fatal("first request should pass")
	}
	if l.Allow("a") {
		t.Fatal("second request should be limited at one per second")
	}
}

func TestKeyedLimiterDropsIdleBuckets(t *testing.T) {
	l := NewKeyedLimiter(5)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	l.Allow("a")
	l.Allow("b")

	now = now.Add(idleTTL + time.Second)
	l.Allow("c")
	if l.Len() != 1 {
		t.Fatalf("expected only the fresh bucket, have %d", l.Len())
	}
}

func TestClientKey(t *testing.T) {
	cases := []struct {
		xff  string
		want string
	}{
		{"", DefaultClientKey},
		{"10.0.0.1", "10.0.0.1"},
		{" 10.0.0.2 , 172.16.0.1", "10.0.0.2"},
		{" , 1.2.3.4", DefaultClientKey},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("POST", "/v1/ai:call", nil)
		if tc.xff != "" {
			r.Header.Set("X-Forwarded-For", tc.xff)
		}
		if got := ClientKey(r); got != tc.want {
			t.Errorf("ClientKey(%q) = %q, want %q", tc.xff, got, tc.want)
		}
	}
}
