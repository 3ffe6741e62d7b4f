package asr

import (
	"testing"
)

func TestMemoryRateLimiterCeiling(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow("tms.example.com", 3)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatalf("request %d within the ceiling must be allowed", i)
		}
	}
	ok, err := limiter.Allow("tms.example.com", 3)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("the fourth request in the hour must be denied")
	}
}

func TestMemoryRateLimiterSystemsAreIndependent(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	if ok, _ := limiter.Allow("tms.example.com", 1); !ok {
		t.Fatal("first request must pass")
	}
	if ok, _ := limiter.Allow("tms.example.com", 1); ok {
		t.Fatal("second request must be denied")
	}
	if ok, _ := limiter.Allow("wms.example.org", 1); !ok {
		t.Error("another system keeps its own bucket")
	}
}

func TestMemoryRateLimiterCeilingChangeResetsBucket(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	if ok, _ := limiter.Allow("tms.example.com", 1); !ok {
		t.Fatal("first request must pass")
	}
	if ok, _ := limiter.Allow("tms.example.com", 1); ok {
		t.Fatal("ceiling reached")
	}
	// Raising the ceiling gives the system a fresh bucket.
	if ok, _ := limiter.Allow("tms.example.com", 5); !ok {
		t.Error("a raised ceiling must allow further requests")
	}
}

func TestMemoryRateLimiterNonPositiveCeiling(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	for _, perHour := range []int{0, -1} {
		ok, err := limiter.Allow("tms.example.com", perHour)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Errorf("ceiling %d must deny everything", perHour)
		}
	}
}
