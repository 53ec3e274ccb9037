package ratelimit

import (
    "testing"
    "time"
)

func TestAllowDrainsBucket(t *testing.T) {
    l := New()
    for i := 0; i < 3; i++ {
        if !l.Allow("orders", 3, 0) {
            t.Fatalf("call %d denied with tokens left", i)
        }
    }
    if l.Allow("orders", 3, 0) {
        t.Fatalf("allowed past capacity")
    }
}

func TestAllowRefills(t *testing.T) {
    l := New()
    if !l.Allow("orders", 1, 100) {
        t.Fatalf("first call denied")
    }
    if l.Allow("orders", 1, 100) {
        t.Fatalf("bucket not empty after draining")
    }
    time.Sleep(50 * time.Millisecond)
    if !l.Allow("orders", 1, 100) {
        t.Fatalf("bucket did not refill")
    }
}

func TestAllowKeysAreIndependent(t *testing.T) {
    l := New()
    if !l.Allow("a", 1, 0) {
        t.Fatalf("first key denied")
    }
    if !l.Allow("b", 1, 0) {
        t.Fatalf("second key denied")
    }
    if l.Allow("a", 1, 0) {
        t.Fatalf("first key refilled without a rate")
    }
}
