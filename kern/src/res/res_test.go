package res

import "testing"

func TestPortOverlap(t *testing.T) {
	p := MkPorts()
	if !p.Reserve(0x1f0, 8, "wd") {
		t.Fatal("reserve failed")
	}
	tests := []struct {
		base uint16
		n    int
		ok   bool
	}{
		{0x1f0, 8, false},
		{0x1f7, 1, false},
		{0x1e8, 9, false},
		{0x1e8, 8, true},
		{0x1f8, 8, true},
		{0xfffe, 4, false},
		{0x3f6, 0, false},
	}
	for _, tc := range tests {
		if got := p.Reserve(tc.base, tc.n, "other"); got != tc.ok {
			t.Errorf("Reserve(%#x, %d) = %v", tc.base, tc.n, got)
		}
	}
	if o, ok := p.Owner(0x1f3); !ok || o != "wd" {
		t.Fatalf("owner %q %v", o, ok)
	}
	p.Release(0x1f0)
	if _, ok := p.Owner(0x1f3); ok {
		t.Fatal("still owned")
	}
	if !p.Reserve(0x1f0, 8, "wd") {
		t.Fatal("re-reserve failed")
	}
}

func TestReleaseUnreserved(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MkPorts().Release(0x170)
}

func TestIrqDispatch(t *testing.T) {
	ir := MkIrqs()
	n := 0
	if !ir.Register(14, func() { n++ }, "wd") {
		t.Fatal("register failed")
	}
	if ir.Register(14, func() {}, "other") {
		t.Fatal("line shared")
	}
	if !ir.Raise(14) || n != 1 {
		t.Fatal("handler not run")
	}
	if ir.Raise(15) || ir.Nstray != 1 {
		t.Fatal("stray not counted")
	}
	ir.Unregister(14)
	if ir.Raise(14) || n != 1 {
		t.Fatal("handler ran after unregister")
	}
}
