package vfs

import "testing"

type nullDevice struct{}

func (nullDevice) Open(int) error                            { return nil }
func (nullDevice) Close() error                               { return nil }
func (nullDevice) Read(p []byte, offset int64) (int, error)   { return 0, nil }
func (nullDevice) Write(p []byte, offset int64) (int, error)  { return 0, nil }
func (nullDevice) DeviceControl(int, []byte, []byte) error    { return nil }

func TestRegisterLookupRemove(t *testing.T) {
	r := NewRegistry()

	h, err := r.Register("/dev/disk/raw", nullDevice{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, ok := r.Lookup("/dev/disk/raw"); !ok {
		t.Fatalf("expected lookup to find registered path")
	}

	if _, err := r.Register("/dev/disk/raw", nullDevice{}); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}

	r.Remove(h)
	if _, _, ok := r.Lookup("/dev/disk/raw"); ok {
		t.Fatalf("expected lookup to fail after remove")
	}
}

func TestRenameTwoPhaseAvoidsCollision(t *testing.T) {
	r := NewRegistry()

	h0, _ := r.Register("/dev/disk/0", nullDevice{})
	h1, _ := r.Register("/dev/disk/1", nullDevice{})

	if err := r.Rename(h0, "/dev/disk/0_new"); err != nil {
		t.Fatalf("rename h0: %v", err)
	}
	if err := r.Rename(h1, "/dev/disk/0"); err != nil {
		t.Fatalf("rename h1 into vacated slot: %v", err)
	}
	if err := r.Rename(h0, "/dev/disk/1"); err != nil {
		t.Fatalf("rename h0 into final slot: %v", err)
	}

	if _, _, ok := r.Lookup("/dev/disk/0"); !ok {
		t.Fatalf("expected /dev/disk/0 to resolve to former h1")
	}
	if _, _, ok := r.Lookup("/dev/disk/1"); !ok {
		t.Fatalf("expected /dev/disk/1 to resolve to former h0")
	}
}
