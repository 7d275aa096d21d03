package cli

import (
	"regexp"
	"testing"
)

func TestNewRoomNameShape(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-z]+-[a-z]+-\d{2}$`)
	for i := 0; i < 50; i++ {
		name, err := NewRoomName()
		if err != nil {
			t.Fatal(err)
		}
		if !pattern.MatchString(name) {
			t.Fatalf("room name %q does not match adjective-noun-NN", name)
		}
	}
}

func TestNewRoomNameVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		name, err := NewRoomName()
		if err != nil {
			t.Fatal(err)
		}
		seen[name] = true
	}
	if len(seen) < 2 {
		t.Fatal("room names never vary")
	}
}
