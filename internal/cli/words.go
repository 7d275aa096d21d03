package cli

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Short word lists for memorable room names. Two words plus a two-digit
// number keeps collisions unlikely without making the name hard to read
// aloud.
var roomAdjectives = []string{
	"amber", "brisk", "calm", "clever", "cosmic", "crisp", "dapper", "eager",
	"fuzzy", "gentle", "golden", "happy", "jolly", "keen", "lively", "lucky",
	"mellow", "nimble", "polite", "quiet", "rapid", "shiny", "snug", "sunny",
	"swift", "tidy", "vivid", "warm", "wise", "witty", "zesty", "bold",
}

var roomNouns = []string{
	"badger", "beacon", "breeze", "canyon", "comet", "coral", "crane", "delta",
	"ember", "falcon", "fjord", "garden", "harbor", "heron", "island", "lagoon",
	"lantern", "maple", "meadow", "orchid", "otter", "pebble", "pine", "plume",
	"prairie", "raven", "reef", "river", "sparrow", "summit", "tundra", "willow",
}

// NewRoomName generates a memorable room name like "brisk-otter-42".
func NewRoomName() (string, error) {
	adj, err := pick(roomAdjectives)
	if err != nil {
		return "", err
	}
	noun, err := pick(roomNouns)
	if err != nil {
		return "", err
	}
	n, err := randomIndex(90)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%d", adj, noun, n+10), nil
}

func pick(words []string) (string, error) {
	i, err := randomIndex(len(words))
	if err != nil {
		return "", err
	}
	return words[i], nil
}

func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random index: %w", err)
	}
	return int(v.Int64()), nil
}
