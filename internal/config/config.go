package config

import (
	"fmt"
	"os"
)

// Default configuration values.
const (
	DefaultPort      = "3001"
	DefaultServerURL = "ws://localhost:3001/ws"
	DefaultSTUN      = "stun:stun.l.google.com:19302"
	DefaultTURN      = "" // optional, empty by default
	DefaultTURNUser  = ""
	DefaultTURNPass  = ""
)

// Config holds the client-side configuration.
type Config struct {
	// ServerURL is the signaling server websocket endpoint.
	ServerURL string

	// ICE servers for WebRTC.
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string

	// ForceRelay restricts ICE to relayed candidates.
	ForceRelay bool
}

// Options carries CLI flag overrides.
type Options struct {
	ServerURL  string
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
	ForceRelay bool
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options)
// 2. Environment variables
// 3. Defaults
func Load(opts Options) (*Config, error) {
	cfg := &Config{
		ServerURL:  firstOf(opts.ServerURL, os.Getenv("KAIWA_SERVER_URL"), DefaultServerURL),
		STUNServer: firstOf(opts.STUNServer, os.Getenv("STUN_SERVER"), DefaultSTUN),
		TURNServer: firstOf(opts.TURNServer, os.Getenv("TURN_SERVER"), DefaultTURN),
		TURNUser:   firstOf(opts.TURNUser, os.Getenv("TURN_USERNAME"), DefaultTURNUser),
		TURNPass:   firstOf(opts.TURNPass, os.Getenv("TURN_PASSWORD"), DefaultTURNPass),
		ForceRelay: opts.ForceRelay,
	}

	if cfg.ForceRelay && cfg.TURNServer == "" {
		return nil, fmt.Errorf("cannot force relay mode without a TURN server configured")
	}

	return cfg, nil
}

// ServerConfig holds the relay server configuration.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":3001".
	Addr string
}

// LoadServer reads the relay server configuration from the environment.
// PORT defaults to 3001.
func LoadServer() *ServerConfig {
	port := os.Getenv("PORT")
	if port == "" {
		port = DefaultPort
	}
	return &ServerConfig{Addr: ":" + port}
}

// GetSTUNServers returns STUN server URLs as strings.
func (c *Config) GetSTUNServers() []string {
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured.
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
	}
}

// GetTURNCredentials returns TURN username and password.
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
