// Package dns resolves the signaling server hostname with a fallback to
// public resolvers, so a broken local DNS configuration does not stop a call
// from being set up.
package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// publicDNS are queried, all at once, if the local lookup fails.
var publicDNS = []string{
	"1.1.1.1",         // Cloudflare
	"1.0.0.1",         // Cloudflare
	"8.8.8.8",         // Google
	"8.8.4.4",         // Google
	"9.9.9.9",         // Quad9
	"149.112.112.112", // Quad9
}

// Lookup resolves a hostname to a single IP address, preferring IPv4. The
// system resolver is tried first; on failure the public resolvers race and
// the first answer wins.
func Lookup(host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return host, nil
	}

	ip, err := localLookup(host)
	if err == nil && ip != "" {
		return ip, nil
	}

	return raceLookup(host)
}

func localLookup(host string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	r := &net.Resolver{}
	ips, err := r.LookupHost(ctx, host)
	if err != nil {
		return "", err
	}
	return pickIP(ips)
}

func raceLookup(host string) (string, error) {
	type result struct {
		ip  string
		err error
	}

	results := make(chan result, len(publicDNS))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, server := range publicDNS {
		go func(server string) {
			ip, err := resolverLookup(ctx, host, server)
			results <- result{ip: ip, err: err}
		}(server)
	}

	for range publicDNS {
		select {
		case res := <-results:
			if res.err == nil && res.ip != "" {
				return res.ip, nil
			}
		case <-ctx.Done():
			return "", fmt.Errorf("dns: public resolver race timed out for %s", host)
		}
	}

	return "", fmt.Errorf("dns: all public resolvers failed for %s", host)
}

func resolverLookup(ctx context.Context, host, server string) (string, error) {
	r := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			d := new(net.Dialer)
			return d.DialContext(ctx, network, net.JoinHostPort(server, "53"))
		},
	}

	ips, err := r.LookupHost(ctx, host)
	if err != nil {
		return "", err
	}
	return pickIP(ips)
}

func pickIP(ips []string) (string, error) {
	if len(ips) == 0 {
		return "", errors.New("no addresses returned")
	}
	for _, ip := range ips {
		if net.ParseIP(ip).To4() != nil {
			return ip, nil
		}
	}
	return ips[0], nil
}
