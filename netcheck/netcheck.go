package netcheck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/OpenNHP/opennhp/nhp/log"
	"github.com/miekg/dns"

	"github.com/drivedesk/DriveDesk/common"
)

var errNoAnswer = errors.New("no address records in answer")

// Prober checks that the drive host resolves before the page is loaded, so
// the splash screen can report an offline state instead of a browser error.
type Prober struct {
	Servers []string
	Timeout time.Duration
	// Lookup is tried when no server answers, e.g. where outbound port 53
	// is blocked but the system resolver works. Nil disables it.
	Lookup func(ctx context.Context, host string) ([]string, error)
}

// NewProber uses server if set, otherwise the system resolvers, otherwise
// the public fallback.
func NewProber(server string) *Prober {
	p := &Prober{Timeout: 3 * time.Second, Lookup: net.DefaultResolver.LookupHost}
	if server != "" {
		p.Servers = []string{withPort(server)}
		return p
	}
	p.Servers = systemServers()
	if len(p.Servers) == 0 {
		p.Servers = []string{withPort(common.DefaultDNSServer)}
	}
	return p
}

func withPort(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(server, "53")
}

// Probe resolves host (A, then AAAA) against the configured servers, then
// through Lookup.
func (p *Prober) Probe(ctx context.Context, host string) error {
	err := p.query(ctx, host)
	if err == nil || p.Lookup == nil {
		return err
	}
	lookupCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	addrs, lerr := p.Lookup(lookupCtx, host)
	if lerr == nil && len(addrs) > 0 {
		log.Debug("%s resolved by the system resolver after: %v", host, err)
		return nil
	}
	return err
}

func (p *Prober) query(ctx context.Context, host string) error {
	client := &dns.Client{Timeout: p.Timeout}
	var lastErr error = errNoAnswer
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := &dns.Msg{}
		msg.SetQuestion(dns.Fqdn(host), qtype)
		msg.RecursionDesired = true
		for _, server := range p.Servers {
			resp, _, err := client.ExchangeContext(ctx, msg, server)
			if err != nil {
				lastErr = fmt.Errorf("query %s via %s: %w", host, server, err)
				continue
			}
			if resp.Rcode != dns.RcodeSuccess {
				lastErr = fmt.Errorf("query %s via %s: %s", host, server, dns.RcodeToString[resp.Rcode])
				continue
			}
			for _, rr := range resp.Answer {
				switch rr.(type) {
				case *dns.A, *dns.AAAA:
					return nil
				}
			}
		}
	}
	return lastErr
}

// Wait probes until host resolves or ctx is done. onRetry is called after
// every failed attempt with the error.
func (p *Prober) Wait(ctx context.Context, host string, interval time.Duration, onRetry func(error)) error {
	for {
		err := p.Probe(ctx, host)
		if err == nil {
			return nil
		}
		log.Debug("network probe for %s failed: %v", host, err)
		if onRetry != nil {
			onRetry(err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
