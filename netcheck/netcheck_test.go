package netcheck

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
)

func startServer(t *testing.T, handler dns.HandlerFunc) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

func TestProbeResolves(t *testing.T) {
	addr := startServer(t, func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		if r.Question[0].Qtype == dns.TypeA {
			rr, _ := dns.NewRR(r.Question[0].Name + " 60 IN A 17.248.1.1")
			m.Answer = append(m.Answer, rr)
		}
		_ = w.WriteMsg(m)
	})
	p := NewProber(addr)
	if err := p.Probe(context.Background(), "www.icloud.com"); err != nil {
		t.Fatal(err)
	}
}

func TestProbeNXDomain(t *testing.T) {
	addr := startServer(t, func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetRcode(r, dns.RcodeNameError)
		_ = w.WriteMsg(m)
	})
	p := NewProber(addr)
	p.Timeout = time.Second
	p.Lookup = nil
	if err := p.Probe(context.Background(), "nowhere.invalid"); err == nil {
		t.Fatal("want error")
	}
}

func TestWaitStopsOnCancel(t *testing.T) {
	addr := startServer(t, func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetRcode(r, dns.RcodeServerFailure)
		_ = w.WriteMsg(m)
	})
	ctx, cancel := context.WithCancel(context.Background())
	retries := 0
	p := NewProber(addr)
	p.Lookup = nil
	err := p.Wait(ctx, "www.icloud.com", 5*time.Millisecond, func(error) {
		retries++
		if retries == 3 {
			cancel()
		}
	})
	if err != context.Canceled || retries != 3 {
		t.Fatalf("err=%v retries=%d", err, retries)
	}
}

func TestWithPort(t *testing.T) {
	if got := withPort("1.1.1.1"); got != "1.1.1.1:53" {
		t.Fatal(got)
	}
	if got := withPort("127.0.0.1:5353"); got != "127.0.0.1:5353" {
		t.Fatal(got)
	}
}

func TestProbeFallsBackToSystemResolver(t *testing.T) {
	addr := startServer(t, func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetRcode(r, dns.RcodeRefused)
		_ = w.WriteMsg(m)
	})
	p := NewProber(addr)
	var asked string
	p.Lookup = func(ctx context.Context, host string) ([]string, error) {
		asked = host
		return []string{"17.248.1.1"}, nil
	}
	if err := p.Probe(context.Background(), "www.icloud.com"); err != nil {
		t.Fatal(err)
	}
	if asked != "www.icloud.com" {
		t.Fatalf("system resolver asked for %q", asked)
	}

	p.Lookup = func(context.Context, string) ([]string, error) {
		return nil, &net.DNSError{Err: "no such host", Name: "www.icloud.com", IsNotFound: true}
	}
	if err := p.Probe(context.Background(), "www.icloud.com"); err == nil {
		t.Fatal("want error when both resolvers fail")
	}
}

func TestNewProberUsesSystemLookup(t *testing.T) {
	if NewProber("").Lookup == nil || NewProber("127.0.0.1").Lookup == nil {
		t.Fatal("system resolver fallback not set")
	}
}
