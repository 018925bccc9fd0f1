package cookies

import (
	"context"
	"sync"
	"time"

	"github.com/OpenNHP/opennhp/nhp/log"
)

const defaultSaveDelay = 2 * time.Second

// Persister keeps the shared cookie file in step with the jar. Every
// operation is best effort: failures are logged and otherwise ignored, the
// worst outcome being a fresh login prompt.
type Persister struct {
	jar     *Jar
	file    *File
	domains []string
	delay   time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewPersister(jar *Jar, file *File, domains []string) *Persister {
	return &Persister{
		jar:     jar,
		file:    file,
		domains: append([]string(nil), domains...),
		delay:   defaultSaveDelay,
	}
}

// SetDelay changes the debounce window used by Schedule.
func (p *Persister) SetDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
}

// Restore loads the shared file into the jar and returns how many cookies were set.
func (p *Persister) Restore(ctx context.Context) int {
	records, err := p.file.Load(ctx)
	if err != nil {
		log.Warning("restore cookies from %s fail: %v", p.file.Path, err)
		return 0
	}
	for _, r := range records {
		p.jar.Set(r)
	}
	log.Info("restored %d cookies from %s", len(records), p.file.Path)
	return len(records)
}

// Collect queries the jar once per tracked domain and concatenates the results.
func (p *Persister) Collect() []Record {
	seen := make(map[string]struct{})
	var out []Record
	for _, d := range p.domains {
		for _, r := range p.jar.ForDomain(d) {
			if _, ok := seen[r.key()]; ok {
				continue
			}
			seen[r.key()] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

// Save writes the tracked cookies to the shared file.
func (p *Persister) Save() error {
	records := p.Collect()
	if err := p.file.Save(records); err != nil {
		log.Warning("save cookies to %s fail: %v", p.file.Path, err)
		return err
	}
	log.Debug("saved %d cookies to %s", len(records), p.file.Path)
	return nil
}

// Schedule saves after the debounce delay, coalescing bursts of changes.
func (p *Persister) Schedule() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Reset(p.delay)
		return
	}
	p.timer = time.AfterFunc(p.delay, func() {
		p.mu.Lock()
		p.timer = nil
		p.mu.Unlock()
		_ = p.Save()
	})
}

// Flush cancels a pending save and saves now.
func (p *Persister) Flush() error {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()
	return p.Save()
}

// Tracks reports whether a cookie domain is one of the persisted domains.
func (p *Persister) Tracks(domain string) bool {
	for _, d := range p.domains {
		if DomainMatches(domain, d) {
			return true
		}
	}
	return false
}
