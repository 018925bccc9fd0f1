package cookies

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestCollectConcatenatesTrackedDomains(t *testing.T) {
	j := NewJar()
	j.Set(Record{Name: "a", Value: "1", Domain: "icloud.com", Path: "/"})
	j.Set(Record{Name: "b", Value: "2", Domain: "idmsa.apple.com", Path: "/"})
	j.Set(Record{Name: "c", Value: "3", Domain: "example.org", Path: "/"})

	p := NewPersister(j, NewFile(filepath.Join(t.TempDir(), "c.json"), nil), []string{".icloud.com", ".apple.com"})
	rs := p.Collect()
	if len(rs) != 2 || rs[0].Name != "a" || rs[1].Name != "b" {
		t.Fatalf("unexpected %+v", rs)
	}
	if !p.Tracks("www.icloud.com") || p.Tracks("example.org") {
		t.Fatalf("Tracks mismatch")
	}
}

func TestScheduleCoalesces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	j := NewJar()
	p := NewPersister(j, NewFile(path, nil), []string{".icloud.com"})
	p.SetDelay(20 * time.Millisecond)

	for i := 0; i < 5; i++ {
		j.Set(Record{Name: "n", Value: string(rune('a' + i)), Domain: "icloud.com", Path: "/"})
		p.Schedule()
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rs, _ := NewFile(path, nil).Load(context.Background())
		if len(rs) == 1 && rs[0].Value == "e" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("debounced save never wrote the last value")
}

func TestRestoreIgnoresCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	if err := NewFile(path, nil).Save(nil); err != nil {
		t.Fatal(err)
	}
	j := NewJar()
	p := NewPersister(j, NewFile(path, nil), []string{".icloud.com"})
	if n := p.Restore(context.Background()); n != 0 {
		t.Fatalf("want 0, got %d", n)
	}
}
