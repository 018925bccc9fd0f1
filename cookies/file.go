package cookies

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/OpenNHP/opennhp/nhp/log"
	"github.com/steipete/sweetcookie"
)

// File is the shared cookie file. It holds a flat JSON array of records and
// is read and written whole; the last writer wins.
type File struct {
	Path  string
	Vault *Vault
}

func NewFile(path string, vault *Vault) *File {
	return &File{Path: path, Vault: vault}
}

// Load reads the file and returns its live records, de-duplicated by
// (name, domain, path). A missing file yields no records and no error.
func (f *File) Load(ctx context.Context) ([]Record, error) {
	raw, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}
	if IsSealed(raw) {
		if f.Vault == nil {
			return nil, errSealedNoVault
		}
		if raw, err = f.Vault.Open(raw); err != nil {
			return nil, fmt.Errorf("open cookie file: %w", err)
		}
	}
	return decodeRecords(ctx, raw)
}

// Save writes records as the whole file content.
func (f *File) Save(records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}
	if f.Vault != nil {
		if data, err = f.Vault.Seal(data); err != nil {
			return fmt.Errorf("seal cookies: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0o600)
}

// decodeRecords parses an inline cookie payload through sweetcookie, which
// drops expired entries and de-duplicates. Host-only flags are not part of
// the inline format, so they are recovered from the raw records.
func decodeRecords(ctx context.Context, raw []byte) ([]Record, error) {
	res, err := sweetcookie.Get(ctx, sweetcookie.Options{
		Inline:        sweetcookie.InlineCookies{JSON: raw},
		Browsers:      []sweetcookie.Browser{sweetcookie.BrowserInline},
		AllowAllHosts: true,
	})
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		log.Warning("cookie file: %s", w)
	}

	hostOnly := make(map[string]bool)
	var rawRecords []Record
	if json.Unmarshal(raw, &rawRecords) == nil {
		for _, r := range rawRecords {
			if r.HostOnly {
				r.Domain = normalizeDomain(r.Domain)
				if r.Path == "" {
					r.Path = "/"
				}
				hostOnly[r.key()] = true
			}
		}
	}

	out := make([]Record, 0, len(res.Cookies))
	for _, c := range res.Cookies {
		r := fromSweetCookie(c)
		r.HostOnly = hostOnly[r.key()]
		out = append(out, r)
	}
	sortRecords(out)
	return out, nil
}
