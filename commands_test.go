package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/drivedesk/DriveDesk/common"
	"github.com/drivedesk/DriveDesk/config"
	"github.com/drivedesk/DriveDesk/cookies"
)

func TestMergeCookiesCountsWrittenRecords(t *testing.T) {
	conf := config.Default()
	conf.CookieFile = filepath.Join(t.TempDir(), "cookies.json")
	ctx := context.Background()

	existing := cookies.Record{Name: "keep", Value: "1", Domain: ".icloud.com", Path: "/"}
	if err := cookies.NewFile(conf.CookieFile, nil).Save([]cookies.Record{existing}); err != nil {
		t.Fatal(err)
	}

	records := []cookies.Record{
		{Name: common.AuthCookieName, Value: "token", Domain: ".icloud.com", Path: "/", Secure: true},
		{Name: "other", Value: "x", Domain: "example.com", Path: "/"},
		{Name: "old", Value: "y", Domain: ".apple.com", Path: "/", Expires: time.Now().Add(-time.Hour).Unix()},
	}
	n, err := mergeCookies(ctx, conf, records)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("reported %d imported, want 1", n)
	}

	saved, err := cookies.NewFile(conf.CookieFile, nil).Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 2 {
		t.Fatalf("file holds %d cookies, want 2: %+v", len(saved), saved)
	}
}
