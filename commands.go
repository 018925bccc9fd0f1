package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/drivedesk/DriveDesk/common"
	"github.com/drivedesk/DriveDesk/config"
	"github.com/drivedesk/DriveDesk/cookies"
	"github.com/drivedesk/DriveDesk/logging"
	"github.com/drivedesk/DriveDesk/platform"
	"github.com/drivedesk/DriveDesk/store"
	"github.com/drivedesk/DriveDesk/ui"
	"github.com/drivedesk/DriveDesk/update"
	"github.com/drivedesk/DriveDesk/version"
)

// loadConfig prepares a one-shot command: config is read, nothing is logged.
func loadConfig(c *cli.Context) (config.Paths, config.Config, error) {
	logging.Silent()
	paths, err := config.ResolvePaths(c.String("data-dir"))
	if err != nil {
		return config.Paths{}, config.Config{}, err
	}
	m := config.NewManager(paths)
	if err := m.Load(); err != nil {
		return paths, config.Config{}, fmt.Errorf("load %s: %w", paths.ConfigFile, err)
	}
	m.StopWatch()
	return paths, m.Get(), nil
}

func cookiesCmd() *cli.Command {
	return &cli.Command{
		Name:  "cookies",
		Usage: "manage the shared session cookie file",
		After: func(c *cli.Context) error {
			logging.Close()
			return nil
		},
		Subcommands: []*cli.Command{
			{
				Name:      "export",
				Usage:     "write the shared cookies as plain JSON",
				ArgsUsage: "[file|-]",
				Action: func(c *cli.Context) error {
					_, conf, err := loadConfig(c)
					if err != nil {
						return err
					}
					records, err := ui.CookieFile(conf).Load(c.Context)
					if err != nil {
						return err
					}
					if records == nil {
						records = []cookies.Record{}
					}
					data, err := json.MarshalIndent(records, "", "  ")
					if err != nil {
						return err
					}
					target := c.Args().First()
					if target == "" || target == "-" {
						_, err = fmt.Fprintln(c.App.Writer, string(data))
						return err
					}
					return os.WriteFile(target, append(data, '\n'), 0o600)
				},
			},
			{
				Name:      "import",
				Usage:     "merge cookies from a JSON file into the shared file",
				ArgsUsage: "<file>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("import needs exactly one file", 2)
					}
					_, conf, err := loadConfig(c)
					if err != nil {
						return err
					}
					records, err := cookies.NewFile(c.Args().First(), nil).Load(c.Context)
					if err != nil {
						return err
					}
					n, err := mergeCookies(c.Context, conf, records)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "imported %d cookies into %s\n", n, conf.CookieFile)
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "forget the saved session",
				Action: func(c *cli.Context) error {
					_, conf, err := loadConfig(c)
					if err != nil {
						return err
					}
					if err := ui.CookieFile(conf).Save([]cookies.Record{}); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "cleared %s\n", conf.CookieFile)
					return nil
				},
			},
			{
				Name:  "import-browser",
				Usage: "copy an existing session out of an installed browser",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "browser", Usage: "browser to read (chrome, edge, firefox, safari, ...); repeatable"},
					&cli.StringFlag{Name: "profile", Usage: "browser profile name or path"},
					&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second},
				},
				Action: func(c *cli.Context) error {
					_, conf, err := loadConfig(c)
					if err != nil {
						return err
					}
					records, warnings, err := cookies.ImportBrowser(c.Context, cookies.ImportOptions{
						Browsers: c.StringSlice("browser"),
						Profile:  c.String("profile"),
						Domains:  conf.TrackedDomains,
						Timeout:  c.Duration("timeout"),
					})
					for _, w := range warnings {
						fmt.Fprintln(c.App.ErrWriter, "warning:", w)
					}
					if err != nil {
						return err
					}
					if len(records) == 0 {
						return cli.Exit("no session found in the selected browsers", 1)
					}
					n, err := mergeCookies(c.Context, conf, records)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "imported %d cookies into %s\n", n, conf.CookieFile)
					return nil
				},
			},
		},
	}
}

// mergeCookies adds records to the shared file, keeping what is already
// there. It returns how many tracked cookies were added or changed.
func mergeCookies(ctx context.Context, conf config.Config, records []cookies.Record) (int, error) {
	jar, persister := ui.NewSession(conf)
	persister.Restore(ctx)
	written := 0
	jar.OnChange(func(ch cookies.Change) {
		if !ch.Removed && persister.Tracks(ch.Record.Domain) {
			written++
		}
	})
	for _, r := range records {
		jar.Set(r)
	}
	if err := persister.Save(); err != nil {
		return 0, err
	}
	return written, nil
}

func registerCmd() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "register the URL scheme and jump list for this executable",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "login", Usage: "also launch at login"},
			&cli.BoolFlag{Name: "remove-login", Usage: "stop launching at login"},
		},
		Action: func(c *cli.Context) error {
			_, conf, err := loadConfig(c)
			if err != nil {
				return err
			}
			defer logging.Close()
			m := platform.NewManager("")
			if !m.RegisterScheme(conf.URLScheme) {
				return cli.Exit("url scheme registration failed", 1)
			}
			m.SetJumpList(platform.DefaultTasks(conf.URLScheme))
			switch {
			case c.Bool("login"):
				if err := m.SetLoginItem(true); err != nil {
					return err
				}
			case c.Bool("remove-login"):
				if err := m.SetLoginItem(false); err != nil {
					return err
				}
			}
			fmt.Fprintf(c.App.Writer, "registered %s:// for %s\n", conf.URLScheme, m.Executable())
			return nil
		},
	}
}

func checkUpdateCmd() *cli.Command {
	return &cli.Command{
		Name:  "check-update",
		Usage: "check once for a newer release",
		Action: func(c *cli.Context) error {
			_, conf, err := loadConfig(c)
			if err != nil {
				return err
			}
			defer logging.Close()
			checker := update.NewChecker(conf.UpdateURL, version.Version)
			checker.UserAgent = common.AppName + "/" + version.Version
			ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
			defer cancel()
			r, err := checker.Check(ctx)
			if err != nil {
				return err
			}
			if !r.Available {
				fmt.Fprintf(c.App.Writer, "%s is up to date (latest %s)\n", r.Current, r.Latest)
				return nil
			}
			fmt.Fprintf(c.App.Writer, "update available: %s -> %s\n%s\n", r.Current, r.Latest, r.Release.HTMLURL)
			return nil
		},
	}
}

func resetWindowCmd() *cli.Command {
	return &cli.Command{
		Name:  "reset-window",
		Usage: "forget the saved window position and size",
		Action: func(c *cli.Context) error {
			paths, _, err := loadConfig(c)
			if err != nil {
				return err
			}
			defer logging.Close()
			st, err := store.Open(paths.StateFile)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Delete(common.KeyWindowBounds); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "window bounds reset")
			return nil
		},
	}
}
