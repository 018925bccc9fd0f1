package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/OpenNHP/opennhp/nhp/log"
	"github.com/urfave/cli/v2"

	"github.com/drivedesk/DriveDesk/common"
	"github.com/drivedesk/DriveDesk/config"
	"github.com/drivedesk/DriveDesk/logging"
	"github.com/drivedesk/DriveDesk/store"
	"github.com/drivedesk/DriveDesk/ui"
	"github.com/drivedesk/DriveDesk/version"
)

// Launched without arguments (double click, login item) or with a URL of
// the application scheme, the window starts. Everything else is a command.
func main() {
	if len(os.Args) == 1 {
		if err := runApp("", -1, nil); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	app := cli.NewApp()
	app.Name = common.AppName
	app.Usage = "iCloud Drive in a desktop window"
	app.Version = version.String()
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "data-dir",
			Usage:   "directory holding config.toml, state and logs",
			EnvVars: []string{"DRIVEDESK_DATA_DIR"},
		},
		&cli.IntFlag{
			Name:  "log-level",
			Usage: "0: silent, 1: error, 2: info, 3: audit, 4: debug, 5: trace (default from config)",
			Value: -1,
		},
	}
	app.Action = func(c *cli.Context) error {
		return runApp(c.String("data-dir"), c.Int("log-level"), c.Args().Slice())
	}

	runCmd := &cli.Command{
		Name:  "run",
		Usage: "open the drive window",
		Action: func(c *cli.Context) error {
			return runApp(c.String("data-dir"), c.Int("log-level"), c.Args().Slice())
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
		cookiesCmd(),
		registerCmd(),
		checkUpdateCmd(),
		resetWindowCmd(),
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runApp(dataDir string, logLevel int, args []string) error {
	paths, err := config.ResolvePaths(dataDir)
	if err != nil {
		return err
	}
	if err := paths.Ensure(); err != nil {
		return err
	}

	conf := config.NewManager(paths)
	loadErr := conf.Load()
	if logLevel < 0 {
		logLevel = conf.Get().LogLevel
	}
	logging.Setup(paths.LogDir, logLevel, "drivedesk")
	defer logging.Close()
	if loadErr != nil {
		log.Error("config %s not loaded, using defaults: %v", paths.ConfigFile, loadErr)
	}
	log.Info("%s %s starting, data dir %s", common.AppName, version.Detail(), paths.DataDir)

	st, err := store.Open(paths.StateFile)
	if err != nil {
		return err
	}
	defer st.Close()

	a, err := ui.NewApp(conf, st, args)
	if err != nil {
		log.Error("start %s fail: %v", common.AppName, err)
		return err
	}

	// react to terminate signals
	termCh := make(chan os.Signal, 1)
	signal.Notify(termCh, syscall.SIGTERM, os.Interrupt)
	defer signal.Stop(termCh)
	go func() {
		if _, ok := <-termCh; ok {
			log.Info("terminate signal received")
			a.Quit()
		}
	}()

	if err := ui.Run(a); err != nil {
		log.Error("window fail: %v", err)
		return err
	}
	return nil
}
