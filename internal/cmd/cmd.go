// Package cmd is the dnsreport entry point.  It reads the configuration file,
// assembles the services, and sets up signal processing logic.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdguardTeam/dnsreport/internal/version"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/osutil"
)

// Default timeouts of starting and shutting the services down.
const (
	defaultTimeoutStart    = 1 * time.Minute
	defaultTimeoutShutdown = 5 * time.Second
)

// Main is the entry point of dnsreport.
func Main() {
	ctx := context.Background()

	cmdName := os.Args[0]
	opts, err := parseOptions(cmdName, os.Args[1:], os.Stderr)
	exitCode, needExit := processOptions(opts, cmdName, err, os.Stdout)
	if needExit {
		os.Exit(exitCode)
	}

	conf, err := readConfig(opts.confFile)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)

		os.Exit(osutil.ExitCodeFailure)
	}

	logger, logFile := newLogger(conf.Log, opts.verbose)
	defer slogutil.RecoverAndExit(ctx, logger, osutil.ExitCodeFailure)

	logger.InfoContext(
		ctx,
		"starting dnsreport",
		"version", version.Version(),
		"channel", version.Channel(),
		"pid", os.Getpid(),
	)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	startCtx, startCancel := context.WithTimeout(ctx, defaultTimeoutStart)
	defer startCancel()

	mgr, err := newServiceMgr(startCtx, logger, conf)
	check(err)

	err = mgr.Start(startCtx)
	check(err)

	h := &signalHandler{
		logger:          logger.With(slogutil.KeyPrefix, "sighdlr"),
		signals:         signals,
		svc:             mgr,
		logFile:         logFile,
		shutdownTimeout: defaultTimeoutShutdown,
	}

	exitCode = h.handle(ctx)
	logger.InfoContext(ctx, "exiting", "code", exitCode)

	os.Exit(exitCode)
}

// check is a simple error-checking helper.  It must only be used within Main.
func check(err error) {
	if err != nil {
		panic(err)
	}
}
