package cmd

import (
	"context"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/osutil"
	"github.com/AdguardTeam/golibs/service"
	"gopkg.in/natefinch/lumberjack.v2"
)

// signalHandler processes incoming signals.  It reopens the log file on SIGHUP
// and shuts the services down on all other signals.
type signalHandler struct {
	logger *slog.Logger

	// signals receives incoming signals.
	signals <-chan os.Signal

	// svc is shut down on the shutdown signals.
	svc service.Interface

	// logFile is the rotated log output, if any.
	logFile *lumberjack.Logger

	// shutdownTimeout is the timeout for shutting svc down.
	shutdownTimeout time.Duration
}

// handle processes incoming signals.  It blocks until a shutdown signal is
// received and returns the exit code.
func (h *signalHandler) handle(ctx context.Context) (exitCode int) {
	defer slogutil.RecoverAndLog(ctx, h.logger)

	for sig := range h.signals {
		h.logger.InfoContext(ctx, "received signal", "signal", sig)

		if sig == syscall.SIGHUP {
			h.reopenLog(ctx)

			continue
		}

		return h.shutdown(ctx)
	}

	return osutil.ExitCodeSuccess
}

// reopenLog reopens the log file, if any, so that external rotation tools can
// move the old one.
func (h *signalHandler) reopenLog(ctx context.Context) {
	if h.logFile == nil {
		return
	}

	err := h.logFile.Rotate()
	if err != nil {
		h.logger.ErrorContext(ctx, "rotating log file", slogutil.KeyError, err)
	}
}

// shutdown gracefully shuts down the service and returns the exit code.
func (h *signalHandler) shutdown(ctx context.Context) (exitCode int) {
	ctx, cancel := context.WithTimeout(ctx, h.shutdownTimeout)
	defer cancel()

	h.logger.InfoContext(ctx, "shutting down services")

	err := h.svc.Shutdown(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "shutting down", slogutil.KeyError, err)

		return osutil.ExitCodeFailure
	}

	return osutil.ExitCodeSuccess
}
