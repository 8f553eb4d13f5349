package setupvars

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/AdguardTeam/dnsreport/internal/privacy"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/service"
	"github.com/fsnotify/fsnotify"
	"github.com/google/renameio/v2/maybe"
)

// Config is the configuration structure for [File].
type Config struct {
	// Logger is used for logging the operation of the settings file.  It must
	// not be nil.
	Logger *slog.Logger

	// Path is the path to the settings file.  It must not be empty.  The file
	// may not exist, but its directory must.
	Path string

	// Watch enables reloading the file when it is written by others.
	Watch bool
}

// File is the settings file.  It is safe for concurrent use.
type File struct {
	logger *slog.Logger

	// watcher is nil if watching is disabled.
	watcher *fsnotify.Watcher

	// mu protects settings, lines, and writes of the file.
	mu       *sync.RWMutex
	settings *Settings
	lines    []line

	path string
}

// New reads the settings file and returns a new *File.  A missing file means
// the default settings.  conf must not be nil.
func New(conf *Config) (f *File, err error) {
	defer func() { err = errors.Annotate(err, "settings file %q: %w", conf.Path) }()

	f = &File{
		logger: conf.Logger,
		mu:     &sync.RWMutex{},
		path:   conf.Path,
	}

	f.settings, f.lines, err = f.read()
	if err != nil {
		return nil, err
	}

	if conf.Watch {
		f.watcher, err = fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("creating watcher: %w", err)
		}
	}

	return f, nil
}

// read reads and parses the file.
func (f *File) read() (s *Settings, lines []line, err error) {
	// #nosec G304 -- Trust the path from the configuration.
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil, nil
	} else if err != nil {
		return nil, nil, fmt.Errorf("reading: %w", err)
	}

	return parse(data)
}

// Settings returns the current settings.  s must not be modified.
func (f *File) Settings() (s *Settings) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.settings
}

// type check
var _ privacy.Source = (*File)(nil)

// PrivacyLevel implements the [privacy.Source] interface for *File.
func (f *File) PrivacyLevel() (l privacy.Level) {
	return f.Settings().PrivacyLevel
}

// SetBlockingEnabled stores the blocking state in the file.
func (f *File) SetBlockingEnabled(ctx context.Context, enabled bool) (err error) {
	return f.set(ctx, KeyBlockingEnabled, strconv.FormatBool(enabled))
}

// SetPrivacyLevel stores the privacy level in the file.
func (f *File) SetPrivacyLevel(ctx context.Context, l privacy.Level) (err error) {
	err = l.Validate()
	if err != nil {
		return fmt.Errorf("setting %s: %w", KeyPrivacyLevel, err)
	}

	return f.set(ctx, KeyPrivacyLevel, strconv.Itoa(int(l)))
}

// set writes the key with the value into the file and updates the current
// settings.
func (f *File) set(ctx context.Context, key, val string) (err error) {
	defer func() { err = errors.Annotate(err, "setting %s: %w", key) }()

	f.mu.Lock()
	defer f.mu.Unlock()

	next := *f.settings
	err = next.set(key, val)
	if err != nil {
		return err
	}

	data, lines := render(f.lines, key, val)
	err = maybe.WriteFile(f.path, data, 0o644)
	if err != nil {
		return fmt.Errorf("writing: %w", err)
	}

	f.settings, f.lines = &next, lines

	f.logger.DebugContext(ctx, "updated", "key", key, "value", val)

	return nil
}

// reload re-reads the file.  The current settings are kept if the file is
// invalid.
func (f *File) reload(ctx context.Context) {
	s, lines, err := f.read()
	if err != nil {
		f.logger.ErrorContext(ctx, "reloading", slogutil.KeyError, err)

		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.settings, f.lines = s, lines

	f.logger.DebugContext(ctx, "reloaded")
}

// type check
var _ service.Interface = (*File)(nil)

// Start implements the [service.Interface] interface for *File.  It starts
// watching the file if configured.
func (f *File) Start(ctx context.Context) (err error) {
	if f.watcher == nil {
		return nil
	}

	// Watch the directory, since the file may not exist yet and since it is
	// replaced on every atomic write.
	err = f.watcher.Add(filepath.Dir(f.path))
	if err != nil {
		return fmt.Errorf("watching settings file: %w", err)
	}

	ctx = context.WithoutCancel(ctx)
	go f.handleEvents(ctx)
	go f.handleErrors(ctx)

	return nil
}

// Shutdown implements the [service.Interface] interface for *File.
func (f *File) Shutdown(_ context.Context) (err error) {
	if f.watcher == nil {
		return nil
	}

	return f.watcher.Close()
}

// handleEvents reloads the file on writes.  It is intended to be used as a
// goroutine.
func (f *File) handleEvents(ctx context.Context) {
	defer slogutil.RecoverAndLog(ctx, f.logger)

	name := filepath.Clean(f.path)
	ch := f.watcher.Events
	for e := range ch {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 || filepath.Clean(e.Name) != name {
			continue
		}

		skipDuplicates(ch)
		f.reload(ctx)
	}
}

// skipDuplicates drains the channel, since a single write may produce several
// events.
func skipDuplicates(ch <-chan fsnotify.Event) {
	for {
		select {
		case <-ch:
			// Go on.
		default:
			return
		}
	}
}

// handleErrors logs the errors of the watcher.  It is intended to be used as
// a goroutine.
func (f *File) handleErrors(ctx context.Context) {
	defer slogutil.RecoverAndLog(ctx, f.logger)

	for err := range f.watcher.Errors {
		f.logger.ErrorContext(ctx, "watching", slogutil.KeyError, err)
	}
}
