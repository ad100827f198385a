package logger

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// configuration :
// Controls how the standard-output logger behaves: which severities reach
// the terminal and how the emitting process identifies itself in each line.
// Parsed once from viper at construction time (pkg/config loads the same
// file ahead of this, so both share `config.yaml`/env var precedence).
//
// The `AppName` is printed at the front of every line and is read from the
// `Logger.Name` key; callers tell their lines apart by the module tag passed
// to `Trace` ("simcore", "store", ...), not by this name.
// The default value is "nebulacore".
//
// The `Environment` distinguishes a local run from a deployed one; it has
// no effect on behavior here beyond being printed, but keeps parity with
// other environment-tagged config sections.
// The default value is "development".
//
// The `Level` is the minimum severity that reaches the output device.
// The default value is "info".
//
// The `Buffer` is the size of the channel absorbing bursts of trace
// messages (a single `advance_days(365)` call can emit thousands of
// stall/event lines in one burst) before they are drained to stdout.
// The default value is 500.
type configuration struct {
	AppName     string
	Environment string
	Level       string
	Buffer      int
}

// traceMessage :
// One entry enqueued by `Trace`: a severity, the module/component that
// produced it (e.g. "economy", "combat", "store"), and the rendered text.
type traceMessage struct {
	level   Severity
	module  string
	content string
}

// StdLogger :
// Forwards trace messages to stdout through a buffered channel so callers
// are never blocked behind the (comparatively slow) act of formatting and
// printing a line. Safe for concurrent use by multiple goroutines issuing
// `Trace` calls (pkg/store's background healthcheck goroutine traces
// through the same logger as the code that created the store).
//
// The `config` holds the parsed display/level settings.
//
// The `minLevel` is the parsed `config.Level` severity, compared against
// every incoming trace to decide whether it is dropped or printed.
//
// The `logChannel` receives trace messages from any goroutine before the
// background loop prints them.
//
// The `endChannel` signals the background loop to drain and stop.
//
// The `closed`/`locker` pair guards against sending on a channel after
// `Release` has started tearing it down.
//
// The `waiter` lets `Release` block until the last buffered line is
// actually printed.
type StdLogger struct {
	config     configuration
	minLevel   Severity
	logChannel chan traceMessage
	endChannel chan bool
	closed     bool
	locker     sync.Mutex
	waiter     sync.WaitGroup
}

var severityByName = map[string]Severity{
	"verbose":  Verbose,
	"debug":    Debug,
	"info":     Info,
	"notice":   Notice,
	"warning":  Warning,
	"error":    Error,
	"critical": Critical,
	"fatal":    Fatal,
}

// parseConfiguration :
// Builds the default configuration, then overrides it with anything set in
// viper under the `Logger.*` keys.
//
// Returns the parsed configuration.
func parseConfiguration() configuration {
	config := configuration{
		AppName:     "nebulacore",
		Environment: "development",
		Level:       "info",
		Buffer:      500,
	}

	if viper.IsSet("Logger.Name") {
		config.AppName = viper.GetString("Logger.Name")
	}
	if viper.IsSet("Logger.Environment") {
		config.Environment = viper.GetString("Logger.Environment")
	}
	if viper.IsSet("Logger.Level") {
		config.Level = viper.GetString("Logger.Level")
	}
	if viper.IsSet("Logger.Buffer") {
		config.Buffer = viper.GetInt("Logger.Buffer")
	}

	return config
}

// NewStdLogger :
// Builds a logger reading its configuration from viper (pkg/config should
// already have loaded the config file/environment before this is called).
//
// Returns the constructed, already-running logger.
func NewStdLogger() Logger {
	config := parseConfiguration()

	minLevel, ok := severityByName[config.Level]
	if !ok {
		minLevel = Info
	}

	log := StdLogger{
		config:     config,
		minLevel:   minLevel,
		logChannel: make(chan traceMessage, config.Buffer),
		endChannel: make(chan bool),
	}

	log.waiter.Add(1)
	go log.performLogging()

	return &log
}

// Release :
// Stops the background printing loop, blocking until every message already
// enqueued has been printed.
func (log *StdLogger) Release() {
	log.endChannel <- false

	log.locker.Lock()
	log.closed = true
	close(log.logChannel)
	log.locker.Unlock()

	log.waiter.Wait()
}

// Trace :
// Enqueues a message for printing. Non-blocking unless the internal buffer
// is full, in which case the caller waits for a slot (the same
// back-pressure behavior the teacher's logger uses, since silently
// dropping a warning about a stalled colony is worse than a brief stall in
// the caller).
//
// The `level` is the severity of the message.
//
// The `module` identifies the component emitting it.
//
// The `message` is the rendered text to print.
func (log *StdLogger) Trace(level Severity, module string, message string) {
	if level < log.minLevel {
		return
	}

	trace := traceMessage{level: level, module: module, content: message}

	log.locker.Lock()
	defer log.locker.Unlock()
	if !log.closed {
		log.logChannel <- trace
	}
}

// performLogging :
// Background loop: drains `logChannel` to stdout until `endChannel` fires,
// then drains whatever remains before signaling completion.
func (log *StdLogger) performLogging() {
	keepRunning := true

	for keepRunning {
		select {
		case keepRunning = <-log.endChannel:
		case trace := <-log.logChannel:
			log.performSingleLog(trace)
		}
	}

	for trace := range log.logChannel {
		log.performSingleLog(trace)
	}

	log.waiter.Done()
}

// performSingleLog :
// Renders one trace message to stdout, coloring the level tag by severity
// so warnings and errors stand out in a long scrollback.
func (log *StdLogger) performSingleLog(trace traceMessage) {
	out := FormatWithBrackets(log.config.AppName, Magenta)
	out += " " + FormatWithNoBrackets(time.Now().Format("2006-01-02 15:04:05"), Magenta)
	out += " " + FormatWithBrackets(trace.level.String(), SeverityColor(trace.level))
	if trace.module != "" {
		out += " " + FormatWithBrackets(trace.module, Blue)
	}
	out += " " + trace.content

	fmt.Println(out)
}
