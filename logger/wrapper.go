package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"io"
	"os"
	"os/exec"
	"runtime/debug"
	"strings"
)

// WrapProcess runs executable as a child, re-emits its JSON stderr lines and turns
// a panic dump into one fatal record. It exits with the child's exit code.
func WrapProcess(executable string, arg ...string) {
	wrapLogger := NewLogger("Logs wrapper")
	defer handlePanic(wrapLogger)

	r, w, err := os.Pipe()
	if err != nil {
		wrapLogger.Fatal().Err(err).Msg("Could not create pipe for logs")
	}

	cmd := exec.Command(executable, arg...)
	cmd.Stderr = w
	cmd.Stdout = os.Stdout

	if err = cmd.Start(); err != nil {
		wrapLogger.Fatal().Err(err).Msg("Could not launch main process")
	}
	wrapLogger.Info().Str("executable", executable).Int("pid", cmd.Process.Pid).Msg("Child process started")

	exitCodeCh := make(chan int)
	logsCh := make(chan []byte)

	go waitForCommandToExit(cmd, wrapLogger, exitCodeCh)
	go collectLogs(r, wrapLogger, logsCh)

	collector := &panicCollector{out: os.Stderr}
	for {
		select {
		case exitCode := <-exitCodeCh:
			handleExit(exitCode, collector.panicLogs(), wrapLogger)
		case line := <-logsCh:
			collector.handleLine(line, wrapLogger)
		}
	}
}

func waitForCommandToExit(cmd *exec.Cmd, wrapLogger zerolog.Logger, exitCodeCh chan<- int) {
	defer handlePanic(wrapLogger)
	err := cmd.Wait()
	if err == nil {
		exitCodeCh <- 0
		return
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		exitCodeCh <- 1
		return
	}
	exitCodeCh <- exitErr.ExitCode()
}

func collectLogs(r io.Reader, wrapLogger zerolog.Logger, logsCh chan<- []byte) {
	defer handlePanic(wrapLogger)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		// scanner reuses its buffer
		line := append([]byte(nil), scanner.Bytes()...)
		logsCh <- line
	}
	if err := scanner.Err(); err != nil {
		wrapLogger.Fatal().Err(err).Msg("Error scanning piped child process stderr")
	}
}

func handleExit(exitCode int, panicLogs string, wrapLogger zerolog.Logger) {
	if exitCode == 0 {
		wrapLogger.Info().Msg("Exited with code 0")
		os.Exit(0)
	}
	if panicLogs == "" {
		wrapLogger.Error().Msgf("Exited with code: %d", exitCode)
		os.Exit(exitCode)
	}
	wrapLogger.WithLevel(zerolog.FatalLevel).
		Err(errors.New(panicLogs)).
		Msgf("Panicked and exited with code: %d", exitCode)
	os.Exit(exitCode)
}

type panicCollector struct {
	out        io.Writer
	foundPanic bool
	builder    strings.Builder
}

func (c *panicCollector) handleLine(lineBytes []byte, wrapLogger zerolog.Logger) {
	line := string(lineBytes)
	if !c.foundPanic && strings.HasPrefix(line, "panic") {
		c.foundPanic = true
	}
	switch {
	case len(lineBytes) == 0:
	case c.foundPanic:
		c.builder.WriteString(line)
		c.builder.WriteString("\n")
	case isJSON(lineBytes):
		fmt.Fprintln(c.out, line)
	default:
		wrapLogger.Error().Msgf("Got log line that is not JSON formatted: '%s'", line)
	}
}

func (c *panicCollector) panicLogs() string {
	return c.builder.String()
}

func handlePanic(wrapLogger zerolog.Logger) {
	r := recover()
	if r == nil {
		return
	}
	wrapLogger.Fatal().
		Caller().
		Str("error", fmt.Sprint(r)).
		Str("stack_trace", string(debug.Stack())).
		Msg("Program panicked and exited")
}

func isJSON(b []byte) bool {
	var js json.RawMessage
	err := json.Unmarshal(b, &js)
	return err == nil && js != nil
}
