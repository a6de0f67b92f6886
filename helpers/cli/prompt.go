// Package cli runs line oriented commands from terminal prompt or piped stdin.
package cli

import (
	"bufio"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/c-bata/go-prompt"
	"github.com/mattn/go-isatty"
)

// MainLoop blocks until stdin ends, prompt exits or a signal arrives.
// onSignal may be nil, then process exits with status 1.
func MainLoop(tag string, exec func(line string), complete func(d prompt.Document) []prompt.Suggest, onSignal func()) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	defer signal.Stop(signalCh)
	go func() {
		for range signalCh {
			if onSignal == nil {
				os.Exit(1)
			}
			onSignal()
		}
	}()

	if complete == nil {
		complete = func(prompt.Document) []prompt.Suggest { return nil }
	}
	if isatty.IsTerminal(os.Stdin.Fd()) {
		prompt.New(exec, complete,
			prompt.OptionPrefix(tag+"> "),
			prompt.OptionTitle(tag),
		).Run()
	} else {
		ExecLines(os.Stdin, exec)
	}
}

// ExecLines calls exec for every non-empty trimmed line.
func ExecLines(r io.Reader, exec func(line string)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		exec(line)
	}
}

// Suggest filters fixed words by prefix before cursor.
func Suggest(words []prompt.Suggest) func(d prompt.Document) []prompt.Suggest {
	return func(d prompt.Document) []prompt.Suggest {
		return prompt.FilterHasPrefix(words, d.GetWordBeforeCursor(), true)
	}
}
