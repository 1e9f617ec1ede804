// Package prompt reads secrets from the controlling terminal.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// piped buffers a non-terminal stdin across calls so that consecutive
// prompts each consume one line of the same stream.
var (
	pipedMu  sync.Mutex
	pipedSrc *os.File
	piped    *bufio.Reader
)

// Secret prints label to stderr and reads a line without echo. When stdin is
// not a terminal the line is read as-is, so secrets can be piped in.
func Secret(label string) ([]byte, error) {
	fmt.Fprint(os.Stderr, label)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := readLine(stdinReader())
		fmt.Fprintln(os.Stderr)
		return line, err
	}
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

func stdinReader() *bufio.Reader {
	pipedMu.Lock()
	defer pipedMu.Unlock()
	if piped == nil || pipedSrc != os.Stdin {
		pipedSrc = os.Stdin
		piped = bufio.NewReader(os.Stdin)
	}
	return piped
}

func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}
