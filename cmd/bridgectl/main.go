package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/docopt/docopt-go"
	json "github.com/goccy/go-json"
)

const Version = "0.1.0"

const usage = `leobridge client.

Sends actions to a running leobridge and prints each response envelope.
Every connection is its own session, so pass --open to load an outline
before the action runs.

Usage:
    bridgectl call <action> [<param>] [--open=<file>] [--addr=<addr> | --ws=<url>]
    bridgectl repl [--open=<file>] [--addr=<addr> | --ws=<url>]
    bridgectl -h | --help
    bridgectl --version

Options:
    -h --help        Show this screen.
    --version        Show version.
    --addr=<addr>    NDJSON TCP address [default: 127.0.0.1:32125].
    --ws=<url>       WebSocket URL, e.g. ws://127.0.0.1:32126/ws.
    --open=<file>    Outline to open first.

In repl mode each input line is "<action> [json-param]".`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], Version)
	if err != nil {
		fail(err)
	}

	conn, err := dial(opts)
	if err != nil {
		fail(err)
	}
	defer conn.Close()

	client := newClient(conn)
	if _, err := client.ready(); err != nil {
		fail(fmt.Errorf("waiting for ready: %w", err))
	}
	if file, ok := stringOpt(opts, "--open"); ok {
		if err := client.print(os.Stdout, "open", mustJSON(file)); err != nil {
			fail(err)
		}
	}

	if call, _ := opts.Bool("call"); call {
		action, _ := opts.String("<action>")
		param, err := parseParam(opts["<param>"])
		if err != nil {
			fail(err)
		}
		if err := client.print(os.Stdout, action, param); err != nil {
			fail(err)
		}
		return
	}
	if err := repl(client, os.Stdin, os.Stdout); err != nil {
		fail(err)
	}
}

func dial(opts docopt.Opts) (envelopeConn, error) {
	if url, ok := stringOpt(opts, "--ws"); ok {
		return dialWS(url)
	}
	addr, _ := stringOpt(opts, "--addr")
	return dialTCP(addr)
}

func repl(c *client, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		action, rest, _ := strings.Cut(line, " ")
		param, err := parseParam(strings.TrimSpace(rest))
		if err != nil {
			fmt.Fprintf(out, "bridgectl: %v\n", err)
			continue
		}
		if err := c.print(out, action, param); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// parseParam accepts JSON, or treats anything else as a plain string.
func parseParam(v any) (json.RawMessage, error) {
	s, _ := v.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if json.Valid([]byte(s)) {
		return json.RawMessage(s), nil
	}
	return mustJSON(s), nil
}

func mustJSON(s string) json.RawMessage {
	raw, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	return raw
}

func stringOpt(opts docopt.Opts, name string) (string, bool) {
	v, ok := opts[name].(string)
	return v, ok && v != ""
}

func fail(err error) {
	if errors.Is(err, io.EOF) {
		err = errors.New("connection closed by bridge")
	}
	fmt.Fprintf(os.Stderr, "bridgectl: %v\n", err)
	os.Exit(1)
}
