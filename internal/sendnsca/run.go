// Package sendnsca implements the send-nsca command: it reads check results
// from standard input and submits each to an NSCA daemon.
package sendnsca

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"ozzus/nsca-agent/internal/lib/logger"
	"ozzus/nsca-agent/internal/lib/logger/sl"
	"ozzus/nsca-agent/internal/nsca"
	"ozzus/nsca-agent/internal/nsca/crypt"
)

type options struct {
	host       string
	port       int
	timeout    int
	delim      string
	configPath string
	encryption string
	verbose    bool
	listCiph   bool
}

func parseFlags(args []string, stderr io.Writer) (*pflag.FlagSet, options, error) {
	var o options

	fs := pflag.NewFlagSet("send-nsca", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&o.host, "host", "H", "", "address of the NSCA daemon")
	fs.IntVarP(&o.port, "port", "p", nsca.DefaultPort, "port the daemon listens on")
	fs.IntVarP(&o.timeout, "timeout", "t", 0, "connect and I/O timeout in seconds")
	fs.StringVarP(&o.delim, "delim", "d", `\t`, "field delimiter of input lines")
	fs.StringVarP(&o.configPath, "config", "c", "", "client config file (send_nsca.cfg, YAML, JSON or TOML)")
	fs.StringVarP(&o.encryption, "encryption", "e", "", "encryption method, overrides the config file")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "log each submission to stderr")
	fs.BoolVar(&o.listCiph, "list-ciphers", false, "print supported encryption methods and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: send-nsca -H <host> [-p port] [-t timeout] [-d delim] [-c config]\n\n")
		fmt.Fprintf(stderr, "Reads <host>[<delim><svc>]<delim><code><delim><output> lines from stdin.\n\n")
		fs.PrintDefaults()
	}

	return fs, o, fs.Parse(args)
}

// Run executes the command and returns the process exit status.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs, o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}

	level := new(slog.LevelVar)
	log := logger.New(logger.EnvProd, stderr, level)
	level.Set(slog.LevelWarn)
	if o.verbose {
		level.Set(slog.LevelDebug)
	}

	if o.listCiph {
		for _, c := range crypt.Default().Supported() {
			fmt.Fprintf(stdout, "%2d  %s\n", int(c), c)
		}
		return 0
	}

	cfg, err := LoadConfig(o.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if o.host != "" {
		cfg.Address = net.JoinHostPort(o.host, strconv.Itoa(o.port))
	} else if fs.Changed("port") {
		host := cfg.Address
		if h, _, err := net.SplitHostPort(cfg.Address); err == nil {
			host = h
		}
		cfg.Address = net.JoinHostPort(host, strconv.Itoa(o.port))
	}
	if o.encryption != "" {
		cfg.Encryption = o.encryption
	}
	if fs.Changed("timeout") {
		cfg.ConnectTimeout = seconds(o.timeout)
		cfg.StreamTimeout = seconds(o.timeout)
	}

	clientCfg, err := cfg.ClientConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	client, err := nsca.New(clientCfg, nsca.WithLogger(log))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	sent, failed := submit(ctx, client, stdin, unescapeDelim(o.delim), stderr, log)

	fmt.Fprintf(stdout, "%d data packet(s) sent to host successfully.\n", sent)

	if failed > 0 || ctx.Err() != nil {
		return 1
	}
	return 0
}

// submit sends every non-empty line on its own connection. Bad lines are
// reported and skipped.
func submit(ctx context.Context, client *nsca.Client, in io.Reader, delim string, stderr io.Writer, log *slog.Logger) (sent, failed int) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), 64*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		result, err := ParseLine(line, delim)
		if err == nil {
			err = client.Send(ctx, result)
		}
		if err != nil {
			failed++
			fmt.Fprintf(stderr, "Error: line %d: %v\n", lineNo, err)
			log.Debug("submission failed", "line", lineNo, sl.Err(err))
			continue
		}

		sent++
	}

	if err := scanner.Err(); err != nil {
		failed++
		fmt.Fprintf(stderr, "Error: reading input: %v\n", err)
	}

	return sent, failed
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
