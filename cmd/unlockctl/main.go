package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/Hussein-Mazeh/cybervision-unlock/internal/client"
	"github.com/Hussein-Mazeh/cybervision-unlock/internal/config"
	"github.com/Hussein-Mazeh/cybervision-unlock/internal/handshake"
	"github.com/Hussein-Mazeh/cybervision-unlock/internal/logging"
	"github.com/Hussein-Mazeh/cybervision-unlock/internal/profile"
	"github.com/Hussein-Mazeh/cybervision-unlock/internal/prompt"
	"github.com/Hussein-Mazeh/cybervision-unlock/internal/service"
	"github.com/Hussein-Mazeh/cybervision-unlock/krypto"
)

const defaultDB = "data/unlock.db"

type userError struct {
	msg string
}

func (e userError) Error() string { return e.msg }

// secretReader reads hidden input; tests replace it.
var secretReader = prompt.Secret

var newRedeemClient = client.New

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		handleError(err)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		printUsage()
		return userError{msg: "missing command"}
	}

	switch args[0] {
	case "version":
		fmt.Fprintln(stdout, logging.Version)
		return nil
	case "profile":
		if len(args) < 2 {
			printProfileUsage()
			return userError{msg: "missing profile command"}
		}
		switch args[1] {
		case "set":
			return runProfileSet(args[2:], stdout)
		case "delete":
			return runProfileDelete(args[2:], stdout)
		default:
			printProfileUsage()
			return userError{msg: "unknown profile command: " + args[1]}
		}
	case "issue":
		return runIssue(args[1:], stdout)
	case "sign":
		return runSign(args[1:], stdout)
	case "redeem":
		return runRedeem(args[1:], stdout)
	case "sweep":
		return runSweep(args[1:], stdout)
	default:
		printUsage()
		return userError{msg: "unknown command: " + args[0]}
	}
}

func handleError(err error) {
	if err == nil {
		return
	}

	var uerr userError
	if errors.As(err, &uerr) {
		fmt.Fprintln(os.Stderr, uerr.Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "unexpected error: %v\n", err)
	os.Exit(2)
}

func signingSecret() ([]byte, error) {
	v := os.Getenv(config.SecretEnv)
	if v == "" {
		return nil, userError{msg: config.SecretEnv + " is not set"}
	}
	return []byte(v), nil
}

func openService(ctx context.Context, dbPath string) (*service.Service, error) {
	secret, err := signingSecret()
	if err != nil {
		return nil, err
	}
	defer krypto.Zeroize(secret)
	return service.New(ctx, service.Options{DatabasePath: dbPath, Secret: secret})
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid arguments"}
	}
	if fs.NArg() != 0 {
		return userError{msg: "unexpected positional arguments"}
	}
	return nil
}

func runProfileSet(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("profile set", flag.ContinueOnError)
	var dbPath, user string
	fs.StringVar(&dbPath, "db", defaultDB, "SQLite database path")
	fs.StringVar(&user, "user", "", "profile user name")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if user == "" {
		return userError{msg: "missing required flag: --user"}
	}

	apiKey, err := secretReader("API key: ")
	if err != nil {
		return fmt.Errorf("read API key: %w", err)
	}
	defer krypto.Zeroize(apiKey)
	if len(apiKey) == 0 {
		return userError{msg: "API key must not be empty"}
	}

	ctx := context.Background()
	svc, err := openService(ctx, dbPath)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.SetSecret(ctx, user, string(apiKey)); err != nil {
		return fmt.Errorf("store profile: %w", err)
	}
	fmt.Fprintf(stdout, "API key stored for user %s\n", user)
	return nil
}

func runProfileDelete(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("profile delete", flag.ContinueOnError)
	var dbPath, user string
	fs.StringVar(&dbPath, "db", defaultDB, "SQLite database path")
	fs.StringVar(&user, "user", "", "profile user name")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if user == "" {
		return userError{msg: "missing required flag: --user"}
	}

	ctx := context.Background()
	svc, err := openService(ctx, dbPath)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.DeleteProfile(ctx, user); err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return userError{msg: "no profile for user " + user}
		}
		return err
	}
	fmt.Fprintf(stdout, "profile deleted for user %s\n", user)
	return nil
}

func runIssue(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("issue", flag.ContinueOnError)
	var dbPath, user string
	fs.StringVar(&dbPath, "db", defaultDB, "SQLite database path")
	fs.StringVar(&user, "user", "", "user the token is issued to")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if user == "" {
		return userError{msg: "missing required flag: --user"}
	}

	ctx := context.Background()
	svc, err := openService(ctx, dbPath)
	if err != nil {
		return err
	}
	defer svc.Close()

	g, err := svc.Issue(ctx, user)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "token: %s\nexpires: %s\n", g.Token, g.ExpiresAt.UTC().Format(time.RFC3339))
	return nil
}

func runSign(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	var token, ts string
	fs.StringVar(&token, "token", "", "handshake token")
	fs.StringVar(&ts, "timestamp", "", "unix seconds (defaults to now)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if token == "" {
		return userError{msg: "missing required flag: --token"}
	}

	timestamp := time.Now().Unix()
	if ts != "" {
		v, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return userError{msg: "timestamp must be an integer"}
		}
		timestamp = v
	}

	secret, err := signingSecret()
	if err != nil {
		return err
	}
	defer krypto.Zeroize(secret)

	fmt.Fprintf(stdout, "timestamp: %d\nsignature: %s\n", timestamp, handshake.Sign(secret, token, timestamp))
	return nil
}

func runRedeem(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("redeem", flag.ContinueOnError)
	var url, token string
	fs.StringVar(&url, "url", "http://127.0.0.1:8080", "unlockd base URL")
	fs.StringVar(&token, "token", "", "handshake token")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if token == "" {
		return userError{msg: "missing required flag: --token"}
	}

	secret, err := signingSecret()
	if err != nil {
		return err
	}
	defer krypto.Zeroize(secret)

	res, err := newRedeemClient(url, secret).Redeem(context.Background(), token)
	switch {
	case errors.Is(err, handshake.ErrInvalidSignature):
		return userError{msg: "server rejected the signature"}
	case errors.Is(err, handshake.ErrUnknownToken):
		return userError{msg: "token unknown or already used"}
	case errors.Is(err, handshake.ErrTokenExpired):
		return userError{msg: "token expired"}
	case err != nil:
		return err
	}

	fmt.Fprintf(stdout, "redeemed for user %s\n", res.User)
	if res.Secret != "" {
		fmt.Fprintln(stdout, "API key present (not printed for security).")
	}
	return nil
}

func runSweep(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	var dbPath string
	fs.StringVar(&dbPath, "db", defaultDB, "SQLite database path")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	ctx := context.Background()
	svc, err := openService(ctx, dbPath)
	if err != nil {
		return err
	}
	defer svc.Close()

	n, err := svc.Sweeper(0, nil).SweepOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "removed %d expired tokens\n", n)
	return nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: unlockctl <command>")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  version")
	fmt.Fprintln(os.Stderr, "  profile set --db <path> --user <name>")
	fmt.Fprintln(os.Stderr, "  profile delete --db <path> --user <name>")
	fmt.Fprintln(os.Stderr, "  issue --db <path> --user <name>")
	fmt.Fprintln(os.Stderr, "  sign --token <token> [--timestamp <unix>]")
	fmt.Fprintln(os.Stderr, "  redeem --url <base-url> --token <token>")
	fmt.Fprintln(os.Stderr, "  sweep --db <path>")
	fmt.Fprintf(os.Stderr, "The signing secret is read from %s.\n", config.SecretEnv)
}

func printProfileUsage() {
	fmt.Fprintln(os.Stderr, "Usage: unlockctl profile <set|delete> --db <path> --user <name>")
}
