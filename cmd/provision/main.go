// Command provision writes an encrypted unlock capsule to the root of a
// removable medium.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Hussein-Mazeh/cybervision-unlock/auth"
	"github.com/Hussein-Mazeh/cybervision-unlock/internal/prompt"
	"github.com/Hussein-Mazeh/cybervision-unlock/internal/vault"
	"github.com/Hussein-Mazeh/cybervision-unlock/store"
)

var flags = []cli.Flag{
	&cli.StringFlag{
		Name:     "drive",
		Aliases:  []string{"d"},
		Required: true,
		Usage:    "drive letter or path to the medium root (e.g. D: or /media/usb)",
	},
	&cli.StringFlag{
		Name:    "password",
		Aliases: []string{"p"},
		Usage:   "password to encrypt the capsule (prompted if omitted)",
	},
	&cli.StringFlag{
		Name:    "ai-key",
		Aliases: []string{"k"},
		Usage:   "optional AI API key to store in the capsule (prompted if omitted, blank to skip)",
	},
	&cli.StringFlag{
		Name:  "token",
		Usage: "token to store instead of a freshly generated one",
	},
	&cli.BoolFlag{
		Name:  "check-breach",
		Usage: "look the password up in the Have I Been Pwned range API",
	},
}

// secretReader reads hidden input; tests replace it.
var secretReader = prompt.Secret

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "provision",
		Usage:     "Provision a medium with an encrypted unlock token",
		Flags:     flags,
		Writer:    stdout,
		ErrWriter: stderr,
		Action: func(cCtx *cli.Context) error {
			paths := store.ResolveRoot(cCtx.String("drive"))
			if err := paths.CheckRoot(); err != nil {
				return err
			}

			password := cCtx.String("password")
			if password == "" {
				pw, err := secretReader("Enter password to encrypt unlock token: ")
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = string(pw)
			}

			aiKey := cCtx.String("ai-key")
			if !cCtx.IsSet("ai-key") {
				k, err := secretReader("Enter AI key to store (leave blank to skip): ")
				if err != nil {
					return fmt.Errorf("read AI key: %w", err)
				}
				aiKey = string(k)
			}

			assessment := auth.AssessCapsulePassword(password, paths.Root)
			for _, w := range assessment.Warnings {
				fmt.Fprintf(stderr, "warning: %s\n", w)
			}

			if cCtx.Bool("check-breach") {
				checkBreach(cCtx.Context, stderr, password)
			}

			capsule, secret, err := vault.Provision(password, vault.Secret{
				Token: cCtx.String("token"),
				AIKey: aiKey,
			})
			if err != nil {
				return err
			}
			if err := store.SaveCapsule(paths, capsule); err != nil {
				return err
			}

			fmt.Fprintf(stdout, "Wrote unlock file to: %s\n", paths.CapsulePath())
			fmt.Fprintln(stdout, "IMPORTANT: Keep the drive safe. If you lose it you will need the password to recreate it.")
			fmt.Fprintf(stdout, "Token (store securely): %s\n", secret.Token)
			return nil
		},
	}
}

func checkBreach(ctx context.Context, stderr io.Writer, password string) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := auth.NewBreachChecker().Check(ctx, password)
	switch {
	case err != nil:
		fmt.Fprintf(stderr, "warning: breach check unavailable: %v\n", err)
	case res.Found:
		fmt.Fprintf(stderr, "warning: password appears in %d known breaches\n", res.Count)
	}
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
