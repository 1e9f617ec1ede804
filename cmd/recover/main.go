// Command recover decrypts the unlock capsule on a removable medium and
// prints the stored token.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

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
		Usage:   "password to decrypt the capsule (prompted if omitted)",
	},
}

var secretReader = prompt.Secret

func newApp(stdout io.Writer) *cli.App {
	return &cli.App{
		Name:   "recover",
		Usage:  "Check a medium for the unlock capsule and decrypt it",
		Flags:  flags,
		Writer: stdout,
		Action: func(cCtx *cli.Context) error {
			paths := store.ResolveRoot(cCtx.String("drive"))

			data, err := store.LoadCapsule(paths)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("unlock file not found at: %s", paths.CapsulePath())
				}
				return err
			}

			password := cCtx.String("password")
			if password == "" {
				pw, err := secretReader("Enter password to decrypt unlock token: ")
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = string(pw)
			}

			payload, err := vault.Recover(data, password)
			switch {
			case errors.Is(err, vault.ErrDecryptionFailed):
				return errors.New("decryption failed: incorrect password or corrupted file")
			case errors.Is(err, vault.ErrMalformedCapsule):
				return fmt.Errorf("unlock file is malformed: %w", err)
			case err != nil:
				return err
			}

			fmt.Fprintln(stdout, "SUCCESS")
			fmt.Fprintf(stdout, "Token: %s\n", payload.Token)
			if payload.AIKey != "" {
				fmt.Fprintln(stdout, "AI key present (not printed for security).")
			}
			return nil
		},
	}
}

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
