// Package gpg provides GPG signature verification capabilities.
package gpg

import (
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// Verifier checks detached GPG signatures using ProtonMail's go-crypto,
// a maintained, modern fork of golang.org/x/crypto/openpgp.
// This is in external-adapters to isolate the external dependency
type Verifier struct {
	keyring openpgp.EntityList
}

// NewVerifier creates a new GPG verifier
func NewVerifier() *Verifier {
	return &Verifier{
		keyring: make(openpgp.EntityList, 0),
	}
}

// ImportKeyFromFile imports a GPG key from a file, armored or binary
func (v *Verifier) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath is user-provided for GPG key import
	f, err := os.Open(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer f.Close()

	entities, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		// Try reading as binary
		if _, seekErr := f.Seek(0, 0); seekErr != nil {
			return fmt.Errorf("failed to reset file: %w", seekErr)
		}
		entities, err = openpgp.ReadKeyRing(f)
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(entities) == 0 {
		return fmt.Errorf("no keys found in file")
	}

	v.keyring = append(v.keyring, entities...)
	return nil
}

// VerifySignatureFromFile verifies a detached signature from a local file
func (v *Verifier) VerifySignatureFromFile(filePath, sigPath string) error {
	if len(v.keyring) == 0 {
		return fmt.Errorf("no GPG keys imported, call ImportKeyFromFile first")
	}

	// Open signature file
	//nolint:gosec // G304: sigPath is user-provided for GPG verification
	sigFile, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("failed to open signature file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer sigFile.Close()

	// Open data file
	//nolint:gosec // G304: filePath is user-provided for GPG verification
	dataFile, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open data file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer dataFile.Close()

	// Peek at signature file to determine if it's armored
	peekBuf := make([]byte, 27)
	n, _ := io.ReadFull(sigFile, peekBuf)
	isArmored := n == 27 && string(peekBuf[:27]) == "-----BEGIN PGP SIGNATURE---"

	// Reset signature file to beginning
	if _, seekErr := sigFile.Seek(0, 0); seekErr != nil {
		return fmt.Errorf("failed to reset signature file: %w", seekErr)
	}

	// Verify signature using appropriate method
	var verifyErr error
	if isArmored {
		_, verifyErr = openpgp.CheckArmoredDetachedSignature(v.keyring, dataFile, sigFile, nil)
	} else {
		_, verifyErr = openpgp.CheckDetachedSignature(v.keyring, dataFile, sigFile, nil)
	}

	if verifyErr != nil {
		return fmt.Errorf("signature verification failed: %w", verifyErr)
	}

	return nil
}

// KeyringSize returns the number of keys in the keyring
func (v *Verifier) KeyringSize() int {
	return len(v.keyring)
}
