package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
)

const armoredSignatureHeader = "-----BEGIN PGP SIGNATURE-----"

// LoadKeyring reads an armored or binary public keyring from path.
func LoadKeyring(path string) (openpgp.EntityList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}

	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse public key %s: %w", path, err)
		}
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("no keys found in %s", path)
	}
	return entities, nil
}

// VerifySignature checks the detached signature sigPath over sumsPath.
// When keyID is set, the signing key's fingerprint must end with it, which
// accepts both long key IDs and full fingerprints.
func VerifySignature(sumsPath string, sigPath string, keyring openpgp.EntityList, keyID string) error {
	sums, err := os.ReadFile(sumsPath)
	if err != nil {
		return err
	}
	sig, err := os.ReadFile(sigPath)
	if err != nil {
		return err
	}

	var signer *openpgp.Entity
	if bytes.HasPrefix(bytes.TrimSpace(sig), []byte(armoredSignatureHeader)) {
		signer, err = openpgp.CheckArmoredDetachedSignature(keyring, bytes.NewReader(sums), bytes.NewReader(sig), nil)
	} else {
		signer, err = openpgp.CheckDetachedSignature(keyring, bytes.NewReader(sums), bytes.NewReader(sig), nil)
	}
	if err != nil {
		return fmt.Errorf("signature verification of %s failed: %w", sumsPath, err)
	}

	if keyID == "" {
		return nil
	}
	fingerprint := fmt.Sprintf("%X", signer.PrimaryKey.Fingerprint)
	if !strings.HasSuffix(fingerprint, strings.ToUpper(keyID)) {
		return &ConfigurationError{
			Key:    "GPG_KEY_ID",
			Reason: fmt.Sprintf("%s was signed by %s, not by key %s", sumsPath, fingerprint, keyID),
		}
	}
	return nil
}
