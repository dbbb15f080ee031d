package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
)

// ErrMalformedCiphertext is returned by Decrypt when the input is not valid
// base64, is too short, or was produced under a different key. Callers on
// display paths treat it as non-fatal (omit the field); callers performing
// uniqueness or credential checks must treat it as fatal.
var ErrMalformedCiphertext = errors.New("malformed ciphertext")

// Cipher encrypts PII columns (email, phone) so they stay confidential at
// rest while remaining usable as equality-lookup values.
//
// Encryption is DELIBERATELY deterministic: for a fixed key, the same
// plaintext always yields the same ciphertext. The stored ciphertext doubles
// as the unique/lookup column ("find account by email", "does this email
// already exist?"). The trade-off is confidentiality against passive storage
// disclosure, not semantic security: an observer of the table can tell when
// two rows share a plaintext. Do not "fix" this by introducing random nonces;
// that silently breaks every uniqueness check and lookup built on top of it.
//
// Construction: AES-256-GCM with a synthetic nonce, the first 12 bytes of
// HMAC-SHA256(macKey, plaintext). The GCM tag still authenticates the value,
// so Decrypt reliably rejects ciphertext made under another key.
type Cipher struct {
	encKey []byte // AES-256 key
	macKey []byte // HMAC key for nonce synthesis and the lookup hash
}

// NewCipher derives the encryption and MAC keys from the configured key
// string. The two keys are domain-separated so the lookup hash never reuses
// the AES key directly.
func NewCipher(key string) Cipher {
	enc := sha256.Sum256([]byte("pii-enc:" + key))
	mac := sha256.Sum256([]byte("pii-mac:" + key))
	return Cipher{encKey: enc[:], macKey: mac[:]}
}

// Encrypt returns the deterministic base64 ciphertext of plain.
func (c Cipher) Encrypt(plain string) (string, error) {
	gcm, err := c.aead()
	if err != nil {
		return "", err
	}
	nonce := c.nonce(plain, gcm.NonceSize())
	sealed := gcm.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any structural problem or key mismatch yields
// ErrMalformedCiphertext; the underlying cause is deliberately not exposed.
func (c Cipher) Decrypt(cipherText string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(cipherText)
	if err != nil {
		return "", ErrMalformedCiphertext
	}
	gcm, err := c.aead()
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize() {
		return "", ErrMalformedCiphertext
	}
	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrMalformedCiphertext
	}
	return string(plain), nil
}

// DecryptOrEmpty is the best-effort variant used on display paths (e.g. the
// profile returned after login): a value that cannot be decrypted is reported
// as absent rather than failing the whole request.
func (c Cipher) DecryptOrEmpty(cipherText string) string {
	plain, err := c.Decrypt(cipherText)
	if err != nil {
		return ""
	}
	return plain
}

// Hash returns a keyed one-way lookup hash (HMAC-SHA256, hex) of plain.
// Ciphertext equality is the canonical lookup mechanism today; Hash exists so
// an indexable lookup column can be added without decrypting existing data.
func (c Cipher) Hash(plain string) string {
	mac := hmac.New(sha256.New, c.macKey)
	mac.Write([]byte(plain))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c Cipher) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.encKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// nonce derives the synthetic per-plaintext nonce. Equal plaintexts get equal
// nonces on purpose; see the type comment for why.
func (c Cipher) nonce(plain string, size int) []byte {
	mac := hmac.New(sha256.New, c.macKey)
	mac.Write([]byte(plain))
	sum := mac.Sum(nil)
	return sum[:size]
}
