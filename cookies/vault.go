package cookies

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	sealAlgorithm = "xchacha20poly1305"
	keyringUser   = "cookie-file-key"
)

var (
	errSealedNoVault = errors.New("cookie file is sealed but encryption is disabled")
	errBadEnvelope   = errors.New("malformed sealed cookie file")
)

type envelope struct {
	Sealed string `json:"sealed"`
	Nonce  string `json:"nonce"`
	Data   string `json:"data"`
}

// Vault seals the cookie file with a key kept in the OS keyring. Every
// packaged variant uses the same keyring service, so they can all open it.
type Vault struct {
	service string

	mu  sync.Mutex
	key []byte
}

func NewVault(service string) *Vault {
	return &Vault{service: service}
}

func (v *Vault) loadKey() ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.key != nil {
		return v.key, nil
	}

	encoded, err := keyring.Get(v.service, keyringUser)
	switch {
	case err == nil:
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil || len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("keyring entry %s/%s is not a valid key", v.service, keyringUser)
		}
		v.key = key
	case errors.Is(err, keyring.ErrNotFound):
		key := make([]byte, chacha20poly1305.KeySize)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
		if err := keyring.Set(v.service, keyringUser, base64.StdEncoding.EncodeToString(key)); err != nil {
			return nil, fmt.Errorf("store cookie key: %w", err)
		}
		v.key = key
	default:
		return nil, fmt.Errorf("read cookie key: %w", err)
	}
	return v.key, nil
}

// Seal encrypts plain into a JSON envelope.
func (v *Vault) Seal(plain []byte) ([]byte, error) {
	key, err := v.loadKey()
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	sealed := aead.Seal(nil, nonce, plain, []byte(sealAlgorithm))
	return json.Marshal(envelope{
		Sealed: sealAlgorithm,
		Nonce:  base64.StdEncoding.EncodeToString(nonce),
		Data:   base64.StdEncoding.EncodeToString(sealed),
	})
}

// Open reverses Seal.
func (v *Vault) Open(data []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Sealed != sealAlgorithm {
		return nil, errBadEnvelope
	}
	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return nil, errBadEnvelope
	}
	sealed, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, errBadEnvelope
	}
	key, err := v.loadKey()
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, errBadEnvelope
	}
	return aead.Open(nil, nonce, sealed, []byte(sealAlgorithm))
}

// IsSealed reports whether data looks like a Vault envelope rather than a
// plain cookie list.
func IsSealed(data []byte) bool {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return false
	}
	var env envelope
	return json.Unmarshal(data, &env) == nil && env.Sealed != ""
}
