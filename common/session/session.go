// Package session ports the anonymous Diffie-Hellman key agreement and
// AES-256-CBC cipher setup from original_source/encryption.rs. It is
// wired nowhere in the decode path: the original author never completed
// the real client's handshake (EAC reversing was never finished, so
// there's no way to derive a real client's secret), and this repository
// does not attempt to decrypt Photon message encryption either (spec.md
// §1 Non-goals). The type is kept because the spec's worked examples
// reference the encrypted-bit in the message header, and a reader
// should be able to see exactly how far the crypto was ever taken.
package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"math/big"

	"github.com/pkg/errors"
)

// primeBytes is the 768-bit (96-byte) MODP group prime from original_source/encryption.rs.
var primeBytes = []byte{
	255, 255, 255, 255, 255, 255, 255, 255, 201, 15, 218, 162, 33, 104, 194, 52, 196, 198,
	98, 139, 128, 220, 28, 209, 41, 2, 78, 8, 138, 103, 204, 116, 2, 11, 190, 166, 59, 19,
	155, 34, 81, 74, 8, 121, 142, 52, 4, 221, 239, 149, 25, 179, 205, 58, 67, 27, 48, 43,
	10, 109, 242, 95, 20, 55, 79, 225, 53, 109, 109, 81, 194, 69, 228, 133, 181, 118, 98,
	94, 126, 198, 244, 76, 66, 233, 166, 58, 54, 32, 255, 255, 255, 255, 255, 255, 255,
	255,
}

const generator = 22

const secretBits = 160 * 8

// ErrNotEstablished is returned by Encrypt/Decrypt before MakeSharedKey
// has been called.
var ErrNotEstablished = errors.New("session: no shared key established")

// Session holds one side of an anonymous-DH key agreement plus the
// AES-256-CBC cipher derived from it, mirroring encryption.rs's
// Encryption struct field-for-field.
type Session struct {
	prime     *big.Int
	secret    *big.Int
	PublicKey *big.Int

	block cipher.Block
}

// New generates a fresh secret and public key over the fixed prime and
// generator (encryption.rs's Encryption::new).
func New() (*Session, error) {
	prime := new(big.Int).SetBytes(primeBytes)
	secret, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), secretBits))
	if err != nil {
		return nil, errors.Wrap(err, "session: generating secret")
	}
	publicKey := new(big.Int).Exp(big.NewInt(generator), secret, prime)
	return &Session{prime: prime, secret: secret, PublicKey: publicKey}, nil
}

// MakeSharedKey derives the AES-256 key from the peer's public key
// bytes and prepares this Session's cipher (encryption.rs's
// make_shared_key: modpow, then SHA-256 of the big-endian shared
// secret bytes becomes the AES-256 key, with a zero IV).
func (s *Session) MakeSharedKey(peerPublicKey []byte) error {
	peer := new(big.Int).SetBytes(peerPublicKey)
	shared := new(big.Int).Exp(peer, s.secret, s.prime)
	sum := sha256.Sum256(shared.Bytes())

	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return errors.Wrap(err, "session: constructing AES-256 cipher")
	}
	s.block = block
	return nil
}

// Encrypt PKCS7-pads and AES-256-CBC-encrypts buf under a zero IV,
// matching encryption.rs's encrypt. Returns ErrNotEstablished before
// MakeSharedKey.
func (s *Session) Encrypt(buf []byte) ([]byte, error) {
	if s.block == nil {
		return nil, ErrNotEstablished
	}
	padded := pkcs7Pad(buf, aes.BlockSize)
	out := make([]byte, len(padded))
	mode := cipher.NewCBCEncrypter(s.block, make([]byte, aes.BlockSize))
	mode.CryptBlocks(out, padded)
	return out, nil
}

// Decrypt AES-256-CBC-decrypts buf under a zero IV and strips PKCS7
// padding, matching encryption.rs's decrypt. Returns ErrNotEstablished
// before MakeSharedKey.
func (s *Session) Decrypt(buf []byte) ([]byte, error) {
	if s.block == nil {
		return nil, ErrNotEstablished
	}
	if len(buf)%aes.BlockSize != 0 {
		return nil, errors.New("session: ciphertext is not a multiple of the block size")
	}
	out := make([]byte, len(buf))
	mode := cipher.NewCBCDecrypter(s.block, make([]byte, aes.BlockSize))
	mode.CryptBlocks(out, buf)
	return pkcs7Unpad(out)
}

func pkcs7Pad(buf []byte, blockSize int) []byte {
	n := blockSize - len(buf)%blockSize
	padded := make([]byte, len(buf)+n)
	copy(padded, buf)
	for i := len(buf); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func pkcs7Unpad(buf []byte) ([]byte, error) {
	if len(buf) == 0 {
		return nil, errors.New("session: empty ciphertext")
	}
	n := int(buf[len(buf)-1])
	if n == 0 || n > len(buf) {
		return nil, errors.New("session: invalid PKCS7 padding")
	}
	for _, b := range buf[len(buf)-n:] {
		if int(b) != n {
			return nil, errors.New("session: invalid PKCS7 padding")
		}
	}
	return buf[:len(buf)-n], nil
}
