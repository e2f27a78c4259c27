// Package codec holds the wire encoding used across the game: JSON
// serialization plus password-based authenticated encryption for signed
// payloads.
package codec

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	saltLen      = 16
	nonceLen     = 24
	keyLen       = 32
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

var (
	// ErrEnvelope means the ciphertext envelope is not decodable.
	ErrEnvelope = errors.New("codec: malformed envelope")
	// ErrDecrypt means the key is wrong or the box was tampered with.
	ErrDecrypt = errors.New("codec: decryption failed")
	// ErrPlaintext means the decrypted bytes are not valid UTF-8.
	ErrPlaintext = errors.New("codec: plaintext is not valid UTF-8")
	// ErrVerify means a signature does not match the signed data.
	ErrVerify = errors.New("codec: signature does not match data")
)

// Serialize renders v as a JSON string.
func Serialize(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Deserialize parses a JSON string into v.
func Deserialize(data string, v any) error {
	return json.Unmarshal([]byte(data), v)
}

func deriveKey(password string, salt []byte) *[keyLen]byte {
	var key [keyLen]byte
	copy(key[:], argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, keyLen))
	return &key
}

// Encrypt seals plaintext under a key derived from the password. The
// envelope is base64(salt | nonce | box); salt and nonce are random per
// call, so encrypting the same input twice yields different envelopes.
func Encrypt(plaintext, password string) string {
	salt := make([]byte, saltLen)
	rand.Read(salt)
	var nonce [nonceLen]byte
	rand.Read(nonce[:])

	key := deriveKey(password, salt)
	box := secretbox.Seal(nil, []byte(plaintext), &nonce, key)

	envelope := make([]byte, 0, saltLen+nonceLen+len(box))
	envelope = append(envelope, salt...)
	envelope = append(envelope, nonce[:]...)
	envelope = append(envelope, box...)
	return base64.StdEncoding.EncodeToString(envelope)
}

// Decrypt opens an envelope produced by Encrypt.
func Decrypt(envelope, password string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEnvelope, err)
	}
	if len(raw) < saltLen+nonceLen+secretbox.Overhead {
		return "", ErrEnvelope
	}
	salt := raw[:saltLen]
	var nonce [nonceLen]byte
	copy(nonce[:], raw[saltLen:saltLen+nonceLen])

	key := deriveKey(password, salt)
	plaintext, ok := secretbox.Open(nil, raw[saltLen+nonceLen:], &nonce, key)
	if !ok {
		return "", ErrDecrypt
	}
	if !utf8.Valid(plaintext) {
		return "", ErrPlaintext
	}
	return string(plaintext), nil
}

type signedMessage struct {
	Data json.RawMessage `json:"data"`
	Sign string          `json:"sign"`
}

// Sign serializes v and wraps it together with an encrypted copy of the
// serialized form.
func Sign(v any, password string) (string, error) {
	data, err := Serialize(v)
	if err != nil {
		return "", err
	}
	return Serialize(signedMessage{
		Data: json.RawMessage(data),
		Sign: Encrypt(data, password),
	})
}

// Verify opens a signed envelope, unmarshals its data into v, and checks
// that the signature decrypts to the same serialized form.
func Verify(signed, password string, v any) error {
	var msg signedMessage
	if err := Deserialize(signed, &msg); err != nil {
		return err
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return err
	}
	canonical, err := json.Marshal(v)
	if err != nil {
		return err
	}
	plain, err := Decrypt(msg.Sign, password)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerify, err)
	}
	if plain != string(canonical) {
		return ErrVerify
	}
	return nil
}
