// Package secret encrypts credentials before they are written to disk.
//
// A Box derives a 256-bit key from an operator supplied secret with HKDF
// over SHA3-256 and seals values with XChaCha20-Poly1305. Sealed values are
// text of the form "enc:v1:<base64>", so they fit in ordinary string
// columns and are easy to tell apart from plaintext written before
// encryption was enabled.
//
// Each value is sealed with associated data naming where it is stored
// (for example "T123/bot_token"). A ciphertext copied into another row or
// column fails to open.
package secret
