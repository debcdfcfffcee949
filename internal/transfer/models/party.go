package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/scrypt"

	dErrors "bhulekh/pkg/domain-errors"
)

// Consent records a party's agreement to the transfer and where it was
// captured.
type Consent struct {
	Given     bool      `json:"given"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	Origin    string    `json:"origin,omitempty"`
}

// Party is one side of the transfer. The national ID is never stored raw;
// only its salted digest is kept.
type Party struct {
	Name             string  `json:"name"`
	Phone            string  `json:"phone,omitempty"`
	Email            string  `json:"email,omitempty"`
	NationalIDDigest string  `json:"national_id_digest,omitempty"`
	AccountRef       string  `json:"account_ref,omitempty"`
	Consent          Consent `json:"consent"`
}

func (p Party) validate(label string) error {
	if p.Name == "" {
		return dErrors.Newf(dErrors.CodeValidation, "%s name is required", label)
	}
	return nil
}

// Witness is a third party attesting to the transfer agreement. At least two
// named witnesses are required before the agreement stage.
type Witness struct {
	Name          string `json:"name"`
	Phone         string `json:"phone,omitempty"`
	SignatureHash string `json:"signature_hash,omitempty"`
}

// scrypt parameters follow the library's interactive-use recommendation.
const (
	scryptN      = 32768
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 16
)

// DigestNationalID derives the salted digest stored in place of a raw
// national ID. Output format: hex(salt)$hex(key).
func DigestNationalID(nationalID string) (string, error) {
	if nationalID == "" {
		return "", nil
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key, err := scrypt.Key([]byte(nationalID), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("derive national id digest: %w", err)
	}
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(key), nil
}

// VerifyNationalID checks a raw national ID against a stored digest.
func VerifyNationalID(nationalID, digest string) (bool, error) {
	saltHex, keyHex, found := strings.Cut(digest, "$")
	if !found || saltHex == "" || keyHex == "" {
		return false, dErrors.New(dErrors.CodeValidation, "malformed national id digest")
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false, dErrors.New(dErrors.CodeValidation, "malformed national id digest salt")
	}
	key, err := scrypt.Key([]byte(nationalID), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return false, fmt.Errorf("derive national id digest: %w", err)
	}
	return hex.EncodeToString(key) == keyHex, nil
}
