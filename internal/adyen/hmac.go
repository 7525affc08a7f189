package adyen

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
)

const HmacSignatureKey = "hmacSignature"

var ErrInvalidHmacKey = errors.New("hmac key is empty or not hex encoded")

func signingString(item NotificationRequestItem) string {
	return strings.Join([]string{
		item.PspReference,
		item.OriginalReference,
		item.MerchantAccountCode,
		item.MerchantReference,
		strconv.FormatInt(item.Amount.Value, 10),
		item.Amount.Currency,
		item.EventCode,
		item.Success,
	}, ":")
}

func sign(item NotificationRequestItem, hexKey string) ([]byte, error) {
	if hexKey == "" {
		return nil, ErrInvalidHmacKey
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, ErrInvalidHmacKey
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(signingString(item)))
	return mac.Sum(nil), nil
}

// CalculateHMAC returns the base64 signature the gateway would attach to item.
func CalculateHMAC(item NotificationRequestItem, hexKey string) (string, error) {
	sum, err := sign(item, hexKey)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sum), nil
}

// IsValidHMAC reports whether the signature embedded in item matches hexKey.
// Missing or malformed signatures and keys are unverifiable, never an error.
func IsValidHMAC(item NotificationRequestItem, hexKey string) bool {
	given, ok := item.AdditionalData[HmacSignatureKey]
	if !ok || given == "" {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(given)
	if err != nil {
		return false
	}
	sum, err := sign(item, hexKey)
	if err != nil {
		return false
	}
	return hmac.Equal(sum, expected)
}
