package bookings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/speps/go-hashids/v2"
)

const (
	referencePrefix   = "VYG-"
	referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	referenceMinLen   = 8
)

// ReferenceCoder turns the booking sequence number into the short public code
// customers quote, and back.
type ReferenceCoder struct {
	h *hashids.HashID
}

func NewReferenceCoder(salt string) (*ReferenceCoder, error) {
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = referenceMinLen
	hd.Alphabet = referenceAlphabet

	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("booking reference coder: %w", err)
	}
	return &ReferenceCoder{h: h}, nil
}

func (c *ReferenceCoder) Encode(seq int64) (string, error) {
	code, err := c.h.EncodeInt64([]int64{seq})
	if err != nil {
		return "", fmt.Errorf("encode booking reference: %w", err)
	}
	return referencePrefix + code, nil
}

func (c *ReferenceCoder) Decode(ref string) (int64, error) {
	code := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(ref)), referencePrefix)
	nums, err := c.h.DecodeInt64WithError(code)
	if err != nil {
		return 0, fmt.Errorf("decode booking reference: %w", err)
	}
	if len(nums) != 1 {
		return 0, errors.New("decode booking reference: malformed code")
	}
	return nums[0], nil
}
