package answers

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Shape is a structured answer that can check its own invariants.
type Shape interface {
	Validate() error
}

// Codec binds one structured type to exactly one key.
type Codec[T Shape] struct {
	Key Key
}

// The codec per structured key. No key is shared between two shapes.
var (
	CertificateCodec      = Codec[Certificate]{Key: AlreadyCertified}
	PhotosCodec           = Codec[UploadedFiles]{Key: UploadPhoto}
	DocumentsCodec        = Codec[UploadedFiles]{Key: UploadDocument}
	ItemDescriptionCodec  = Codec[ItemDescription]{Key: DescribeTheItem}
	IvoryAgeCodec         = Codec[Reasons]{Key: IvoryAge}
	IvoryVolumeCodec      = Codec[Reason]{Key: IvoryVolume}
	CapacityCodec         = Codec[Capacity]{Key: WhatCapacity}
	OwnerContactCodec     = Codec[ContactDetails]{Key: OwnerContactDetails}
	OwnerAddressCodec     = Codec[Address]{Key: OwnerAddress}
	ApplicantContactCodec = Codec[ContactDetails]{Key: ApplicantContactDetails}
	ApplicantAddressCodec = Codec[Address]{Key: ApplicantAddress}
)

// Encode validates v and serializes it.
func (c Codec[T]) Encode(v T) (string, error) {
	if err := v.Validate(); err != nil {
		return "", fmt.Errorf("encode %s: %w", c.Key, err)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", c.Key, err)
	}
	return string(b), nil
}

// Decode parses raw strictly. Unknown fields, trailing data and shapes that
// fail Validate are all ErrMalformed.
func (c Codec[T]) Decode(raw string) (T, error) {
	var v T
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("decode %s: %w: %w", c.Key, ErrMalformed, err)
	}
	if dec.More() {
		return v, fmt.Errorf("decode %s: trailing data: %w", c.Key, ErrMalformed)
	}
	if err := v.Validate(); err != nil {
		return v, fmt.Errorf("decode %s: %w", c.Key, err)
	}
	return v, nil
}
