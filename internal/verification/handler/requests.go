package handler

import (
	"encoding/base64"
	"errors"
)

// maxImageBytes bounds decoded payloads; anything larger is rejected before
// image decoding.
const maxImageBytes = 10 << 20

// RegistrationRequest is the HTTP request body for POST /verify/registration.
// Images travel as base64 so the transport stays plain JSON.
type RegistrationRequest struct {
	DocumentImage string `json:"document_image"`

	documentBytes []byte
}

// Validate parses and bounds the payload.
func (r *RegistrationRequest) Validate() error {
	var err error
	r.documentBytes, err = decodeImageField(r.DocumentImage, "document_image")
	return err
}

// LoginRequest is the HTTP request body for POST /verify/login.
type LoginRequest struct {
	ReferenceImage string `json:"reference_image"`
	LiveImage      string `json:"live_image"`

	referenceBytes []byte
	liveBytes      []byte
}

func (r *LoginRequest) Validate() error {
	var err error
	if r.referenceBytes, err = decodeImageField(r.ReferenceImage, "reference_image"); err != nil {
		return err
	}
	r.liveBytes, err = decodeImageField(r.LiveImage, "live_image")
	return err
}

func decodeImageField(value, name string) ([]byte, error) {
	if value == "" {
		return nil, errors.New(name + " is required")
	}
	if len(value) > maxImageBytes*4/3 {
		return nil, errors.New(name + " exceeds the size limit")
	}
	b, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, errors.New(name + " is not valid base64")
	}
	return b, nil
}
