package auth

import (
	"errors"

	"bookstore/internal/platform/crypto"
)

func passwordErrorMessage(err error) string {
	for _, pe := range []error{
		crypto.ErrPasswordTooShort,
		crypto.ErrPasswordNoUpper,
		crypto.ErrPasswordNoLower,
		crypto.ErrPasswordNoNumber,
	} {
		if errors.Is(err, pe) {
			return pe.Error()
		}
	}
	return ""
}
