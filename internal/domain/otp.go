package domain

import "errors"

// OTPLength is the number of digits in an email verification code
const OTPLength = 6

var (
	ErrIncompleteCode       = errors.New("otp must be exactly 6 digits")
	ErrVerificationInFlight = errors.New("otp verification already in progress")
	ErrTooManyAttempts      = errors.New("too many verification attempts")
)

// ValidOTP reports whether code is exactly OTPLength ASCII digits
func ValidOTP(code string) bool {
	if len(code) != OTPLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
