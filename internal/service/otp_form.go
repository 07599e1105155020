package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"authfort-cli/internal/authapi"
	"authfort-cli/internal/domain"
	"authfort-cli/internal/observability"
)

// User-facing messages of the verification flow
const (
	MsgIncompleteCode  = "Please enter all 6 digits of the OTP."
	MsgVerified        = "OTP verified successfully!"
	MsgInvalidCode     = "Invalid OTP"
	MsgVerifyFailed    = "Failed to verify OTP. Please try again."
	MsgTooManyAttempts = "Too many attempts. Please wait a moment and try again."
)

const (
	lastSlot            = domain.OTPLength - 1
	defaultAttemptBurst = 3
)

// OTPVerifier submits a verification code to the backend
type OTPVerifier interface {
	VerifyOTP(ctx context.Context, token, otp string) (int, error)
}

// OTPForm collects a 6-digit code one slot at a time and submits it.
// Slots hold a single ASCII digit or 0 when empty.
type OTPForm struct {
	session   *SessionStore
	api       OTPVerifier
	notifier  Notifier
	navigator Navigator
	limiter   *rate.Limiter

	mu    sync.Mutex
	slots [domain.OTPLength]byte
	focus int

	loading     atomic.Bool
	unsubscribe func()
}

// OTPFormOption configures an OTPForm
type OTPFormOption func(*OTPForm)

// WithAttemptLimiter replaces the default limit of one attempt per second
// with a burst of three
func WithAttemptLimiter(limiter *rate.Limiter) OTPFormOption {
	return func(f *OTPForm) { f.limiter = limiter }
}

// NewOTPForm creates the form and starts watching the session: a logged-in,
// already verified account is sent home right away.
func NewOTPForm(session *SessionStore, api OTPVerifier, notifier Notifier, navigator Navigator, opts ...OTPFormOption) *OTPForm {
	f := &OTPForm{
		session:   session,
		api:       api,
		notifier:  notifier,
		navigator: navigator,
		limiter:   rate.NewLimiter(rate.Every(time.Second), defaultAttemptBurst),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.unsubscribe = session.Subscribe(f.redirectIfVerified)
	f.redirectIfVerified(session.Snapshot())
	return f
}

// Close stops watching the session
func (f *OTPForm) Close() {
	if f.unsubscribe != nil {
		f.unsubscribe()
	}
}

// Input stores the first digit of text in slot i and advances focus.
// Non-digits are dropped; text without digits empties the slot.
func (f *OTPForm) Input(i int, text string) error {
	if err := checkSlot(i); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.slots[i] = firstDigit(text)
	f.focus = i
	if f.slots[i] != 0 && i < lastSlot {
		f.focus = i + 1
	}
	return nil
}

// Backspace clears slot i, or moves focus back when it is already empty
func (f *OTPForm) Backspace(i int) error {
	if err := checkSlot(i); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.focus = i
	if f.slots[i] != 0 {
		f.slots[i] = 0
		return nil
	}
	if i > 0 {
		f.focus = i - 1
	}
	return nil
}

// Paste spreads up to six characters of text over the slots, one per slot.
// A non-digit character still takes its slot and leaves it empty. Focus
// lands after the last pasted character, or on the last slot.
func (f *OTPForm) Paste(text string) {
	chars := []rune(text)
	if len(chars) > domain.OTPLength {
		chars = chars[:domain.OTPLength]
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for i, r := range chars {
		f.slots[i] = firstDigit(string(r))
	}

	if len(chars) < domain.OTPLength {
		f.focus = len(chars)
	} else {
		f.focus = lastSlot
	}
}

// SetFocus moves the cursor to slot i
func (f *OTPForm) SetFocus(i int) error {
	if err := checkSlot(i); err != nil {
		return err
	}
	f.mu.Lock()
	f.focus = i
	f.mu.Unlock()
	return nil
}

// Focus returns the focused slot
func (f *OTPForm) Focus() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.focus
}

// Slots returns the slot values in order, "" for empty slots
func (f *OTPForm) Slots() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, domain.OTPLength)
	for i, d := range f.slots {
		if d != 0 {
			out[i] = string(d)
		}
	}
	return out
}

// Code joins the slots in order
func (f *OTPForm) Code() string {
	return strings.Join(f.Slots(), "")
}

// Loading reports whether a verification request is in flight
func (f *OTPForm) Loading() bool {
	return f.loading.Load()
}

// Submit sends the code for verification. An incomplete code is rejected
// locally; a second submission while one is in flight is refused.
func (f *OTPForm) Submit(ctx context.Context) error {
	log := observability.FromContext(ctx)

	code := f.Code()
	if !domain.ValidOTP(code) {
		f.notifier.Error(MsgIncompleteCode)
		observability.OTPSubmissionsTotal.WithLabelValues("incomplete").Inc()
		return domain.ErrIncompleteCode
	}

	if !f.loading.CompareAndSwap(false, true) {
		return domain.ErrVerificationInFlight
	}
	defer f.loading.Store(false)

	if f.limiter != nil && !f.limiter.Allow() {
		f.notifier.Error(MsgTooManyAttempts)
		observability.OTPSubmissionsTotal.WithLabelValues("throttled").Inc()
		return domain.ErrTooManyAttempts
	}

	status, err := f.api.VerifyOTP(ctx, f.session.Token(), code)
	if err != nil {
		msg, ok := authapi.ServerMessage(err)
		if !ok {
			msg = MsgVerifyFailed
		}
		f.notifier.Error(msg)
		observability.OTPSubmissionsTotal.WithLabelValues("failed").Inc()
		log.Warn("otp verification failed", slog.String("error", err.Error()))
		return fmt.Errorf("verify otp: %w", err)
	}

	if status != http.StatusOK {
		f.notifier.Error(MsgInvalidCode)
		observability.OTPSubmissionsTotal.WithLabelValues("rejected").Inc()
		return fmt.Errorf("verify otp: unexpected status %d", status)
	}

	f.notifier.Success(MsgVerified)
	observability.OTPSubmissionsTotal.WithLabelValues("verified").Inc()

	if err := f.session.FetchUserData(ctx, ""); err != nil {
		log.Warn("failed to refresh user data after verification", slog.String("error", err.Error()))
	}
	f.navigator.Navigate(domain.RouteHome)
	return nil
}

func (f *OTPForm) redirectIfVerified(st domain.Session) {
	if st.IsLoggedIn && st.User != nil && st.User.IsAccountVerified {
		f.navigator.Navigate(domain.RouteHome)
	}
}

func checkSlot(i int) error {
	if i < 0 || i > lastSlot {
		return fmt.Errorf("slot %d out of range [0,%d]", i, lastSlot)
	}
	return nil
}

func firstDigit(text string) byte {
	for i := 0; i < len(text); i++ {
		if text[i] >= '0' && text[i] <= '9' {
			return text[i]
		}
	}
	return 0
}
