package alarm

import "slices"

// NoPhoneSelected is the SelectedPhoneID value before a phone is chosen.
const NoPhoneSelected = -1

// OTPPhone is one of the masked phone numbers the vendor offers for
// code delivery during device authorization.
type OTPPhone struct {
	// ID is the vendor-assigned index of the phone.
	ID int
	// Number is the masked phone number, e.g. "**********768".
	Number string
}

// OTPChallenge is the pending device-authorization state. It is created
// when the upstream answers "device authorization required" and discarded
// once verification succeeds or the login attempt is abandoned.
type OTPChallenge struct {
	// Phones is the ordered list of delivery targets offered upstream.
	Phones []OTPPhone
	// Hash is the opaque challenge token the vendor expects back when
	// dispatching the code.
	Hash string
	// SelectedPhoneID is the chosen delivery target, NoPhoneSelected until
	// SelectPhone succeeds.
	SelectedPhoneID int
}

// NewOTPChallenge builds a challenge with no phone selected yet.
func NewOTPChallenge(phones []OTPPhone, hash string) *OTPChallenge {
	return &OTPChallenge{
		Phones:          slices.Clone(phones),
		Hash:            hash,
		SelectedPhoneID: NoPhoneSelected,
	}
}

// Clone returns a deep copy of the challenge.
func (c *OTPChallenge) Clone() *OTPChallenge {
	if c == nil {
		return nil
	}

	cloned := *c
	cloned.Phones = slices.Clone(c.Phones)

	return &cloned
}

// HasPhone reports whether the given id references a phone in the challenge.
func (c *OTPChallenge) HasPhone(id int) bool {
	if c == nil {
		return false
	}

	return slices.ContainsFunc(c.Phones, func(p OTPPhone) bool {
		return p.ID == id
	})
}

// Validate checks the invariants required before a code can be dispatched:
// a non-empty hash, at least one phone and a selection referencing one of them.
func (c *OTPChallenge) Validate() error {
	if c == nil || c.Hash == "" || len(c.Phones) == 0 {
		return ErrOTPChallengeMissing
	}

	if !c.HasPhone(c.SelectedPhoneID) {
		return ErrInvalidPhoneSelection
	}

	return nil
}
