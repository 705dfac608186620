package order

import "time"

// The methods below are the pure transitions of the order state machine.
// They never touch storage; the repository runs them under a row lock.

func (o *Order) Assign(staffID int64, now time.Time) error {
	if o.Status != StatusPlaced && o.Status != StatusAssigned {
		return ErrInvalidTransition
	}
	o.AssignedTo = &staffID
	o.Status = StatusAssigned
	o.UpdatedAt = now
	return nil
}

// Dispatch marks pickup and issues the delivery code.
func (o *Order) Dispatch(code string, ttl time.Duration, now time.Time) error {
	if o.Status != StatusAssigned {
		return ErrInvalidTransition
	}
	o.Status = StatusOutForDelivery
	o.issueOTP(code, ttl, now)
	return nil
}

// ReissueOTP replaces the code and clears the attempt counter, which also
// lifts a lock.
func (o *Order) ReissueOTP(code string, ttl time.Duration, now time.Time) error {
	if o.Status != StatusOutForDelivery {
		return ErrInvalidTransition
	}
	o.issueOTP(code, ttl, now)
	return nil
}

func (o *Order) issueOTP(code string, ttl time.Duration, now time.Time) {
	expiry := now.Add(ttl)
	o.OTP = OTPState{Code: &code, Expiry: &expiry, Attempts: 0}
	o.UpdatedAt = now
}

// VerifyOTP checks a submitted code. Locked and Expired leave the order
// untouched. A wrong code counts as an attempt; the attempt that pushes the
// counter past maxAttempts locks the code until it is re-issued.
func (o *Order) VerifyOTP(submitted string, maxAttempts int, now time.Time) (Outcome, error) {
	if o.Status != StatusOutForDelivery || !o.OTP.Active() {
		return "", ErrInvalidTransition
	}

	if o.OTP.Attempts > maxAttempts {
		return OutcomeLocked, nil
	}
	if o.OTP.Expiry == nil || now.After(*o.OTP.Expiry) {
		return OutcomeExpired, nil
	}

	if codesEqual(*o.OTP.Code, submitted) {
		o.Status = StatusDelivered
		o.OTP = OTPState{}
		o.UpdatedAt = now
		return OutcomeDelivered, nil
	}

	o.OTP.Attempts++
	o.UpdatedAt = now
	if o.OTP.Attempts > maxAttempts {
		return OutcomeLocked, nil
	}
	return OutcomeInvalidCode, nil
}

func (o *Order) Cancel(now time.Time) error {
	if o.Status.Terminal() {
		return ErrInvalidTransition
	}
	o.Status = StatusCancelled
	o.OTP = OTPState{}
	o.UpdatedAt = now
	return nil
}

// Locked reports whether the current code has been locked by failed attempts.
func (o *Order) Locked(maxAttempts int) bool {
	return o.Status == StatusOutForDelivery && o.OTP.Attempts > maxAttempts
}
