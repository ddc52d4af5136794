package dto

import "time"

type SendOTPRequest struct {
	Aadhaar          string `json:"aadhaar"`
	NameAsPerAadhaar string `json:"nameAsPerAadhaar"`
}

type SendOTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	DemoOTP string `json:"demoOtp,omitempty"`
}

type VerifyOTPRequest struct {
	Aadhaar string `json:"aadhaar"`
	OTP     string `json:"otp"`
}

type VerifyOTPResponse struct {
	Success           bool      `json:"success"`
	Message           string    `json:"message"`
	VerificationToken string    `json:"verificationToken"`
	ExpiresAt         time.Time `json:"expiresAt"`
}
