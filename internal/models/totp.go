package models

// TOTPSetupResponse returned when initiating 2FA setup
type TOTPSetupResponse struct {
	Secret      string `json:"secret"`
	URL         string `json:"otpauth_url"`
	QRCode      string `json:"qr_code"`
	Issuer      string `json:"issuer"`
	AccountName string `json:"account_name"`
}

// TOTPCodeRequest carries a 6-digit code for enable/disable.
type TOTPCodeRequest struct {
	Code string `json:"code"`
}

type TOTPStatus struct {
	Enabled bool `json:"enabled"`
}
