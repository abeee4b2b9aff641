package email

type VerificationEmailData struct {
	Email      string
	VerifyLink string
	ExpiresIn  string
}
