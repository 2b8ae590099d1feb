package security

type AccessTokenVerifier interface {
	VerifyAccessToken(token string) (Principal, error)
}
