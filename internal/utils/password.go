package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a bcrypt hash of plain using the configured
// cost. A cost outside bcrypt's supported range falls back to the
// library default so a misconfigured BCRYPT_COST cannot weaken or
// break hashing.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
// Comparison cost is constant-time inside bcrypt.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
