package auth_test

import (
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

func jwtNumericDate(t time.Time) *gojwt.NumericDate {
	return gojwt.NewNumericDate(t)
}
