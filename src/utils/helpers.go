package utils

import (
	"errors"
	"eventbooking/src/config"
	"eventbooking/src/types"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

var (
	clockPattern = regexp.MustCompile(`(?i)^(0[1-9]|1[0-2]):[0-5][0-9] (AM|PM)$`)
	phonePattern = regexp.MustCompile(`^[0-9\-+]{9,15}$`)
)

func IsEventClock(s string) bool {
	return clockPattern.MatchString(strings.TrimSpace(s))
}

func IsPhone(s string) bool {
	return phonePattern.MatchString(strings.TrimSpace(s))
}

// ParseEventDate accepts a plain ISO date or a full RFC 3339 timestamp and
// keeps only the calendar day.
func ParseEventDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(config.EVENT_DATE_FORMAT, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
		}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// CombineDateAndClock places an "hh:mm AM/PM" clock on the given day.
func CombineDateAndClock(date time.Time, clock string) (time.Time, error) {
	clock = strings.ToUpper(strings.TrimSpace(clock))
	if !clockPattern.MatchString(clock) {
		return time.Time{}, fmt.Errorf("invalid time %q: expected hh:mm AM/PM", clock)
	}
	t, err := time.Parse(config.EVENT_TIME_FORMAT, clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MaxPasswordBytes is the most bcrypt will hash.
const MaxPasswordBytes = 72

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func ComparePassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func GenerateJWT(userID uint, role types.Role, now time.Time) (string, error) {
	secret := config.JWTSecret()
	if len(secret) == 0 {
		return "", errors.New("JWT_SECRET is not configured")
	}
	claims := types.Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.TOKEN_TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ParseJWT(tokenString string) (*types.Claims, error) {
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return config.JWTSecret(), nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
