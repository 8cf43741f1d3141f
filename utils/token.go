package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// InspectionClaim is embedded in the tenant inspection link token.
// Tenants have no account; the signed token is their whole credential.
type InspectionClaim struct {
	LinkId int `json:"link_id"`
	HomeId int `json:"home_id"`
	jwt.StandardClaims
}

var jwtSecret = []byte(getJwtSecret())

func getJwtSecret() string {
	secret := os.Getenv("API_SECRET")
	if secret == "" {
		return "HomieStan-Secret"
	}
	return secret
}

func JwtGenerateInspection(linkId int, homeId int) (string, time.Time, error) {
	lifespanHours, err := strconv.Atoi(os.Getenv("INSPECTION_TOKEN_HOUR_LIFESPAN"))
	if err != nil || lifespanHours <= 0 {
		// Tenant links default to one week.
		lifespanHours = 24 * 7
	}

	expiresAt := time.Now().Add(time.Hour * time.Duration(lifespanHours))
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &InspectionClaim{
		LinkId: linkId,
		HomeId: homeId,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expiresAt.Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	})

	token, err := t.SignedString(jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

func JwtValidateInspection(token string) (*InspectionClaim, error) {
	parsed, err := jwt.ParseWithClaims(token, &InspectionClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	claim, ok := parsed.Claims.(*InspectionClaim)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid inspection token")
	}
	return claim, nil
}
