package models

import (
	"errors"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pershin-daniil/MeetBot/pkg/timeutil"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrMalformedTime        = timeutil.ErrMalformedTime
	ErrForbidden            = errors.New("forbidden")
	ErrMeetingNotFound      = errors.New("meeting not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrInvalidMeeting       = errors.New("invalid meeting")
)

type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
	Role Role   `json:"role"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
