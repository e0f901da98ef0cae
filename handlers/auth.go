package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/feather-classroom/feather/config"
	"github.com/feather-classroom/feather/feather/types"
)

const (
	teacherTokenHeader = "X-Feather-Teacher-Token"
	teacherTokenQuery  = "teacher_token"
	tokenIssuer        = "feather"
)

// TeacherClaims are carried by the token handed to a teacher when the session
// is created. The subject is the teacher client id.
type TeacherClaims struct {
	SessionId string `json:"sid"`
	jwt.RegisteredClaims
}

func NewTeacherToken(s *types.Session) (string, error) {
	now := time.Now()
	claims := &TeacherClaims{
		SessionId: s.Id,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   s.TeacherId,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt.Add(time.Hour)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.SecretKey))
}

func ParseTeacherToken(token string) (*TeacherClaims, error) {
	claims := &TeacherClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(config.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims.Issuer != tokenIssuer {
		return nil, fmt.Errorf("unexpected issuer %q", claims.Issuer)
	}
	return claims, nil
}

// teacherToken looks for the token in the Authorization header, then in the
// feather header and finally in the query string (browsers cannot set headers
// on websocket requests).
func teacherToken(req *http.Request) string {
	if auth := req.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if token := req.Header.Get(teacherTokenHeader); token != "" {
		return token
	}
	return req.URL.Query().Get(teacherTokenQuery)
}

// TeacherOf returns the teacher id if the request carries a valid token for
// the session.
func TeacherOf(req *http.Request, s *types.Session) (string, bool) {
	token := teacherToken(req)
	if token == "" {
		return "", false
	}
	claims, err := ParseTeacherToken(token)
	if err != nil {
		return "", false
	}
	if claims.SessionId != s.Id || claims.Subject != s.TeacherId {
		return "", false
	}
	return claims.Subject, true
}

func ValidateToken(req *http.Request) bool {
	_, password, ok := req.BasicAuth()
	if !ok {
		return false
	}

	if config.AdminToken == "" || password != config.AdminToken {
		return false
	}

	return true
}
