package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"stockengine/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey   = "user_id"   // int64
	CtxUserRoleKey = "user_role" // string
)

var errInvalidPrincipal = errors.New("invalid principal")

// 発行側（認証サービス）が載せるclaims。subは数値でも文字列でもよい
type accessClaims struct {
	Sub  json.Number `json:"sub"`
	Role string      `json:"role"`
	jwt.RegisteredClaims
}

type principal struct {
	UserID int64
	Role   string
}

// bearerAuth用のJWT検証ミドルウェア。検証のみで発行はしない
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	verify := newVerifier([]byte(cfg.JWTSecret))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			p, err := verify(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			c.Set(CtxUserIDKey, p.UserID)
			c.Set(CtxUserRoleKey, p.Role)
			return next(c)
		}
	}
}

// HS256以外は受け付けない
func newVerifier(secret []byte) func(string) (principal, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (interface{}, error) { return secret, nil }

	return func(raw string) (principal, error) {
		var claims accessClaims
		token, err := parser.ParseWithClaims(raw, &claims, keyFunc)
		if err != nil {
			return principal{}, err
		}
		if !token.Valid {
			return principal{}, errInvalidPrincipal
		}

		id, err := strconv.ParseInt(claims.Sub.String(), 10, 64)
		if err != nil || id <= 0 || claims.Role == "" {
			return principal{}, errInvalidPrincipal
		}
		return principal{UserID: id, Role: claims.Role}, nil
	}
}

// "Bearer <token>" からtokenを抜く
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}
