package internal

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the decoded login triple the session manager consumes. A change
// to any field forces a full channel teardown and rebuild.
type Identity struct {
	Token       string
	UserID      string
	DisplayName string
	Admin       bool
}

// SignUpProfile carries the registration form fields.
type SignUpProfile struct {
	Username  string `json:"username"`
	Fullname  string `json:"fullname"`
	Email     string `json:"email"`
	DOB       string `json:"dob"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

type authResponse struct {
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
}

func apiSignIn(baseURL, email, password string) (Identity, error) {
	payload := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := doJSONRequest(http.MethodPost, baseURL+"/api/v1/auth/signin", "", payload, &resp); err != nil {
		return Identity{}, err
	}
	return identityFromToken(resp.Data.Token)
}

func apiSignUp(baseURL string, profile SignUpProfile) (Identity, error) {
	if profile.Password1 != profile.Password2 {
		return Identity{}, &ValidationError{Reason: "passwords do not match"}
	}
	var resp authResponse
	if err := doJSONRequest(http.MethodPost, baseURL+"/api/v1/auth/signup", "", profile, &resp); err != nil {
		return Identity{}, err
	}
	return identityFromToken(resp.Data.Token)
}

// identityFromToken reads the claims out of the bearer token. The signature
// is the server's business; the client only needs the identity triple.
func identityFromToken(token string) (Identity, error) {
	if token == "" {
		return Identity{}, errors.New("no token received")
	}
	var claims jwt.MapClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Identity{}, fmt.Errorf("decode token: %w", err)
	}
	userID := claimString(claims, "user_id")
	if userID == "" {
		return Identity{}, errors.New("token missing user_id claim")
	}
	return Identity{
		Token:       token,
		UserID:      userID,
		DisplayName: claimString(claims, "username"),
		Admin:       claimBool(claims, "is_admin"),
	}, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		// numeric ids arrive as json numbers
		return fmt.Sprintf("%.0f", v)
	}
	return ""
}

func claimBool(claims jwt.MapClaims, key string) bool {
	b, _ := claims[key].(bool)
	return b
}
