package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/arcadehq/tictactoe-backend/internal/config"
	"github.com/arcadehq/tictactoe-backend/internal/entity"
	"github.com/arcadehq/tictactoe-backend/internal/pkg"
)

const urlUserInfo = "https://www.googleapis.com/oauth2/v2/userinfo"

type AuthHandler interface {
	GoogleLogin(ctx echo.Context) error
	GoogleCallback(ctx echo.Context) error
}

type tokenIssuer interface {
	GenerateToken(userID, email string) (string, error)
}

type userService interface {
	SaveUser(ctx context.Context, user *entity.User) error
}

type authHandler struct {
	logger *slog.Logger

	oauthConfig *oauth2.Config

	auth tokenIssuer
	user userService
}

func NewAuth(logger *slog.Logger, conf *config.Config, auth tokenIssuer, user userService) AuthHandler {
	oauthConfig := &oauth2.Config{
		ClientID:     conf.GoogleOAuth.ClientID,
		ClientSecret: conf.GoogleOAuth.ClientSecret,

		RedirectURL: conf.GoogleOAuth.RedirectURL,

		Scopes:   conf.GoogleOAuth.Scopes,
		Endpoint: google.Endpoint,
	}

	return &authHandler{
		logger:      logger,
		oauthConfig: oauthConfig,
		auth:        auth,
		user:        user,
	}
}

func (that *authHandler) GoogleLogin(ctx echo.Context) error {
	log := that.logger.With("method", "GoogleLogin")

	state := pkg.GenerateNewSessionID()

	userSession, err := session.Get("session", ctx)
	if err != nil {
		log.Error("failed to get session", "error", err)
		return ctx.String(http.StatusInternalServerError, "Internal Server Error")
	}

	userSession.Values["state"] = state
	if err = userSession.Save(ctx.Request(), ctx.Response()); err != nil {
		log.Error("failed to save session", "error", err)
		return ctx.String(http.StatusInternalServerError, "Internal Server Error")
	}

	// generate authURL for authorization with session token.
	authURL := that.oauthConfig.AuthCodeURL(state)
	return ctx.Redirect(http.StatusTemporaryRedirect, authURL)
}

func (that *authHandler) GoogleCallback(ctx echo.Context) error {
	log := that.logger.With("method", "GoogleCallback")

	// get state from session.
	userSession, err := session.Get("session", ctx)
	if err != nil {
		log.Error("failed to get session", "error", err)
		return ctx.String(http.StatusInternalServerError, "Internal Server Error")
	}

	// check existence of the state and it`s type.
	storedState, ok := userSession.Values["state"].(string)
	if !ok || storedState == "" {
		log.Error("state not found in session")
		return ctx.String(http.StatusBadRequest, "Invalid session state")
	}

	// check if state matches.
	if ctx.QueryParam("state") != storedState {
		log.Error("invalid OAuth state", "expected", storedState, "got", ctx.QueryParam("state"))
		return ctx.String(http.StatusBadRequest, "Invalid OAuth state")
	}

	// exchange code for token.
	token, err := that.oauthConfig.Exchange(ctx.Request().Context(), ctx.QueryParam("code"))
	if err != nil {
		log.Error("failed to exchange code for token", "error", err)
		return ctx.String(http.StatusInternalServerError, "Internal Server Error")
	}

	// getting user information
	client := that.oauthConfig.Client(ctx.Request().Context(), token)
	userInfo, err := getUserInfo(client)
	if err != nil {
		log.Error("failed to get user info", "error", err)
		return ctx.String(http.StatusInternalServerError, "Internal Server Error")
	}

	now := time.Now()
	user := &entity.User{
		ID:          userInfo.ID,
		Email:       userInfo.Email,
		DisplayName: userInfo.Name,
		PhotoURL:    userInfo.Picture,
		CreatedAt:   now,
		LastActive:  now,
	}

	if err = that.user.SaveUser(ctx.Request().Context(), user); err != nil {
		log.Error("failed to create or update user", "error", err)
		return ctx.String(http.StatusInternalServerError, "Internal Server Error")
	}

	jwtToken, err := that.auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		log.Error("failed to generate JWT token", "error", err)
		return ctx.String(http.StatusInternalServerError, "Internal Server Error")
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"token": jwtToken,
	})
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func getUserInfo(client *http.Client) (*googleUserInfo, error) {
	resp, err := client.Get(urlUserInfo)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get user info: status %d", resp.StatusCode)
	}

	var userInfo googleUserInfo
	if err = json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, err
	}

	return &userInfo, nil
}
