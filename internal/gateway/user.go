package gateway

import (
	"errors"
	"net/http"
	"time"

	"github.com/Yusufzhafir/go-exchange/internal/gateway/middleware"
	"github.com/Yusufzhafir/go-exchange/pkg/model"
)

type UserRouter interface {
	Balance(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
}

type userRouterImpl struct {
	client     *EngineClient
	tokenMaker *middleware.JWTMaker
}

func NewUserRouter(client *EngineClient, tokenMaker *middleware.JWTMaker) UserRouter {
	return &userRouterImpl{client: client, tokenMaker: tokenMaker}
}

func (ur *userRouterImpl) Balance(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, errors.New("missing claims"))
		return
	}

	reply, err := ur.client.SendUser(r.Context(), model.UserMessageFromAPI{
		Kind:   model.UserMessageGetBalance,
		UserID: claims.UserID,
	})
	writeReply(w, reply, err)
}

// Login issues a token for a user id. There is no credential store; accounts
// exist by being funded at engine startup, so this is deliberately open.
func (ur *userRouterImpl) Login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		UserID string `json:"user_id"`
	}
	type LoginResponse struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}

	req, err := decodeJSON[LoginRequest](w, r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	if req.UserID == "" {
		writeJSONError(w, http.StatusBadRequest, errors.New("user_id is required"))
		return
	}

	token, claims, err := ur.tokenMaker.CreateToken(req.UserID, 24*time.Hour)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	})
}
