package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sisaket-charity/go-backend/internal/usecase"
	"github.com/sisaket-charity/go-backend/pkg/e"
	"github.com/sisaket-charity/go-backend/pkg/logger"
)

type AuthHandler struct {
	authUsecase usecase.AuthUC
	logger      logger.Logger
}

func NewAuthHandler(authUsecase usecase.AuthUC, logger logger.Logger) *AuthHandler {
	return &AuthHandler{authUsecase: authUsecase, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
}

// register
//
//	@Summary		Регистрация покупателя
//	@Description	Создаёт учётную запись и возвращает JWT-токен
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		registerRequest	true	"Данные регистрации"
//	@Success		201		{object}	authResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse	"Пользователь уже существует"
//	@Router			/auth/register [post]
func (a *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	res, err := a.authUsecase.Register(r.Context(), &usecase.RegisterReq{
		Name:     req.Name,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		a.logger.Warnf("register failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toAuthResponse(res))
}

// login
//
//	@Summary		Вход
//	@Description	Проверяет учётные данные и возвращает JWT-токен
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		loginRequest	true	"Учётные данные"
//	@Success		200		{object}	authResponse
//	@Failure		401		{object}	ErrorResponse
//	@Router			/auth/login [post]
func (a *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	res, err := a.authUsecase.Login(r.Context(), &usecase.LoginReq{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		a.logger.Warnf("login failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toAuthResponse(res))
}

func toAuthResponse(res *usecase.AuthRes) *authResponse {
	return &authResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		UserID:    res.User.ID,
		Name:      res.User.Name,
		Role:      res.User.Role,
	}
}
