package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/iBySnoW/BeFriendBackend/internal/apperror"
	"github.com/iBySnoW/BeFriendBackend/internal/auth"
	"github.com/iBySnoW/BeFriendBackend/internal/middleware"
	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

const (
	AuthServiceName = "befriend.v1.AuthService"

	AuthServiceRegisterProcedure       = "/befriend.v1.AuthService/Register"
	AuthServiceLoginProcedure          = "/befriend.v1.AuthService/Login"
	AuthServiceLogoutProcedure         = "/befriend.v1.AuthService/Logout"
	AuthServiceMeProcedure             = "/befriend.v1.AuthService/Me"
	AuthServiceFederatedLoginProcedure = "/befriend.v1.AuthService/FederatedLogin"
)

type userLookup interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         userLookup
	reconciler    *auth.Reconciler
	verifier      auth.ProfileVerifier
	secureCookie  bool
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users userLookup, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
		logger:        logger,
	}
}

// EnableFederation turns on FederatedLogin. Without a verifier the RPC
// answers CodeUnimplemented.
func (s *AuthService) EnableFederation(reconciler *auth.Reconciler, verifier auth.ProfileVerifier) {
	s.reconciler = reconciler
	s.verifier = verifier
}

// SetSecureCookie marks the session cookie Secure.
func (s *AuthService) SetSecureCookie(secure bool) {
	s.secureCookie = secure
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	user, err := s.authenticator.Register(ctx, auth.RegisterRequest{
		Email:       req.Msg.Email,
		Password:    req.Msg.Password,
		DisplayName: req.Msg.DisplayName,
		Username:    req.Msg.Username,
	})
	if err != nil {
		s.logger.Warn("Registration failed", "email", req.Msg.Email, "error", err)
		return nil, toConnectError(AuthServiceRegisterProcedure, err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, toConnectError(AuthServiceRegisterProcedure, err)
	}

	resp := connect.NewResponse(&RegisterResponse{User: user.Public(), Token: token})
	s.setSession(resp.Header(), token)

	s.logger.Info("User registered successfully", "user_id", user.ID, "username", user.Username)
	return resp, nil
}

// Login authenticates a user and returns a JWT token, also set as the token cookie.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		return nil, toConnectError(AuthServiceLoginProcedure, err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, toConnectError(AuthServiceLoginProcedure, err)
	}

	resp := connect.NewResponse(&LoginResponse{User: user.Public(), Token: token})
	s.setSession(resp.Header(), token)

	s.logger.Info("User logged in successfully", "user_id", user.ID)
	return resp, nil
}

// Logout clears the token cookie. Tokens are stateless, so bearer clients
// simply discard theirs.
func (s *AuthService) Logout(ctx context.Context, req *connect.Request[LogoutRequest]) (*connect.Response[LogoutResponse], error) {
	s.logger.Info("Logout request", "user_id", middleware.GetUserID(ctx))

	resp := connect.NewResponse(&LogoutResponse{Message: "logged out"})
	s.clearSession(resp.Header())
	return resp, nil
}

// Me returns the currently authenticated user.
func (s *AuthService) Me(ctx context.Context, req *connect.Request[MeRequest]) (*connect.Response[MeResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == 0 {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Warn("Me failed", "user_id", userID, "error", err)
		return nil, toConnectError(AuthServiceMeProcedure, err)
	}

	return connect.NewResponse(&MeResponse{User: user.Public()}), nil
}

// FederatedLogin exchanges a provider authorization code for a session,
// creating or linking the local account as needed.
func (s *AuthService) FederatedLogin(ctx context.Context, req *connect.Request[FederatedLoginRequest]) (*connect.Response[FederatedLoginResponse], error) {
	s.logger.Info("FederatedLogin request", "provider", req.Msg.Provider)

	if s.reconciler == nil || s.verifier == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, auth.ErrNoVerifier)
	}

	claim, err := s.verifier.Verify(ctx, req.Msg.Provider, req.Msg.Code)
	if apperror.IsValidation(err) {
		return nil, toConnectError(AuthServiceFederatedLoginProcedure, err)
	}
	if err != nil {
		s.logger.Warn("Provider rejected the code", "provider", req.Msg.Provider, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("%w: provider verification failed", apperror.ErrUnauthorized))
	}

	session, err := s.reconciler.Reconcile(ctx, claim)
	if err != nil {
		s.logger.Warn("Reconciliation failed", "provider", claim.Provider, "error", err)
		return nil, toConnectError(AuthServiceFederatedLoginProcedure, err)
	}

	resp := connect.NewResponse(&FederatedLoginResponse{User: session.User, Token: session.Token})
	s.setSession(resp.Header(), session.Token)

	s.logger.Info("Federated login successful", "user_id", session.User.ID, "provider", claim.Provider)
	return resp, nil
}

func (s *AuthService) setSession(h http.Header, token string) {
	cookie := s.cookie(token)
	cookie.MaxAge = int(s.jwtManager.TokenDuration().Seconds())
	h.Add("Set-Cookie", cookie.String())
}

func (s *AuthService) clearSession(h http.Header) {
	cookie := s.cookie("")
	cookie.MaxAge = -1
	h.Add("Set-Cookie", cookie.String())
}

func (s *AuthService) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewAuthServiceHandler builds an HTTP handler for the AuthService. Mount it
// with OptionalAuth: only Me needs an identity and it checks for one itself.
func NewAuthServiceHandler(svc *AuthService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withJSONHandler(opts)
	register := connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...)
	login := connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...)
	logout := connect.NewUnaryHandler(AuthServiceLogoutProcedure, svc.Logout, opts...)
	me := connect.NewUnaryHandler(AuthServiceMeProcedure, svc.Me, opts...)
	federatedLogin := connect.NewUnaryHandler(AuthServiceFederatedLoginProcedure, svc.FederatedLogin, opts...)

	return "/" + AuthServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AuthServiceRegisterProcedure:
			register.ServeHTTP(w, r)
		case AuthServiceLoginProcedure:
			login.ServeHTTP(w, r)
		case AuthServiceLogoutProcedure:
			logout.ServeHTTP(w, r)
		case AuthServiceMeProcedure:
			me.ServeHTTP(w, r)
		case AuthServiceFederatedLoginProcedure:
			federatedLogin.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
