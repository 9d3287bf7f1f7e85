package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/iBySnoW/BeFriendBackend/internal/apperror"
	"github.com/iBySnoW/BeFriendBackend/internal/auth"
	"github.com/iBySnoW/BeFriendBackend/internal/invite"
	"github.com/iBySnoW/BeFriendBackend/internal/ledger"
	"github.com/iBySnoW/BeFriendBackend/internal/middleware"
	"github.com/iBySnoW/BeFriendBackend/internal/models"
	"github.com/iBySnoW/BeFriendBackend/internal/storage/sqlite"
)

const testFrontend = "https://befriend.example.com/"

type testServer struct {
	url   string
	store *sqlite.SQLiteStore
	jwt   *auth.JWTManager
}

// stubVerifier accepts any code except "bad" and vouches for <code>@example.com.
type stubVerifier struct{}

func (stubVerifier) Verify(ctx context.Context, provider, code string) (auth.Claim, error) {
	if code == "" {
		return auth.Claim{}, apperror.NewValidation("code", "required")
	}
	if code == "bad" {
		return auth.Claim{}, errors.New("invalid authorization code")
	}
	return auth.Claim{
		Email:         code + "@example.com",
		DisplayName:   "Fed " + code,
		Provider:      provider,
		ProviderID:    "id-" + code,
		EmailVerified: true,
	}, nil
}

// setupTestServer serves every RPC service over a temp SQLite database,
// behind the same interceptors the server binary installs.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "befriend-service-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(context.Background(), filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authSvc := NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, slog.Default())
	authSvc.EnableFederation(auth.NewReconciler(store, jwtManager), stubVerifier{})

	optional := connect.WithInterceptors(middleware.OptionalAuth(jwtManager), middleware.LoggingInterceptor())
	required := connect.WithInterceptors(middleware.RequireAuth(jwtManager), middleware.LoggingInterceptor())

	mux := http.NewServeMux()
	mux.Handle(NewAuthServiceHandler(authSvc, optional))
	mux.Handle(NewUserServiceHandler(NewUserService(store), required))
	mux.Handle(NewGroupServiceHandler(
		NewGroupService(store, ledger.NewEngine(store), invite.NewIssuer(store, testFrontend)), required))
	mux.Handle(NewEventServiceHandler(NewEventService(store), required))
	mux.Handle(NewExpenseServiceHandler(NewExpenseService(store), required))
	mux.Handle(NewPoolServiceHandler(NewPoolService(ledger.NewPools(store), store), required))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testServer{url: server.URL, store: store, jwt: jwtManager}
}

// newUser inserts a user directly and returns it with a session token.
func (s *testServer) newUser(t *testing.T, name string) (*models.User, string) {
	t.Helper()
	user := &models.User{
		Email:       name + "@example.com",
		Username:    name,
		DisplayName: name,
	}
	if err := s.store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", name, err)
	}
	token, err := s.jwt.Generate(user)
	if err != nil {
		t.Fatalf("Generate(%s) failed: %v", name, err)
	}
	return user, token
}

// call invokes procedure as the holder of token (anonymous when empty).
func call[Res, Req any](t *testing.T, s *testServer, procedure, token string, msg *Req) (*connect.Response[Res], error) {
	t.Helper()
	client := connect.NewClient[Req, Res](http.DefaultClient, s.url+procedure, WithJSON())
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	return client.CallUnary(context.Background(), req)
}

func expectCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %s, got %s (%v)", want, got, err)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// createGroup makes a group owned by token's user.
func createGroup(t *testing.T, s *testServer, token, name string) Group {
	t.Helper()
	resp, err := call[CreateGroupResponse](t, s, GroupServiceCreateGroupProcedure, token, &CreateGroupRequest{Name: name})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return resp.Msg.Group
}

// join adds joiner to groupID through an invitation issued by inviter.
func join(t *testing.T, s *testServer, groupID int64, inviterToken, joinerToken string) {
	t.Helper()
	inv, err := call[CreateInvitationResponse](t, s, GroupServiceCreateInvitationProcedure, inviterToken,
		&CreateInvitationRequest{GroupID: groupID})
	if err != nil {
		t.Fatalf("CreateInvitation failed: %v", err)
	}
	if _, err := call[AcceptInvitationResponse](t, s, GroupServiceAcceptInvitationProcedure, joinerToken,
		&AcceptInvitationRequest{Token: inv.Msg.Invitation.Token}); err != nil {
		t.Fatalf("AcceptInvitation failed: %v", err)
	}
}
