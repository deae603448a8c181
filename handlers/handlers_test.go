package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"

	"github.com/ananke-board/ananke/database"
	"github.com/ananke-board/ananke/handlers"
	"github.com/ananke-board/ananke/services"
)

// testServer wires the real stack against a throwaway sqlite file, the
// same way main does.
type testServer struct {
	router *mux.Router
	auth   *services.AuthService
	users  *database.UserService
	store  *database.BoardStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("InitDB returned error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	authService := services.NewAuthService("test-secret")
	boardStore := database.NewBoardStore(db)
	userService := database.NewUserService(db)

	hub := services.NewHub()
	go hub.Run()
	syncCoordinator := services.NewSyncCoordinator(boardStore, hub)

	authMiddleware := handlers.NewAuthMiddleware(authService)
	authHandler := handlers.NewAuthHandler(authService, userService)
	boardHandler := handlers.NewBoardHandler(boardStore, syncCoordinator, hub, 1024*1024)

	r := mux.NewRouter()
	auth := authMiddleware.Auth
	admin := func(h http.HandlerFunc) http.Handler {
		return auth(authMiddleware.RequireRole(services.RoleAdmin, h))
	}

	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/logout", authHandler.Logout).Methods("POST")
	r.Handle("/api/auth/me", auth(http.HandlerFunc(authHandler.Me))).Methods("GET")
	r.Handle("/api/auth/complete-setup", auth(http.HandlerFunc(authHandler.CompleteSetup))).Methods("POST")
	r.Handle("/api/auth/list", auth(http.HandlerFunc(authHandler.ListAssignees))).Methods("GET")
	r.Handle("/api/auth/create-account", admin(authHandler.CreateAccount)).Methods("POST")
	r.Handle("/api/auth/users", admin(authHandler.ListUsers)).Methods("GET")
	r.Handle("/api/auth/users/{id}/role", admin(authHandler.UpdateRole)).Methods("PUT")
	r.Handle("/api/auth/users/{id}", admin(authHandler.DeleteUser)).Methods("DELETE")
	r.Handle("/api/board", auth(http.HandlerFunc(boardHandler.GetBoard))).Methods("GET")
	r.Handle("/api/board", auth(http.HandlerFunc(boardHandler.UpdateBoard))).Methods("POST")
	r.Handle("/ws", auth(http.HandlerFunc(boardHandler.HandleWebSocket)))

	return &testServer{router: r, auth: authService, users: userService, store: boardStore}
}

// tokenFor creates an account with the given role and returns a session
// token for it.
func (ts *testServer) tokenFor(t *testing.T, email string, role services.Role) string {
	t.Helper()

	id, err := ts.users.Create(context.Background(), email, "hash", string(role))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	user, err := ts.users.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}

	token, err := ts.auth.CreateToken(user)
	if err != nil {
		t.Fatalf("CreateToken returned error: %v", err)
	}
	return token
}

func (ts *testServer) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func sampleBoard(projectName string) *database.Board {
	return &database.Board{
		ProjectName: projectName,
		Tags:        []database.Tag{},
		Workflows: []database.Workflow{
			{ID: 1, Title: "To Do", Color: "#ef4444", Tasks: []database.Task{
				{ID: 100, Title: "Buy milk"},
			}},
		},
	}
}
