package router

import (
	"database/sql"
	"net/http"

	"notevault/config"
	authhandler "notevault/internal/auth"
	authrepository "notevault/internal/auth/repository"
	authservice "notevault/internal/auth/service"
	"notevault/internal/cache"
	notehandler "notevault/internal/note"
	"notevault/internal/note/repository"
	"notevault/internal/note/service"
	"notevault/middleware"
	"notevault/socket"

	"github.com/gorilla/mux"
)

// Setup wires repositories, services and handlers and mounts the API. All
// dependencies come in from main; nothing here is a process-wide singleton.
func Setup(cfg *config.Config, db *sql.DB, store cache.Store, hub *socket.Hub) http.Handler {
	r := mux.NewRouter()

	versionRepo := repository.NewVersionRepository(db)
	noteRepo := repository.NewNoteRepository(db, versionRepo)
	coordinator := cache.New(store, cfg.Cache.TTL)
	noteService := service.NewNoteService(noteRepo, versionRepo, coordinator, hub)
	noteHandler := notehandler.NewNoteHandler(noteService)

	userRepo := authrepository.NewUserRepository(db)
	authService := authservice.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	authHandler := authhandler.NewAuthHandler(authService)

	auth := middleware.AuthMiddleware(cfg.JWT.Secret)

	r.HandleFunc("/api/auth/register", authHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods(http.MethodPost)

	api := r.PathPrefix("/api/notes").Subrouter()
	api.Use(auth)
	api.HandleFunc("", noteHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("", noteHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/search", noteHandler.Search).Methods(http.MethodGet)
	api.HandleFunc("/{id}", noteHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/{id}", noteHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/{id}", noteHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/{id}/versions", noteHandler.ListVersions).Methods(http.MethodGet)
	api.HandleFunc("/{id}/revert/{versionNumber}", noteHandler.Revert).Methods(http.MethodPost)

	r.Handle("/ws", auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		socket.ServeWs(hub, w, r, middleware.GetUserID(r))
	})))

	return middleware.CORSMiddleware(r)
}
