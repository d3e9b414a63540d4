package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/linqiu/polychat/backend/internal/auth"
	catalogHandler "github.com/linqiu/polychat/backend/internal/handler/catalog"
	chatHandler "github.com/linqiu/polychat/backend/internal/handler/chat"
	middlewarePkg "github.com/linqiu/polychat/backend/internal/middleware"
	catalogModel "github.com/linqiu/polychat/backend/internal/model/catalog"
	chatService "github.com/linqiu/polychat/backend/internal/service/chat"
	"github.com/linqiu/polychat/backend/internal/store"
	"github.com/linqiu/polychat/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. The model catalog and the
// health probe are public; every conversation operation sits behind the
// bearer-auth middleware so credential failures short-circuit before any
// argument validation or store access.
func NewRouter(models catalogModel.Store, chatSvc *chatService.Service, verifier auth.Verifier, messageStore store.MessageStore) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		catalogHandler.New(models).RegisterRoutes(api)

		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			if err := messageStore.Ping(r.Context()); err != nil {
				utils.RespondError(w, http.StatusServiceUnavailable, "store unreachable")
				return
			}
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		api.Group(func(authed chi.Router) {
			authed.Use(middlewarePkg.RequireAuth(verifier))
			chatHandler.New(chatSvc).RegisterRoutes(authed)
		})
	})

	return r
}
