package signoffservice

import (
	"log/slog"

	httpadapter "signoff/contexts/editorial-workflow/signoff-service/adapters/http"
	"signoff/contexts/editorial-workflow/signoff-service/adapters/memory"
	"signoff/contexts/editorial-workflow/signoff-service/adapters/token"
	"signoff/contexts/editorial-workflow/signoff-service/application"
	"signoff/contexts/editorial-workflow/signoff-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Directory      ports.DirectoryClient
	Allowlist      ports.AllowlistStore
	Votes          ports.VoteStore
	Content        ports.ContentClient
	Authz          ports.AuthorizationClient
	Notifier       ports.Notifier
	Tokens         ports.TokenService
	Clock          ports.Clock
	ModeratorRoles []string
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Directory: application.DirectoryResolver{
			Directory: deps.Directory,
			Allowlist: deps.Allowlist,
			Roles:     deps.ModeratorRoles,
			Logger:    deps.Logger,
		},
		Votes:    deps.Votes,
		Content:  deps.Content,
		Authz:    deps.Authz,
		Notifier: deps.Notifier,
		Clock:    deps.Clock,
		Logger:   deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Tokens:  deps.Tokens,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

// NewInMemoryModule wires every port to the memory store. Used by tests and
// local runs without postgres.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Directory: store,
		Allowlist: store,
		Votes:     store,
		Content:   store,
		Authz:     store,
		Notifier:  store,
		Tokens:    token.Service{Secret: []byte("signoff-dev-secret"), Clock: store},
		Clock:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}
