package handler

import (
	"communityhub/internal/app/announce"
	"communityhub/internal/app/meeting"
	"communityhub/internal/app/storage"
	"communityhub/internal/app/store"
	"communityhub/internal/configs"
)

// AppDeps bundles the services the HTTP handlers depend on.
type AppDeps struct {
	Config         *configs.AppConfig
	Store          *store.Store
	Hub            *meeting.Hub
	Queue          *announce.Queue
	StorageService storage.StorageService
}
