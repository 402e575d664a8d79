package internal

import (
	"bitwise74/blog-api/internal/cache"
	"bitwise74/blog-api/internal/events"
	"bitwise74/blog-api/internal/storage"
	"bitwise74/blog-api/internal/store"
	"bitwise74/blog-api/pkg/security"
)

// DefaultPerPage is the number of posts returned per page when unset
const DefaultPerPage = 2

type Deps struct {
	Store   store.Store
	Hasher  security.PasswordHasher
	Tokens  *security.TokenIssuer
	Images  storage.ImageStore
	Cache   cache.PostCache
	Events  events.Publisher
	PerPage int
}
