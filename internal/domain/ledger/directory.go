package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/singleflight"

	"github.com/jkcommunity/jkbot/internal/domain/errs"
)

const (
	DefaultDirectoryCacheSize = 1024
	maxSuggestions            = 3
)

// UserRepository persists the users the bot has seen.
type UserRepository interface {
	// Upsert creates the user on first sight and refreshes the handle and
	// display name afterwards.
	Upsert(ctx context.Context, user *User) (created bool, err error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByHandle(ctx context.Context, handle string) (*User, error)
	Handles(ctx context.Context) ([]string, error)
}

var mentionPattern = regexp.MustCompile(`^<@!?(\d+)>$`)

// Directory resolves command arguments to users.
type Directory struct {
	repo  UserRepository
	cache *lru.Cache
	group singleflight.Group
}

func NewDirectory(repo UserRepository, cacheSize int) *Directory {
	if cacheSize <= 0 {
		cacheSize = DefaultDirectoryCacheSize
	}
	cache, _ := lru.New(cacheSize)
	return &Directory{repo: repo, cache: cache}
}

// NormalizeHandle strips a leading @ and lowercases the handle.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

// Touch records that the user was seen. Unchanged users are served from
// cache without a write.
func (d *Directory) Touch(ctx context.Context, user User) (*User, error) {
	user.Handle = NormalizeHandle(user.Handle)

	if cached, ok := d.cache.Get(idKey(user.ID)); ok {
		known := cached.(User)
		if known.Handle == user.Handle && known.DisplayName == user.DisplayName {
			return &known, nil
		}
		d.cache.Remove(handleKey(known.Handle))
	}

	created, err := d.repo.Upsert(ctx, &user)
	if err != nil {
		return nil, errs.Persistence("touch", "user", err)
	}
	if created {
		slog.Info("New user registered",
			slog.String("type", "db"),
			slog.Int64("user_id", user.ID),
			slog.String("handle", user.Handle),
		)
	}

	d.remember(user)
	return &user, nil
}

// Resolve accepts a mention, a numeric id or a handle with or without @.
func (d *Directory) Resolve(ctx context.Context, ref string) (*User, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errs.Validation("user", "missing")
	}

	if m := mentionPattern.FindStringSubmatch(ref); m != nil {
		ref = m[1]
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return d.byID(ctx, id)
	}
	return d.byHandle(ctx, NormalizeHandle(ref))
}

func (d *Directory) byID(ctx context.Context, id int64) (*User, error) {
	if cached, ok := d.cache.Get(idKey(id)); ok {
		u := cached.(User)
		return &u, nil
	}

	v, err, _ := d.group.Do(idKey(id), func() (any, error) {
		return d.repo.GetByID(ctx, id)
	})
	if err != nil {
		return nil, d.lookupError(err, id)
	}
	u := v.(*User)
	d.remember(*u)
	return u, nil
}

func (d *Directory) byHandle(ctx context.Context, handle string) (*User, error) {
	if cached, ok := d.cache.Get(handleKey(handle)); ok {
		u := cached.(User)
		return &u, nil
	}

	v, err, _ := d.group.Do(handleKey(handle), func() (any, error) {
		return d.repo.GetByHandle(ctx, handle)
	})
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, &errs.NotFoundError{
				Entity:      "user",
				Key:         "@" + handle,
				Suggestions: d.Suggest(ctx, handle),
			}
		}
		return nil, d.lookupError(err, handle)
	}
	u := v.(*User)
	d.remember(*u)
	return u, nil
}

// Suggest returns the closest known handles, best match first.
func (d *Directory) Suggest(ctx context.Context, handle string) []string {
	handles, err := d.repo.Handles(ctx)
	if err != nil {
		slog.Warn("Failed to load handles for suggestions",
			slog.String("type", "db"),
			slog.Any("error", err),
		)
		return nil
	}

	matches := fuzzy.Find(NormalizeHandle(handle), handles)
	suggestions := make([]string, 0, maxSuggestions)
	for _, m := range matches {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, "@"+m.Str)
	}
	return suggestions
}

func (d *Directory) remember(u User) {
	d.cache.Add(idKey(u.ID), u)
	if u.Handle != "" {
		d.cache.Add(handleKey(u.Handle), u)
	}
}

func (d *Directory) lookupError(err error, key any) error {
	if errs.IsNotFound(err) {
		return &errs.NotFoundError{Entity: "user", Key: key}
	}
	return errs.Persistence("lookup", "user", err)
}

func idKey(id int64) string {
	return fmt.Sprintf("id:%d", id)
}

func handleKey(handle string) string {
	return "handle:" + handle
}
