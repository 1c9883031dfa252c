package gdrive

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"

	"github.com/driveguard/driveguard/internal/tokenfile"
)

// persistingSource wraps an oauth2.TokenSource and writes the credential
// store back whenever the underlying source hands out a different access
// token — that is how a silent refresh becomes durable across restarts.
// Cached metadata survives the rewrite.
type persistingSource struct {
	src       oauth2.TokenSource
	tokenPath string
	meta      map[string]string
	logger    *slog.Logger

	mu         sync.Mutex
	lastAccess string
}

func newPersistingSource(
	src oauth2.TokenSource,
	tokenPath string,
	current *oauth2.Token,
	meta map[string]string,
	logger *slog.Logger,
) *persistingSource {
	last := ""
	if current != nil {
		last = current.AccessToken
	}

	return &persistingSource{
		src:        src,
		tokenPath:  tokenPath,
		meta:       meta,
		logger:     logger,
		lastAccess: last,
	}
}

// Token returns a valid token, persisting it first if the library refreshed
// it. A failed persist is logged, not returned: the in-memory token is
// still valid, the daemon just loses the refresh on its next restart.
func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		s.logger.Warn("token acquisition failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("gdrive: obtaining token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tok.AccessToken != s.lastAccess {
		s.logger.Info("token refreshed, persisting",
			slog.String("path", s.tokenPath),
			slog.Time("new_expiry", tok.Expiry),
		)

		if saveErr := tokenfile.Save(s.tokenPath, tok, s.meta); saveErr != nil {
			s.logger.Warn("failed to persist refreshed token",
				slog.String("path", s.tokenPath),
				slog.String("error", saveErr.Error()),
			)
		} else {
			s.lastAccess = tok.AccessToken
		}
	}

	return tok, nil
}
