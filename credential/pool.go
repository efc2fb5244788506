// Package credential rotates execution-agent secrets round-robin.
package credential

import (
	"errors"
	"strings"
	"sync"
)

// ErrPoolExhausted is returned when the pool holds no usable credential.
var ErrPoolExhausted = errors.New("credential pool exhausted: no valid credentials configured")

// MaskPlaceholder is shown for secrets too short to partially reveal.
const MaskPlaceholder = "****"

// Credential is one secret and its position in the pool.
type Credential struct {
	Index  int
	Secret string
}

// String masks the secret so a Credential is safe to log.
func (c Credential) String() string { return Mask(c.Secret) }

// Pool hands out credentials in insertion order, cycling forever. Blank
// entries are dropped once at construction. Safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	entries []string
	cursor  int
}

// New builds a pool from raw secrets.
func New(secrets []string) *Pool {
	entries := make([]string, 0, len(secrets))
	for _, s := range secrets {
		s = strings.TrimSpace(s)
		if s != "" {
			entries = append(entries, s)
		}
	}
	return &Pool{entries: entries}
}

// Len returns the number of usable credentials.
func (p *Pool) Len() int {
	return len(p.entries)
}

// Next returns the credential under the cursor and advances it.
func (p *Pool) Next() (Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.entries) == 0 {
		return Credential{}, ErrPoolExhausted
	}
	c := Credential{Index: p.cursor, Secret: p.entries[p.cursor]}
	p.cursor = (p.cursor + 1) % len(p.entries)
	return c, nil
}

// Mask returns the first and last three characters around "...". Secrets
// shorter than six characters collapse to MaskPlaceholder.
func Mask(secret string) string {
	runes := []rune(secret)
	if len(runes) < 6 {
		return MaskPlaceholder
	}
	return string(runes[:3]) + "..." + string(runes[len(runes)-3:])
}
