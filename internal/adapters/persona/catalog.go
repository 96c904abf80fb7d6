package persona

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/bnema/crowdcast/internal/ports"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Catalog struct {
	mainUsername string
	logger       *zap.Logger
	intN         func(n int) int

	mu       sync.RWMutex
	personas []domain.Persona
	index    map[string]int
}

var _ ports.PersonaCatalog = (*Catalog)(nil)

func NewCatalog(mainUsername string, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Catalog{
		mainUsername: strings.TrimSpace(mainUsername),
		logger:       logger.Named("personas"),
		intN:         rand.IntN,
		index:        map[string]int{},
	}
}

// Load replaces the catalog with every definition found in dir.
func (c *Catalog) Load(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return &domain.CatalogLoadError{Dir: dir, Err: err}
	}

	personas := make([]domain.Persona, 0, len(entries))
	index := make(map[string]int, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		decode := decoderFor(name)
		if decode == nil {
			continue
		}

		persona, err := readDefinition(filepath.Join(dir, name), decode)
		if err != nil {
			c.logger.Warn("skip persona definition", zap.String("file", name), zap.Error(err))
			continue
		}
		if _, dup := index[persona.Username]; dup {
			c.logger.Warn("skip duplicate persona", zap.String("file", name), zap.String("username", persona.Username))
			continue
		}

		index[persona.Username] = len(personas)
		personas = append(personas, persona)
	}

	c.mu.Lock()
	c.personas = personas
	c.index = index
	c.mu.Unlock()

	c.logger.Debug("personas loaded", zap.String("dir", dir), zap.Int("count", len(personas)))
	return nil
}

func (c *Catalog) List() []domain.Persona {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]domain.Persona(nil), c.personas...)
}

func (c *Catalog) ByUsername(username string) (domain.Persona, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[strings.TrimSpace(username)]
	if !ok {
		return domain.Persona{}, fmt.Errorf("%q: %w", username, domain.ErrPersonaNotFound)
	}
	return c.personas[i], nil
}

// Main returns the configured main persona, or the first loaded one.
func (c *Catalog) Main() (domain.Persona, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.personas) == 0 {
		return domain.Persona{}, domain.ErrCatalogEmpty
	}
	if c.mainUsername != "" {
		if i, ok := c.index[c.mainUsername]; ok {
			return c.personas[i], nil
		}
		c.logger.Warn("main persona not found, using first", zap.String("username", c.mainUsername))
	}
	return c.personas[0], nil
}

func (c *Catalog) Random(excluding ...string) (domain.Persona, error) {
	skip := make(map[string]struct{}, len(excluding))
	for _, username := range excluding {
		skip[strings.TrimSpace(username)] = struct{}{}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	eligible := make([]domain.Persona, 0, len(c.personas))
	for _, persona := range c.personas {
		if _, ok := skip[persona.Username]; !ok {
			eligible = append(eligible, persona)
		}
	}
	if len(eligible) == 0 {
		return domain.Persona{}, domain.ErrCatalogEmpty
	}
	return eligible[c.intN(len(eligible))], nil
}

type decodeFunc func(data []byte, out *map[string]any) error

func decoderFor(name string) decodeFunc {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return func(data []byte, out *map[string]any) error {
			return json.Unmarshal(data, out)
		}
	case ".yaml", ".yml":
		return func(data []byte, out *map[string]any) error {
			return yaml.Unmarshal(data, out)
		}
	default:
		return nil
	}
}

var errMissingUsername = errors.New("definition has no username")

func readDefinition(path string, decode decodeFunc) (domain.Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Persona{}, fmt.Errorf("read definition: %w", err)
	}

	var descriptor map[string]any
	if err := decode(data, &descriptor); err != nil {
		return domain.Persona{}, fmt.Errorf("decode definition: %w", err)
	}

	username, _ := descriptor["username"].(string)
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Persona{}, errMissingUsername
	}

	descriptor, _ = normalizeValue(descriptor).(map[string]any)
	if _, err := json.Marshal(descriptor); err != nil {
		return domain.Persona{}, fmt.Errorf("definition is not json encodable: %w", err)
	}

	return domain.Persona{Username: username, Descriptor: descriptor}, nil
}

// normalizeValue rewrites YAML mappings with non-string keys into string-keyed maps.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalizeValue(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return value
	}
}
