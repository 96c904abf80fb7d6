package ports

import "github.com/bnema/crowdcast/internal/domain"

type PersonaCatalog interface {
	ByUsername(username string) (domain.Persona, error)
	Main() (domain.Persona, error)
	Random(excluding ...string) (domain.Persona, error)
}
