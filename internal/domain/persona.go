package domain

// Persona is a behavioral template fed into LLM prompts.
type Persona struct {
	Username string
	// Descriptor is the whole decoded definition document.
	Descriptor map[string]any
}
