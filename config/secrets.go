package config

import (
	"fmt"
	"strings"
)

// Environment variable names for the process secrets.
const (
	EnvMongoURI  = "MONGODB_URI"
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvTavilyKey = "TAVILY_API_KEY"
)

// Secrets holds credentials read from the environment.
type Secrets struct {
	MongoURI  string
	OpenAIKey string
	TavilyKey string
}

// Require returns ErrMissingSecret naming every required secret that is empty.
// The generation API key is always required, the document store URI unless
// records stay in memory, and the search key only when needSearch is set.
func (s Secrets) Require(needStore, needSearch bool) error {
	var missing []string
	if needStore && strings.TrimSpace(s.MongoURI) == "" {
		missing = append(missing, EnvMongoURI)
	}
	if strings.TrimSpace(s.OpenAIKey) == "" {
		missing = append(missing, EnvOpenAIKey)
	}
	if needSearch && strings.TrimSpace(s.TavilyKey) == "" {
		missing = append(missing, EnvTavilyKey)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSecret, strings.Join(missing, ", "))
	}
	return nil
}
