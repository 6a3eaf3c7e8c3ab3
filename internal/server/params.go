// file: internal/server/params.go
// version: 1.0.0
// guid: 3e5f7a9b-1c2d-4e3f-8a5b-7c9d1e3f5a7b

package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/absmeta/metadata-server/internal/provider"
)

// Context keys used to hand the resolved provider and parsed parameters to
// the downstream handler.
const (
	ctxKeyProvider     = "provider"
	ctxKeyParsedParams = "parsedParams"
)

type paramPair struct {
	name  string
	value string
}

// parseProviderParams resolves the provider from the path, splits the
// wildcard remainder into name:value tokens and validates them against the
// provider's declared schema. The parameter set is closed: every declared
// required parameter must be supplied, every supplied name must be declared.
// Validation stops at the first failure.
func (s *Server) parseProviderParams(c *gin.Context) {
	providerID := c.Param("providerId")

	rest := strings.Trim(c.Param("params"), "/")
	segments := strings.Split(rest, "/")

	// The token list ends with the literal "search" segment; anything else
	// is not a route we serve.
	if segments[len(segments)-1] != "search" {
		RespondWithNotFound(c, "not found")
		return
	}
	tokens := segments[:len(segments)-1]

	p, ok := s.registry.Get(providerID)
	if !ok {
		RespondWithNotFound(c, "Provider not found: "+providerID)
		return
	}

	// Tokens without a colon carry no name and are dropped, not rejected.
	pairs := make([]paramPair, 0, len(tokens))
	for _, token := range tokens {
		if token == "" {
			continue
		}
		idx := strings.Index(token, ":")
		if idx == -1 {
			continue
		}
		pairs = append(pairs, paramPair{name: token[:idx], value: token[idx+1:]})
	}

	cfg := p.Config()
	parsed := provider.ParsedParameters{}

	for _, spec := range cfg.Parameters {
		var supplied *paramPair
		for i := range pairs {
			if pairs[i].name == spec.Name {
				supplied = &pairs[i]
				break
			}
		}

		if supplied == nil {
			if spec.Required {
				RespondWithBadRequest(c, "Missing required parameter: "+spec.Name)
				return
			}
			continue
		}

		result := provider.Validate(supplied.value, spec.Validation)
		if !result.Valid {
			RespondWithBadRequest(c, "Invalid parameter "+spec.Name+": "+result.Error)
			return
		}
		parsed[spec.Name] = result.ParsedValue
	}

	declared := make(map[string]bool, len(cfg.Parameters))
	for _, spec := range cfg.Parameters {
		declared[spec.Name] = true
	}
	for _, pair := range pairs {
		if !declared[pair.name] {
			RespondWithBadRequest(c, "Unknown parameter: "+pair.name)
			return
		}
	}

	c.Set(ctxKeyProvider, p)
	c.Set(ctxKeyParsedParams, parsed)
	c.Next()
}
