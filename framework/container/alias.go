package container

import "log/slog"

// Alias registers an alternative name for an abstract. Aliases may point
// at other aliases; they are followed until a non-aliased name is reached.
//
//	// Laravel: $app->alias(Cache::class, 'cache')
//	c.Alias("cache", "cacheManager")
func (c *Container) Alias(abstract, alias string) error {
	if abstract == alias {
		return &SelfAliasError{Abstract: abstract}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for name := abstract; ; {
		if name == alias {
			return &AliasCycleError{Abstract: abstract, Alias: alias}
		}
		next, ok := c.aliases[name]
		if !ok {
			break
		}
		name = next
	}

	c.aliases[alias] = abstract
	c.log.Debug("container: aliased", slog.String("abstract", abstract), slog.String("alias", alias))
	return nil
}

// IsAlias returns true if name is registered as an alias.
func (c *Container) IsAlias(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.aliases[name]
	return ok
}

// GetAlias returns the canonical abstract behind name, or name itself.
func (c *Container) GetAlias(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.canonical(name)
}

// canonical follows the alias chain of abstract (must hold mu).
// Alias rejects loops, so the walk always terminates.
func (c *Container) canonical(abstract string) string {
	for {
		target, ok := c.aliases[abstract]
		if !ok {
			return abstract
		}
		abstract = target
	}
}
