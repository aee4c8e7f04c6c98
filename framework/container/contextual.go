package container

// implementation is what a contextual binding gives.
type implementation struct {
	factory Factory
	class   string
	tag     string
	value   any
}

func (impl implementation) resolve(c *Container, abstract string, params Params) (any, error) {
	switch {
	case impl.factory != nil:
		return impl.factory(c.with(abstract), params)
	case impl.class != "":
		return c.resolve(impl.class, params)
	case impl.tag != "":
		return c.Tagged(impl.tag)
	}
	return impl.value, nil
}

// ContextualBuilder implements the fluent contextual binding API.
//
//	// Laravel: $app->when(PhotoController::class)->needs(Filesystem::class)->give(...)
//	c.When("PhotoController").Needs("Filesystem").Give(func(c *container.Container, _ container.Params) (any, error) {
//	    return filesystem.NewS3(...), nil
//	})
type ContextualBuilder struct {
	container *Container
	concretes []string
	needs     string
}

// When starts a contextual binding chain for one or more concrete types.
//
//	// Laravel: $app->when([VideoController::class, PhotoController::class])
//	c.When("VideoController", "PhotoController")
func (c *Container) When(concretes ...string) *ContextualBuilder {
	return &ContextualBuilder{container: c.root, concretes: concretes}
}

// Needs specifies which abstract the concrete type depends on. Use
// "$name" to target a primitive constructor parameter.
func (b *ContextualBuilder) Needs(abstract string) *ContextualBuilder {
	b.needs = abstract
	return b
}

// Give provides the factory that should be used when the concrete type
// resolves the specified abstract.
func (b *ContextualBuilder) Give(factory Factory) {
	b.add(implementation{factory: factory})
}

// GiveClass resolves another abstract or class in place of the needed one.
//
//	// Laravel: ->give(S3Filesystem::class)
func (b *ContextualBuilder) GiveClass(concrete string) {
	b.add(implementation{class: concrete})
}

// GiveValue is a shorthand for Give when the value is a simple scalar or
// pre-built instance (no factory logic needed).
//
//	// Laravel: ->give('/tmp/photos')
//	c.When("PhotoController").Needs("$storagePath").GiveValue("/tmp/photos")
func (b *ContextualBuilder) GiveValue(value any) {
	b.add(implementation{value: value})
}

// GiveTagged injects every abstract tagged with tag, as a []any.
//
//	// Laravel: ->giveTagged('reports')
func (b *ContextualBuilder) GiveTagged(tag string) {
	b.add(implementation{tag: tag})
}

func (b *ContextualBuilder) add(impl implementation) {
	c := b.container
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, concrete := range b.concretes {
		key := c.canonical(concrete)
		if _, ok := c.contextual[key]; !ok {
			c.contextual[key] = make(map[string]implementation)
		}
		c.contextual[key][b.needs] = impl
	}
}

// contextualFor returns the contextual implementation registered for the
// innermost build frame and abstract, checking the requested name first and
// then its canonical name.
func (c *Container) contextualFor(abstract string) (implementation, bool) {
	if c.frame == nil {
		return implementation{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.contextual[c.frame.name]
	if !ok {
		return implementation{}, false
	}
	if impl, ok := m[abstract]; ok {
		return impl, true
	}
	impl, ok := m[c.canonical(abstract)]
	return impl, ok
}
