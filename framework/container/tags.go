package container

import "slices"

// Tag associates abstracts with one or more tags. Registration order is
// kept and duplicates are not removed.
//
//	// Laravel: $app->tag([CpuReport::class, MemoryReport::class], 'reports')
//	c.Tag([]string{"CpuReport", "MemoryReport"}, "reports")
func (c *Container) Tag(abstracts []string, tags ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tag := range tags {
		c.tags[tag] = append(c.tags[tag], abstracts...)
	}
}

// Tagged resolves all abstracts registered under a tag, in registration
// order. An unknown tag yields an empty slice.
//
//	// Laravel: $app->tagged('reports')
//	reports, err := c.Tagged("reports")  // []any
func (c *Container) Tagged(tag string) ([]any, error) {
	c.mu.RLock()
	abstracts := slices.Clone(c.tags[tag])
	c.mu.RUnlock()

	result := make([]any, 0, len(abstracts))
	for _, abs := range abstracts {
		instance, err := c.resolve(abs, nil)
		if err != nil {
			return nil, err
		}
		result = append(result, instance)
	}
	return result, nil
}
