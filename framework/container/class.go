package container

import (
	"errors"
	"fmt"
	"slices"
)

// ── Class descriptors ─────────────────────────────────────────────────────────

// Param describes one constructor parameter.
//
// A Param with a Class is resolved from the container; a Param without one
// is a primitive and can only be filled from explicit Params, a contextual
// "$name" binding or its default.
type Param struct {
	Name       string
	Class      string
	Default    any
	HasDefault bool
	Variadic   bool
}

// Dep describes a parameter named name that needs the abstract class.
func Dep(name, class string) Param { return Param{Name: name, Class: class} }

// Primitive describes a parameter that the container cannot build by itself.
func Primitive(name string) Param { return Param{Name: name} }

// WithDefault returns a copy of p that falls back to v.
func (p Param) WithDefault(v any) Param {
	p.Default = v
	p.HasDefault = true
	return p
}

// AsVariadic returns a copy of p that accepts an empty list when nothing
// can be resolved.
func (p Param) AsVariadic() Param {
	p.Variadic = true
	return p
}

// Class is the constructor descriptor the container auto-wires from.
//
// Go has no constructor reflection with parameter names, so every class the
// container may build on its own is described up front:
//
//	// Laravel: class UserController { public function __construct(UserRepository $users, int $perPage = 15) }
//	c.Define(container.Class{
//	    Name:   "UserController",
//	    Params: []container.Param{
//	        container.Dep("users", "UserRepository"),
//	        container.Primitive("perPage").WithDefault(15),
//	    },
//	    New: func(args []any) (any, error) {
//	        return &UserController{Users: args[0].(UserRepository), PerPage: args[1].(int)}, nil
//	    },
//	})
type Class struct {
	// Name is the identifier the class is built under.
	Name string

	// Abstract marks interfaces and abstract classes, which are never
	// instantiated directly.
	Abstract bool

	// Implements lists the abstracts an instance of this class satisfies.
	// Type-scoped callbacks registered for any of them fire for this class.
	Implements []string

	// Params are the constructor parameters in declaration order.
	Params []Param

	// New receives one argument per Param, in the same order.
	New func(args []any) (any, error)
}

func (cl *Class) implements(abstract string) bool {
	return cl != nil && (cl.Name == abstract || slices.Contains(cl.Implements, abstract))
}

// Define registers a class descriptor. Defining a name twice replaces the
// earlier descriptor.
func (c *Container) Define(class Class) error {
	if class.Name == "" {
		return errors.New("container: class name is empty")
	}
	if !class.Abstract && class.New == nil {
		return fmt.Errorf("container: class [%s] has no constructor", class.Name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	cl := class
	cl.Params = slices.Clone(class.Params)
	cl.Implements = slices.Clone(class.Implements)
	c.classes[class.Name] = &cl
	return nil
}

// Defined returns true if a class descriptor exists for name.
func (c *Container) Defined(name string) bool {
	return c.class(name) != nil
}

func (c *Container) class(name string) *Class {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.classes[name]
}

// ── Auto-wiring ───────────────────────────────────────────────────────────────

// buildClass instantiates the class registered under name, resolving its
// parameters in declaration order with name as the innermost build frame.
func (c *Container) buildClass(name string, params Params) (any, *Class, error) {
	cl := c.class(name)
	if cl == nil {
		return nil, nil, &BindingResolutionError{
			Abstract: name,
			Message:  fmt.Sprintf("target class [%s] does not exist", name),
			Stack:    c.frame.path(),
		}
	}
	if cl.Abstract {
		return nil, cl, &BindingResolutionError{
			Abstract: name,
			Message:  fmt.Sprintf("target [%s] is not instantiable", name),
			Stack:    c.frame.path(),
		}
	}

	var args []any
	if len(cl.Params) > 0 {
		scope := c.with(name)
		args = make([]any, len(cl.Params))
		for i, p := range cl.Params {
			v, err := scope.resolveParam(cl, i, p, params)
			if err != nil {
				return nil, cl, err
			}
			args[i] = v
		}
	}

	instance, err := call(func() (any, error) { return cl.New(args) })
	if err != nil {
		return nil, cl, &BindingResolutionError{
			Abstract: name,
			Message:  fmt.Sprintf("constructing [%s] failed", name),
			Stack:    c.frame.path(),
			Err:      err,
		}
	}
	return instance, cl, nil
}

// resolveParam fills one constructor parameter. c is already scoped to the
// class being built.
func (c *Container) resolveParam(cl *Class, i int, p Param, params Params) (any, error) {
	if v, ok := params[p.Name]; ok {
		return v, nil
	}

	if p.Class != "" {
		v, err := c.resolve(p.Class, nil)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrBindingResolution) || errors.Is(err, ErrCyclicDependency) {
			return nil, err
		}
		switch {
		case p.HasDefault:
			return p.Default, nil
		case p.Variadic:
			return []any{}, nil
		}
		return nil, err
	}

	if impl, ok := c.contextualFor("$" + p.Name); ok {
		return impl.resolve(c, "$"+p.Name, nil)
	}
	switch {
	case p.HasDefault:
		return p.Default, nil
	case p.Variadic:
		return []any{}, nil
	}
	return nil, &BindingResolutionError{
		Abstract: cl.Name,
		Message: fmt.Sprintf("unresolvable dependency resolving [parameter #%d [ <required> $%s ]] in class %s",
			i, p.Name, cl.Name),
		Stack: c.frame.path(),
	}
}
