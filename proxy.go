package djconf

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// Proxy is a deferred default: a value computed from settings resolved
// earlier in the same pass. Deps lists the dotted paths it reads; they
// order evaluation.
type Proxy struct {
	Kind Kind
	Deps []string

	fn  func(ns *Namespace, caps Capabilities) (any, error)
	src string
	err error
}

// Func wraps a Go function as a deferred default reading deps.
func Func(kind Kind, deps []string, fn func(ns *Namespace) (any, error)) *Proxy {
	p := &Proxy{Kind: kind, Deps: deps}
	if fn != nil {
		p.fn = func(ns *Namespace, _ Capabilities) (any, error) { return fn(ns) }
	}
	return p
}

// CapabilityFunc is Func for computations that also consult the host's
// capability set.
func CapabilityFunc(kind Kind, deps []string, fn func(ns *Namespace, caps Capabilities) (any, error)) *Proxy {
	return &Proxy{Kind: kind, Deps: deps, fn: fn}
}

// Ref defers to the value resolved at path.
func Ref(kind Kind, path string) *Proxy {
	return Func(kind, []string{path}, func(ns *Namespace) (any, error) {
		v, err := ns.Lookup(path)
		if err != nil {
			return nil, err
		}
		return cloneValue(v), nil
	})
}

// Format renders template with the value resolved at path.
func Format(path, template string) *Proxy {
	return Func(KindString, []string{path}, func(ns *Namespace) (any, error) {
		v, err := ns.Lookup(path)
		if err != nil {
			return nil, err
		}
		return fmt.Sprintf(template, v), nil
	})
}

// Join appends elem to the directory resolved at path.
func Join(path, elem string) *Proxy {
	return Func(KindString, []string{path}, func(ns *Namespace) (any, error) {
		dir, err := lookupString(ns, path)
		if err != nil {
			return nil, err
		}
		return filepath.Join(dir, elem), nil
	})
}

// Installed picks ifTrue when app is listed in INSTALLED_APPS, else ifFalse.
func Installed(app string, ifTrue, ifFalse any) *Proxy {
	return Func(KindOf(ifTrue), []string{"INSTALLED_APPS"}, func(ns *Namespace) (any, error) {
		ok, err := isInstalled(ns, app)
		if err != nil {
			return nil, err
		}
		if ok {
			return cloneValue(ifTrue), nil
		}
		return cloneValue(ifFalse), nil
	})
}

// Required has no default: the setting must come from the environment.
func Required(kind Kind) *Proxy {
	return &Proxy{Kind: kind}
}

// Expr defers to an expression evaluated over the settings resolved so far.
// Besides the settings, expressions may call capable(name), installed(app)
// and path_join(elems...). Its dependencies are read from the expression.
func Expr(kind Kind, src string) *Proxy {
	p := &Proxy{Kind: kind, src: src}
	p.Deps, p.err = exprDeps(src)
	return p
}

// Source returns the expression of an Expr proxy.
func (p *Proxy) Source() string { return p.src }

// Eval computes the deferred value over ns.
func (p *Proxy) Eval(ns *Namespace, caps Capabilities) (any, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.src == "" && p.fn == nil {
		return nil, fmt.Errorf("%w: no value supplied", ErrUnresolvableReference)
	}
	var (
		v   any
		err error
	)
	if p.src != "" {
		v, err = p.evalExpr(ns, caps)
	} else {
		v, err = p.fn(ns, caps)
	}
	if err != nil {
		return nil, err
	}
	return conform(p.Kind, v)
}

func (p *Proxy) evalExpr(ns *Namespace, caps Capabilities) (any, error) {
	program, err := expr.Compile(p.src,
		expr.Function("capable", func(params ...any) (any, error) {
			name, _ := params[0].(string)
			return caps.Has(name), nil
		}, new(func(string) bool)),
		expr.Function("installed", func(params ...any) (any, error) {
			app, _ := params[0].(string)
			return isInstalled(ns, app)
		}, new(func(string) bool)),
		expr.Function("path_join", func(params ...any) (any, error) {
			elems := make([]string, 0, len(params))
			for _, param := range params {
				elems = append(elems, fmt.Sprint(param))
			}
			return filepath.Join(elems...), nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", p.src, err)
	}
	out, err := expr.Run(program, ns.Map())
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", p.src, err)
	}
	// the environment shares slices and maps with ns
	return cloneValue(out), nil
}

// depVisitor collects the identifier and member chains of an expression.
type depVisitor struct {
	paths []string
}

func (v *depVisitor) Visit(node *ast.Node) {
	if p, ok := memberPath(*node); ok && !slices.Contains(v.paths, p) {
		v.paths = append(v.paths, p)
	}
}

// memberPath renders a.b.c chains; anything computed yields false.
func memberPath(n ast.Node) (string, bool) {
	switch n := n.(type) {
	case *ast.IdentifierNode:
		return n.Value, true
	case *ast.MemberNode:
		prop, ok := n.Property.(*ast.StringNode)
		if !ok {
			return "", false
		}
		base, ok := memberPath(n.Node)
		if !ok {
			return "", false
		}
		return base + "." + prop.Value, true
	}
	return "", false
}

func exprDeps(src string) ([]string, error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", src, err)
	}
	v := &depVisitor{}
	ast.Walk(&tree.Node, v)

	// keep only the longest chains: DJCORE.URL.Host, not DJCORE
	var deps []string
	for _, p := range v.paths {
		shadowed := false
		for _, q := range v.paths {
			if strings.HasPrefix(q, p+".") {
				shadowed = true
				break
			}
		}
		if !shadowed {
			deps = append(deps, p)
		}
	}
	return deps, nil
}

func lookupString(ns *Namespace, path string) (string, error) {
	v, err := ns.Lookup(path)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s is a %T, not a string", path, v)
	}
	return s, nil
}

func isInstalled(ns *Namespace, app string) (bool, error) {
	v, err := ns.Lookup("INSTALLED_APPS")
	if err != nil {
		return false, err
	}
	apps, ok := v.([]string)
	if !ok {
		return false, fmt.Errorf("INSTALLED_APPS is a %T, not a list", v)
	}
	return slices.Contains(apps, app), nil
}
