// Package appearance reads the appearance document a simulation server sends
// on connect and turns it into a material resolver.
//
// Any element with a name attribute may carry its material either as an
// appearance (or material) attribute or as the text of an appearance (or
// material) child element:
//
//	<sphere name="ball"><appearance>rubber_red</appearance></sphere>
//	<box name="crate" appearance="wood"/>
package appearance

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/open-teleop/simviz/pkg/scene"
)

var ErrEmptyDocument = errors.New("appearance: empty document")

// Map is a display name to material hint table.
type Map struct {
	hints map[string]string
}

func isHintKey(local string) bool {
	return local == "appearance" || local == "material"
}

// Parse reads an appearance document. Later entries for a name win.
func Parse(doc string) (*Map, error) {
	if strings.TrimSpace(doc) == "" {
		return nil, ErrEmptyDocument
	}

	m := &Map{hints: make(map[string]string)}
	dec := xml.NewDecoder(strings.NewReader(doc))

	// names holds the name attribute of every open element, "" when absent.
	var names []string
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("appearance: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := ""
			for _, attr := range t.Attr {
				if attr.Name.Local == "name" {
					name = attr.Value
				}
			}
			for _, attr := range t.Attr {
				if name != "" && isHintKey(attr.Name.Local) && attr.Value != "" {
					m.hints[name] = attr.Value
				}
			}
			names = append(names, name)
			text.Reset()
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			names = names[:len(names)-1]
			if isHintKey(t.Name.Local) && len(names) > 0 {
				owner := names[len(names)-1]
				if hint := strings.TrimSpace(text.String()); owner != "" && hint != "" {
					m.hints[owner] = hint
				}
			}
			text.Reset()
		}
	}
	return m, nil
}

// Len is the number of names with a hint.
func (m *Map) Len() int {
	return len(m.hints)
}

// Resolve returns the hint for a display name.
func (m *Map) Resolve(displayName string) (string, bool) {
	hint, ok := m.hints[displayName]
	return hint, ok
}

// ParseResolver parses doc and returns its Resolve method.
func ParseResolver(doc string) (scene.Resolver, error) {
	m, err := Parse(doc)
	if err != nil {
		return nil, err
	}
	return m.Resolve, nil
}

// Chain returns a resolver that asks each non-nil resolver in turn.
func Chain(resolvers ...scene.Resolver) scene.Resolver {
	return func(displayName string) (string, bool) {
		for _, r := range resolvers {
			if r == nil {
				continue
			}
			if hint, ok := r(displayName); ok {
				return hint, true
			}
		}
		return "", false
	}
}

// Static resolves from a fixed table.
func Static(hints map[string]string) scene.Resolver {
	return func(displayName string) (string, bool) {
		hint, ok := hints[displayName]
		return hint, ok
	}
}
