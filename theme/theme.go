/*
 *
 * themectl - theme injection for Chromium-based desktop apps
 * Copyright (C) 2026 The themectl Authors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

// Package theme holds the catalog of CSS themes and builds the scripts that
// inject or remove them from a page.
package theme

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// StyleElementID is the id of the <style> element the scripts manage.
const StyleElementID = "codex-theme-controller-style"

// DefaultThemeID is used when no theme is configured.
const DefaultThemeID = "darcula"

// Mode selects whether ScriptFor builds an inject or a remove script.
type Mode int

const (
	ModeInject Mode = iota
	ModeRemove
)

func (m Mode) String() string {
	if m == ModeRemove {
		return "remove"
	}
	return "inject"
}

// ErrUnknownTheme is returned for theme ids the catalog does not know.
var ErrUnknownTheme = errors.New("unknown theme")

// Theme is a named stylesheet.
type Theme struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	CSS  string `json:"-" yaml:"css"`
}

// Catalog is an immutable set of themes, in registration order.
type Catalog struct {
	themes []Theme
	byID   map[string]int
}

// NewCatalog returns a catalog of the builtin themes followed by extra.
// Extra themes need an id and CSS, and cannot reuse an existing id.
func NewCatalog(extra ...Theme) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int)}
	for _, t := range append(Builtin(), extra...) {
		if err := c.add(t); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Default returns a catalog of the builtin themes.
func Default() *Catalog {
	c, err := NewCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) add(t Theme) error {
	switch {
	case t.ID == "":
		return errors.New("theme without an id")
	case t.CSS == "":
		return fmt.Errorf("theme %q has no css", t.ID)
	}
	if _, ok := c.byID[t.ID]; ok {
		return fmt.Errorf("theme %q is defined more than once", t.ID)
	}
	if t.Name == "" {
		t.Name = t.ID
	}
	c.byID[t.ID] = len(c.themes)
	c.themes = append(c.themes, t)
	return nil
}

// Themes returns the themes in registration order.
func (c *Catalog) Themes() []Theme {
	return append([]Theme(nil), c.themes...)
}

// IDs returns the sorted theme ids.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.themes))
	for _, t := range c.themes {
		ids = append(ids, t.ID)
	}
	sort.Strings(ids)
	return ids
}

// Lookup returns the theme with the given id.
func (c *Catalog) Lookup(id string) (Theme, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Theme{}, false
	}
	return c.themes[i], true
}

// ScriptFor returns the script to evaluate for mode. The theme id is only
// used in inject mode.
func (c *Catalog) ScriptFor(themeID string, mode Mode) (string, error) {
	if mode == ModeRemove {
		return RemoveExpression(), nil
	}
	t, ok := c.Lookup(themeID)
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownTheme, themeID)
	}
	return InjectExpression(t), nil
}

// InjectExpression returns a script that creates or updates the theme's
// <style> element and evaluates to 'injected'.
func InjectExpression(t Theme) string {
	return fmt.Sprintf(`(() => {
  const id = %s;
  let style = document.getElementById(id);
  if (!style) {
    style = document.createElement('style');
    style.id = id;
    document.documentElement.appendChild(style);
  }
  style.textContent = %s;
  return 'injected';
})()`, jsString(StyleElementID), jsString(t.CSS))
}

// RemoveExpression returns a script that removes the theme's <style>
// element and evaluates to 'removed', or 'not-found' if there was none.
func RemoveExpression() string {
	return fmt.Sprintf(`(() => {
  const id = %s;
  const style = document.getElementById(id);
  if (style) {
    style.remove();
    return 'removed';
  }
  return 'not-found';
})()`, jsString(StyleElementID))
}

// jsString quotes s as a JSON string, which is also a valid JS literal.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
