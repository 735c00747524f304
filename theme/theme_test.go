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

package theme

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDocument is just enough DOM for the scripts to run in goja.
const fakeDocument = `
var elements = {};
var document = {
  getElementById: function(id) { return elements[id] || null; },
  createElement: function(tag) {
    var el = { tagName: tag, id: "", textContent: "" };
    el.remove = function() { delete elements[el.id]; };
    return el;
  },
  documentElement: {
    appendChild: function(el) { elements[el.id] = el; }
  }
};
`

func newPage(t *testing.T) *goja.Runtime {
	t.Helper()

	vm := goja.New()
	_, err := vm.RunString(fakeDocument)
	require.NoError(t, err)
	return vm
}

func run(t *testing.T, vm *goja.Runtime, script string) string {
	t.Helper()

	v, err := vm.RunString(script)
	require.NoError(t, err)
	return v.String()
}

func TestBuiltinThemes(t *testing.T) {
	t.Parallel()

	c := Default()
	assert.Equal(t, []string{"darcula", "dracula", "monokai", "nord"}, c.IDs())
	assert.Equal(t, DefaultThemeID, c.Themes()[0].ID)

	for _, th := range c.Themes() {
		assert.NotEmpty(t, th.CSS, th.ID)
		assert.NotEmpty(t, th.Name, th.ID)
		assert.Contains(t, InjectExpression(th), StyleElementID, th.ID)
	}
	assert.Contains(t, RemoveExpression(), StyleElementID)
}

func TestScriptsCompile(t *testing.T) {
	t.Parallel()

	for _, th := range Default().Themes() {
		_, err := goja.Compile(th.ID, InjectExpression(th), true)
		assert.NoError(t, err, th.ID)
	}
	_, err := goja.Compile("remove", RemoveExpression(), true)
	assert.NoError(t, err)
}

func TestInjectThenRemove(t *testing.T) {
	t.Parallel()

	c := Default()
	inject, err := c.ScriptFor("nord", ModeInject)
	require.NoError(t, err)
	remove, err := c.ScriptFor("", ModeRemove)
	require.NoError(t, err)

	vm := newPage(t)
	assert.Equal(t, "injected", run(t, vm, inject))
	css := run(t, vm, `document.getElementById("`+StyleElementID+`").textContent`)
	nord, _ := c.Lookup("nord")
	assert.Equal(t, nord.CSS, css)

	// injecting twice reuses the element
	assert.Equal(t, "injected", run(t, vm, inject))
	assert.Equal(t, "1", run(t, vm, `String(Object.keys(elements).length)`))

	assert.Equal(t, "removed", run(t, vm, remove))
	assert.Equal(t, "not-found", run(t, vm, remove))
}

func TestRemoveWithoutInject(t *testing.T) {
	t.Parallel()

	vm := newPage(t)
	assert.Equal(t, "not-found", run(t, vm, RemoveExpression()))
}

func TestScriptForUnknownTheme(t *testing.T) {
	t.Parallel()

	_, err := Default().ScriptFor("solarized", ModeInject)
	assert.ErrorIs(t, err, ErrUnknownTheme)
	assert.EqualError(t, err, `unknown theme "solarized"`)
}

func TestCSSIsQuoted(t *testing.T) {
	t.Parallel()

	th := Theme{ID: "quotes", CSS: "body::after { content: \"'</style>\\\\\" }\n\u2028"}
	script := InjectExpression(th)
	assert.NotContains(t, script, "\u2028")

	vm := newPage(t)
	assert.Equal(t, "injected", run(t, vm, script))
	assert.Equal(t, th.CSS, run(t, vm, `document.getElementById("`+StyleElementID+`").textContent`))
}

func TestNewCatalogValidation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		theme Theme
		err   string
	}{
		{"no id", Theme{CSS: "a{}"}, "theme without an id"},
		{"no css", Theme{ID: "empty"}, `theme "empty" has no css`},
		{"builtin clash", Theme{ID: "nord", CSS: "a{}"}, `theme "nord" is defined more than once`},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewCatalog(tc.theme)
			assert.EqualError(t, err, tc.err)
		})
	}

	c, err := NewCatalog(Theme{ID: "solarized", CSS: "body{}"})
	require.NoError(t, err)
	th, ok := c.Lookup("solarized")
	require.True(t, ok)
	assert.Equal(t, "solarized", th.Name)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/themes.yaml", []byte(`themes:
  - id: solarized
    name: Solarized Dark
    css: |
      body { background: #002b36 !important; }
`), 0o644))

	themes, err := LoadFile(fs, "/themes.yaml")
	require.NoError(t, err)
	require.Len(t, themes, 1)
	assert.Equal(t, "solarized", themes[0].ID)
	assert.Equal(t, "Solarized Dark", themes[0].Name)
	assert.Equal(t, "body { background: #002b36 !important; }\n", themes[0].CSS)

	c, err := NewCatalog(themes...)
	require.NoError(t, err)
	script, err := c.ScriptFor("solarized", ModeInject)
	require.NoError(t, err)
	assert.Equal(t, InjectExpression(themes[0]), script)
	assert.Contains(t, script, `"body { background: #002b36 !important; }\n"`)

	require.NoError(t, afero.WriteFile(fs, "/empty.yaml", nil, 0o644))
	themes, err = LoadFile(fs, "/empty.yaml")
	require.NoError(t, err)
	assert.Empty(t, themes)

	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("themes:\n  - colour: red\n"), 0o644))
	_, err = LoadFile(fs, "/bad.yaml")
	assert.ErrorContains(t, err, "parsing themes file /bad.yaml")

	_, err = LoadFile(fs, "/missing.yaml")
	assert.ErrorContains(t, err, "reading themes file")
}
