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

const darculaCSS = `:root, html, body, #root {
  color-scheme: dark !important;
  background: #2b2b2b !important;
  color: #a9b7c6 !important;
}
* { border-color: #4e5254 !important; }
main, section, article, aside, header, footer, nav, div[data-panel], [data-theme="dark"] {
  background-color: #2b2b2b !important;
  color: #a9b7c6 !important;
}
aside, nav, [data-sidebar], [role="complementary"] { background-color: #3c3f41 !important; }
button, input, textarea, select, [role="button"] {
  background-color: #3c3f41 !important;
  color: #a9b7c6 !important;
  border-color: #5c6164 !important;
}
button:hover, [role="button"]:hover { background-color: #4b5052 !important; }
a { color: #589df6 !important; }
a:hover { color: #73b1ff !important; }
pre, code { background-color: #313335 !important; color: #a9b7c6 !important; }
::selection { background: #214283 !important; color: #dfe6ee !important; }
::-webkit-scrollbar-thumb { background: #5c6164 !important; border-radius: 8px !important; }
::-webkit-scrollbar-track { background: #2b2b2b !important; }
`

const draculaCSS = `:root, html, body, #root {
  color-scheme: dark !important;
  background: #282a36 !important;
  color: #f8f8f2 !important;
}
* { border-color: #44475a !important; }
main, section, article, aside, header, footer, nav, div[data-panel], [data-theme="dark"] {
  background-color: #282a36 !important;
  color: #f8f8f2 !important;
}
aside, nav, [data-sidebar], [role="complementary"] { background-color: #21222c !important; }
button, input, textarea, select, [role="button"] {
  background-color: #44475a !important;
  color: #f8f8f2 !important;
  border-color: #6272a4 !important;
}
button:hover, [role="button"]:hover { background-color: #505674 !important; }
a { color: #8be9fd !important; }
a:hover { color: #50fa7b !important; }
pre, code { background-color: #21222c !important; color: #f8f8f2 !important; }
::selection { background: #44475a !important; color: #f8f8f2 !important; }
::-webkit-scrollbar-thumb { background: #6272a4 !important; border-radius: 8px !important; }
::-webkit-scrollbar-track { background: #282a36 !important; }
`

const nordCSS = `:root, html, body, #root {
  color-scheme: dark !important;
  background: #2e3440 !important;
  color: #d8dee9 !important;
}
* { border-color: #4c566a !important; }
main, section, article, aside, header, footer, nav, div[data-panel], [data-theme="dark"] {
  background-color: #2e3440 !important;
  color: #d8dee9 !important;
}
aside, nav, [data-sidebar], [role="complementary"] { background-color: #3b4252 !important; }
button, input, textarea, select, [role="button"] {
  background-color: #3b4252 !important;
  color: #d8dee9 !important;
  border-color: #4c566a !important;
}
button:hover, [role="button"]:hover { background-color: #434c5e !important; }
a { color: #88c0d0 !important; }
a:hover { color: #8fbcbb !important; }
pre, code { background-color: #3b4252 !important; color: #e5e9f0 !important; }
::selection { background: #5e81ac !important; color: #eceff4 !important; }
::-webkit-scrollbar-thumb { background: #4c566a !important; border-radius: 8px !important; }
::-webkit-scrollbar-track { background: #2e3440 !important; }
`

const monokaiCSS = `:root, html, body, #root {
  color-scheme: dark !important;
  background: #272822 !important;
  color: #f8f8f2 !important;
}
* { border-color: #49483e !important; }
main, section, article, aside, header, footer, nav, div[data-panel], [data-theme="dark"] {
  background-color: #272822 !important;
  color: #f8f8f2 !important;
}
aside, nav, [data-sidebar], [role="complementary"] { background-color: #1e1f1c !important; }
button, input, textarea, select, [role="button"] {
  background-color: #3e3d32 !important;
  color: #f8f8f2 !important;
  border-color: #75715e !important;
}
button:hover, [role="button"]:hover { background-color: #4a493e !important; }
a { color: #66d9ef !important; }
a:hover { color: #a6e22e !important; }
pre, code { background-color: #1e1f1c !important; color: #f8f8f2 !important; }
::selection { background: #75715e !important; color: #f8f8f2 !important; }
::-webkit-scrollbar-thumb { background: #75715e !important; border-radius: 8px !important; }
::-webkit-scrollbar-track { background: #272822 !important; }
`

// Builtin returns the themes shipped with themectl. The first one is the
// default.
func Builtin() []Theme {
	return []Theme{
		{ID: "darcula", Name: "Darcula", CSS: darculaCSS},
		{ID: "dracula", Name: "Dracula", CSS: draculaCSS},
		{ID: "nord", Name: "Nord", CSS: nordCSS},
		{ID: "monokai", Name: "Monokai", CSS: monokaiCSS},
	}
}
