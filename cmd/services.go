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

package cmd

import (
	"fmt"
	"net/http"

	"github.com/codexthemes/themectl/cdp"
	"github.com/codexthemes/themectl/cmd/state"
	"github.com/codexthemes/themectl/controller"
	"github.com/codexthemes/themectl/errext"
	"github.com/codexthemes/themectl/errext/exitcodes"
	"github.com/codexthemes/themectl/launcher"
	"github.com/codexthemes/themectl/log"
	"github.com/codexthemes/themectl/process"
	"github.com/codexthemes/themectl/theme"
)

// services are the components a command runs against.
type services struct {
	catalog    *theme.Catalog
	controller *controller.Controller
}

type servicesFactory func(gs *state.GlobalState, conf Config, logger *log.Logger, catalog *theme.Catalog) *services

func newServices(_ *state.GlobalState, conf Config, logger *log.Logger, catalog *theme.Catalog) *services {
	timeout := conf.RequestTimeout.TimeDuration()
	client := &http.Client{Timeout: timeout}

	injector := cdp.NewInjector(client, catalog, conf.WaitPolicy(), logger)
	dialer := cdp.NewDialer()
	dialer.HandshakeTimeout = timeout
	injector.Evaluator = &cdp.RuntimeEvaluator{Dialer: dialer, Logger: logger}

	return &services{
		catalog: catalog,
		controller: controller.New(
			process.NewScanner(conf.BinaryPath.String, logger),
			injector,
			launcher.New(conf.AppPath.String, conf.BinaryPath.String, logger),
			logger,
		),
	}
}

// loadCatalog returns the builtin themes plus the ones of the themes file.
func loadCatalog(gs *state.GlobalState, conf Config) (*theme.Catalog, error) {
	var extra []theme.Theme
	if conf.ThemesFile.String != "" {
		var err error
		if extra, err = theme.LoadFile(gs.FS, conf.ThemesFile.String); err != nil {
			return nil, errext.WithExitCodeIfNone(err, exitcodes.InvalidConfig)
		}
	}
	catalog, err := theme.NewCatalog(extra...)
	if err != nil {
		return nil, errext.WithExitCodeIfNone(
			fmt.Errorf("themes file %q: %w", conf.ThemesFile.String, err), exitcodes.InvalidConfig)
	}
	if _, ok := catalog.Lookup(conf.DefaultTheme.String); !ok {
		return nil, errext.WithExitCodeIfNone(
			errext.WithHint(
				fmt.Errorf("defaultTheme: %w %q", theme.ErrUnknownTheme, conf.DefaultTheme.String),
				themesHint,
			),
			exitcodes.InvalidConfig)
	}
	return catalog, nil
}
