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

// Package cmd implements the themectl command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/codexthemes/themectl/cmd/state"
	"github.com/codexthemes/themectl/errext"
	"github.com/codexthemes/themectl/errext/exitcodes"
	"github.com/codexthemes/themectl/lib/consts"
	"github.com/codexthemes/themectl/log"
	"github.com/codexthemes/themectl/theme"
)

// Execute creates a new GlobalState and runs the root command with it. It is
// called by main.main().
func Execute() {
	gs := state.NewGlobalState(context.Background())

	newRootCommand(gs).execute()
}

// ExecuteWithGlobalState runs the root command with an existing GlobalState.
func ExecuteWithGlobalState(gs *state.GlobalState) {
	newRootCommand(gs).execute()
}

// This is to keep all fields needed for the main/root themectl command
type rootCommand struct {
	globalState *state.GlobalState

	cmd         *cobra.Command
	logger      *log.Logger
	newServices servicesFactory
}

func newRootCommand(gs *state.GlobalState) *rootCommand {
	c := &rootCommand{
		globalState: gs,
		newServices: newServices,
	}
	// the base command when called without any subcommands.
	rootCmd := &cobra.Command{
		Use:               gs.BinaryName,
		Short:             "Apply color themes to running Codex desktop instances",
		Long:              "\nInject and remove CSS themes in Codex windows through the Chrome DevTools Protocol.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.persistentPreRunE,
		Version:           consts.FullVersion(),
	}

	rootCmd.SetVersionTemplate(
		`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "v%s\n" .Version}}`,
	)

	rootCmd.PersistentFlags().AddFlagSet(rootCmdPersistentFlagSet(gs))
	rootCmd.PersistentFlags().AddFlagSet(configFlagSet())
	rootCmd.SetArgs(gs.CmdArgs[1:])
	rootCmd.SetOut(gs.Stdout)
	rootCmd.SetErr(gs.Stderr)
	rootCmd.SetIn(gs.Stdin)

	subCommands := []func(*rootCommand) *cobra.Command{
		getCmdApply, getCmdLaunch, getCmdRemove, getCmdScan, getCmdThemes, getCmdVersion,
	}
	for _, sc := range subCommands {
		rootCmd.AddCommand(sc(c))
	}

	c.cmd = rootCmd
	return c
}

func (c *rootCommand) persistentPreRunE(_ *cobra.Command, _ []string) error {
	if err := c.setupLoggers(); err != nil {
		return err
	}

	c.globalState.Logger.Debugf("themectl version: v%s", consts.FullVersion())
	return nil
}

func (c *rootCommand) execute() {
	ctx, cancel := context.WithCancel(c.globalState.Ctx)
	c.globalState.Ctx = ctx

	sigC := make(chan os.Signal, 1)
	c.globalState.SignalNotify(sigC, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigC:
			c.globalState.Logger.Debugf("stopping on signal %q", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	exitCode := -1
	defer func() {
		c.globalState.SignalStop(sigC)
		cancel()
		c.globalState.OSExit(exitCode)
	}()

	defer func() {
		if r := recover(); r != nil {
			exitCode = int(exitcodes.GoPanic)
			err := fmt.Errorf("unexpected themectl panic: %s\n%s", r, debug.Stack())
			c.globalState.Logger.Error(err)
		}
	}()

	err := c.cmd.ExecuteContext(ctx)
	if err == nil {
		exitCode = 0
		return
	}

	err = classify(err)
	exitCode = int(errext.ExitCodeOf(err))

	errText, fields := errext.Format(err)
	c.globalState.Logger.WithFields(fields).Error(errText)
}

func rootCmdPersistentFlagSet(gs *state.GlobalState) *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)

	// We need to use `gs.Flags.<value>` both as the destination and as
	// the value here, since the config values could have already been set by
	// their respective environment variables. However, we then also have to
	// explicitly set the DefValue to the respective default value from
	// `gs.DefaultFlags.<value>`, so that the `themectl --help` message is
	// not messed up...
	flags.StringVar(&gs.Flags.LogOutput, "log-output", gs.Flags.LogOutput,
		"change the output for themectl logs, possible values are: 'stderr', 'stdout', 'none'")
	flags.Lookup("log-output").DefValue = gs.DefaultFlags.LogOutput

	flags.StringVar(&gs.Flags.LogFormat, "log-format", gs.Flags.LogFormat,
		"log output format, possible values are: 'text', 'json', 'raw'")
	flags.Lookup("log-format").DefValue = gs.DefaultFlags.LogFormat

	flags.StringVar(&gs.Flags.LogCategories, "log-categories", gs.Flags.LogCategories,
		"only log the categories matching this regular expression, e.g. 'cdp:(send|recv)'")

	flags.StringVarP(&gs.Flags.ConfigFilePath, "config", "c", gs.Flags.ConfigFilePath, "JSON config file")
	// And we also need to explicitly set the default value for the usage message here, so things
	// like `THEMECTL_CONFIG="blah" themectl scan -h` don't produce a weird usage message
	flags.Lookup("config").DefValue = gs.DefaultFlags.ConfigFilePath
	must(cobra.MarkFlagFilename(flags, "config"))

	flags.BoolVar(&gs.Flags.NoColor, "no-color", gs.Flags.NoColor, "disable colored output")
	flags.Lookup("no-color").DefValue = strconv.FormatBool(gs.DefaultFlags.NoColor)

	flags.BoolVarP(&gs.Flags.Verbose, "verbose", "v", gs.Flags.Verbose, "enable verbose logging")
	flags.Lookup("verbose").DefValue = strconv.FormatBool(gs.DefaultFlags.Verbose)

	return flags
}

// RawFormatter it does nothing with the message just prints it
type RawFormatter struct{}

// Format renders a single log entry
func (f RawFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return append([]byte(entry.Message), '\n'), nil
}

func (c *rootCommand) setupLoggers() error {
	if c.globalState.Flags.Verbose {
		c.globalState.Logger.SetLevel(logrus.DebugLevel)
	}

	loggerForceColors := false // disable color by default
	switch line := c.globalState.Flags.LogOutput; line {
	case "stderr":
		loggerForceColors = !c.globalState.Flags.NoColor && c.globalState.Stderr.IsTTY
		c.globalState.Logger.SetOutput(c.globalState.Stderr)
	case "stdout":
		loggerForceColors = !c.globalState.Flags.NoColor && c.globalState.Stdout.IsTTY
		c.globalState.Logger.SetOutput(c.globalState.Stdout)
	case "none":
		c.globalState.Logger.SetOutput(io.Discard)
	default:
		return errext.WithExitCodeIfNone(fmt.Errorf("unsupported log output '%s'", line), exitcodes.InvalidConfig)
	}

	switch c.globalState.Flags.LogFormat {
	case "raw":
		c.globalState.Logger.SetFormatter(&RawFormatter{})
		c.globalState.Logger.Debug("Logger format: RAW")
	case "json":
		c.globalState.Logger.SetFormatter(&logrus.JSONFormatter{})
		c.globalState.Logger.Debug("Logger format: JSON")
	case "text", "":
		c.globalState.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors: loggerForceColors, DisableColors: c.globalState.Flags.NoColor,
		})
		c.globalState.Logger.Debug("Logger format: TEXT")
	default:
		return errext.WithExitCodeIfNone(
			fmt.Errorf("unsupported log format '%s'", c.globalState.Flags.LogFormat), exitcodes.InvalidConfig)
	}

	c.logger = log.New(c.globalState.Logger, nil)
	if err := c.logger.SetCategoryFilter(strings.TrimSpace(c.globalState.Flags.LogCategories)); err != nil {
		return errext.WithExitCodeIfNone(err, exitcodes.InvalidConfig)
	}
	return nil
}

// config returns the consolidated configuration for cmd.
func (c *rootCommand) config(cmd *cobra.Command) (Config, error) {
	return getConsolidatedConfig(c.globalState, getConfig(cmd.Flags()))
}

// setup loads the configuration and the theme catalog, and builds the
// services the command runs against.
func (c *rootCommand) setup(cmd *cobra.Command) (Config, *services, error) {
	conf, err := c.config(cmd)
	if err != nil {
		return Config{}, nil, err
	}
	catalog, err := loadCatalog(c.globalState, conf)
	if err != nil {
		return Config{}, nil, err
	}
	return conf, c.newServices(c.globalState, conf, c.logger, catalog), nil
}

func resolveTheme(catalog *theme.Catalog, id string) (theme.Theme, error) {
	t, ok := catalog.Lookup(id)
	if !ok {
		return theme.Theme{}, fmt.Errorf("%w %q", theme.ErrUnknownTheme, id)
	}
	return t, nil
}
