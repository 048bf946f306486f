/*
 * Nuts node
 * Copyright (C) 2021 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/nuts-foundation/nuts-wallet/http"
	httpCmd "github.com/nuts-foundation/nuts-wallet/http/cmd"
	"github.com/nuts-foundation/nuts-wallet/storage"
	storageCmd "github.com/nuts-foundation/nuts-wallet/storage/cmd"
	"github.com/nuts-foundation/nuts-wallet/vcr"
	vcrCmd "github.com/nuts-foundation/nuts-wallet/vcr/cmd"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var stdOutWriter io.Writer = os.Stdout

func createRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "nuts-wallet",
		Short: "Nuts wallet executable, which runs the wallet backend and its administrative commands.",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
		SilenceUsage: true,
	}
}

func createPrintConfigCommand(system *core.System) *cobra.Command {
	command := &cobra.Command{
		Use:   "config",
		Short: "Prints the current config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := system.Load(cmd.Flags()); err != nil {
				return err
			}
			cmd.Println("Current system config")
			cmd.Println(system.Config.PrintConfig())
			return nil
		},
	}
	command.Flags().AddFlagSet(serverConfigFlags())
	return command
}

func createServerCommand(system *core.System) *cobra.Command {
	command := &cobra.Command{
		Use:   "server",
		Short: "Starts the wallet backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := system.Load(cmd.Flags()); err != nil {
				return err
			}
			return startServer(cmd.Context(), system)
		},
	}
	command.Flags().AddFlagSet(serverConfigFlags())
	return command
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the version of the executable",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Print(core.BuildInfo())
		},
	}
}

func startServer(ctx context.Context, system *core.System) error {
	logrus.Info("Starting server with config:")
	logrus.Info(system.Config.PrintConfig())

	// check config on all engines
	if err := system.Configure(); err != nil {
		return err
	}

	// register HTTP routes of the engines on the HTTP engine
	var router core.EchoRouter
	system.VisitEngines(func(engine core.Engine) {
		if httpEngine, ok := engine.(*http.Engine); ok {
			router = httpEngine.Router()
		}
	})
	if router == nil {
		return errors.New("no HTTP engine registered")
	}
	system.Routes(router)

	// start engines
	if err := system.Start(); err != nil {
		return err
	}
	logrus.Infof("Wallet backend started (version=%s)", core.Version())

	// block until the process is told to stop, or the HTTP server stopped unexpectedly
	<-ctx.Done()
	logrus.Info("Shutting down...")
	if err := system.Shutdown(); err != nil {
		logrus.WithError(err).Error("Error shutting down system")
		return err
	}
	logrus.Info("Shutdown complete. Goodbye!")
	return nil
}

// CreateCommand creates the command with all subcommands to run the system.
func CreateCommand(system *core.System) *cobra.Command {
	command := createRootCommand()
	command.SetOut(stdOutWriter)
	addSubCommands(system, command)
	return command
}

// CreateSystem creates the system and registers all default engines.
// shutdownCallback is called when the HTTP server stops unexpectedly.
func CreateSystem(shutdownCallback context.CancelFunc) *core.System {
	system := core.NewSystem()
	// Create instances
	metricsInstance := core.NewMetricsEngine()
	storageInstance := storage.New()
	httpServerInstance := http.New(shutdownCallback)
	vcrInstance := vcr.NewVCRInstance(storageInstance, httpServerInstance)

	// Register engines
	// the order of registration is the order of configuration and startup: dependencies go first
	system.RegisterEngine(metricsInstance)
	system.RegisterEngine(storageInstance)
	system.RegisterEngine(httpServerInstance)
	system.RegisterEngine(vcrInstance)
	return system
}

// Execute executes the root command. The server stops when the given context is cancelled.
func Execute(ctx context.Context, system *core.System) error {
	command := CreateCommand(system)
	return command.ExecuteContext(ctx)
}

func addSubCommands(system *core.System, root *cobra.Command) {
	root.AddCommand(createServerCommand(system))
	root.AddCommand(createPrintConfigCommand(system))
	root.AddCommand(createVersionCommand())
	root.AddCommand(httpCmd.ServerCmd())
	root.AddCommand(vcrCmd.Cmd())
}

// serverConfigFlags returns the flags of the server and all engines.
func serverConfigFlags() *pflag.FlagSet {
	set := pflag.NewFlagSet("server", pflag.ContinueOnError)
	set.AddFlagSet(core.FlagSet())
	set.AddFlagSet(storageCmd.FlagSet())
	set.AddFlagSet(httpCmd.FlagSet())
	set.AddFlagSet(vcrCmd.FlagSet())
	return set
}
