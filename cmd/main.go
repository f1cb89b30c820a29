/*
Copyright 2025 SafeSend Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/safesendhq/safesend"
	"github.com/safesendhq/safesend/config"
	"github.com/safesendhq/safesend/database"
	"github.com/safesendhq/safesend/internal/notification"
)

// SafeSendCLI wraps the root cobra command.
type SafeSendCLI struct {
	cmd *cobra.Command
}

// safesendInstance holds the runtime service and its configuration, shared
// by every subcommand.
type safesendInstance struct {
	safesend *safesend.SafeSend
	cnf      *config.Configuration
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads configuration and initializes the service before any
// subcommand executes.
func preRun(app *safesendInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("safesend.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		service, err := setupSafeSend(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.safesend = service
		app.cnf = cnf

		return nil
	}
}

func setupSafeSend(cfg *config.Configuration) (*safesend.SafeSend, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	service, err := safesend.NewSafeSend(db)
	if err != nil {
		return nil, fmt.Errorf("error creating safesend: %v", err)
	}
	return service, nil
}

// NewCLI builds the command tree: start, workers and migrate.
func NewCLI() *SafeSendCLI {
	var configFile string
	b := &safesendInstance{}

	var rootCmd = &cobra.Command{
		Use:   "safesend",
		Short: "PYUSD escrow service",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./safesend.json", "Configuration file for safesend")

	rootCmd.PersistentPreRunE = preRun(b)

	rootCmd.AddCommand(serverCommands(b))
	rootCmd.AddCommand(workerCommands(b))
	rootCmd.AddCommand(migrateCommands(b))

	return &SafeSendCLI{cmd: rootCmd}
}

func (w SafeSendCLI) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
