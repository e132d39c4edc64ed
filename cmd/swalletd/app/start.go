// Copyright 2024 The smart-wallet-contract Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ChainTrek/smart-wallet-contract/log"
	"github.com/ChainTrek/smart-wallet-contract/wallet"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the wallet with config",
	Long: `Start a custodial smart wallet with the specified configuration,
the program will recover the persisted ownership record, guardian registry
and allowance table from a previously used database file.`,
	Run: func(cmd *cobra.Command, args []string) {
		// read in config file
		if cfgFile == "" {
			log.Fatal(errors.New("config file not provided"))
		}
		v := viper.New()
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			log.Fatal(err)
		}
		// init wallet config from viper
		c, err := wallet.NewConfig(v)
		if err != nil {
			log.Fatal(err)
		}
		// bootstrap the wallet
		w := wallet.NewWallet(c, nil)

		// log every audit event until shutdown
		events := w.Events()
		go func() {
			for ev := range events {
				log.Infow("audit event",
					"id", ev.ID,
					"type", ev.Type,
					"identity", ev.Identity,
					"candidate", ev.Candidate,
					"recipient", ev.Recipient,
					"amount", ev.Amount,
				)
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down the wallet")
		if err := w.Close(); err != nil {
			log.Fatal(err)
		}
	},
}

var cfgFile string

func init() {
	startCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "wallet config file")
	startCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(startCmd)
}
