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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChainTrek/smart-wallet-contract/crypto"
	"github.com/ChainTrek/smart-wallet-contract/log"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new identity keypair",
	Long: `Generate a random identity keypair, the identity can be used as
the wallet owner, a guardian or a delegated spender.`,
	Run: func(cmd *cobra.Command, args []string) {
		identity, seed, err := crypto.GetIdentityKeypair()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("identity: %s\n", identity)
		fmt.Printf("seed: %s\n", seed)
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}
