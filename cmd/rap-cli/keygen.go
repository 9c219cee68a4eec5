// Copyright (C) 2025 RAP Project
//
// This file is part of rap-go.
//
// rap-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// rap-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with rap-go.  If not, see <https://www.gnu.org/licenses/>.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rap-project/rap-go/pkg/keys"
)

func newKeygenCmd() *cobra.Command {
	var private bool
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an RSA key pair and print the public key PEM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			priv, err := keys.GenerateKey()
			if err != nil {
				return fmt.Errorf("failed to generate key: %w", err)
			}

			out := cmd.OutOrStdout()
			if private {
				privPEM, err := keys.EncodePrivateKeyPEM(priv)
				if err != nil {
					return err
				}
				fmt.Fprint(out, privPEM)
			}

			pubPEM, err := keys.EncodePublicKeyPEM(&priv.PublicKey)
			if err != nil {
				return err
			}
			fmt.Fprint(out, pubPEM)
			return nil
		},
	}
	cmd.Flags().BoolVar(&private, "private", false, "also print the PKCS#8 private key")
	return cmd
}
