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
// Command rap is a client for ActivityPub servers.
//
//	rap actor --id https://mastodon.example/users/alice
//	rap keygen
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	rap "github.com/rap-project/rap-go"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rap",
		Short:         "ActivityPub client",
		Version:       rap.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newActorCmd(), newKeygenCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
