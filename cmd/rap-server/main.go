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
// Command rap-server serves local ActivityPub actors and authenticates
// signed deliveries to their inboxes.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	rap "github.com/rap-project/rap-go"
	"github.com/rap-project/rap-go/internal/config"
	"github.com/rap-project/rap-go/internal/logging"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "rap-server",
		Short:        "ActivityPub server with HTTP Signature authentication",
		Version:      rap.Version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromFlags(cmd.Flags())
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.serve(ctx)
		},
	}
	config.BindFlags(cmd.Flags())
	return cmd
}

func main() {
	gin.SetMode(gin.ReleaseMode)
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
