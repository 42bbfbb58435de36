package main

import (
	"fmt"
	"strings"

	"github.com/fitlcarlos/go-data-jpa/pkg/auth/basic"
	"github.com/fitlcarlos/go-data-jpa/pkg/config"
	"github.com/fitlcarlos/go-data-jpa/pkg/server"
	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Gera o hash bcrypt usado em AUTH_PASSWORD_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := basic.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var serviceActions = []string{"install", "uninstall", "start", "stop", "restart", "run"}

var serviceCmd = &cobra.Command{
	Use:       "service <" + strings.Join(serviceActions, "|") + ">",
	Short:     "Gerencia o servidor como serviço do sistema (Windows Service, systemd, launchd)",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: serviceActions,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadEnvConfig(v)
		if err != nil {
			return err
		}

		action := args[0]
		svcConfig := server.ServiceConfig{
			Name:        cfg.ServiceName,
			DisplayName: cfg.ServiceDisplayName,
			Description: cfg.ServiceDescription,
			Arguments:   []string{"service", "run"},
		}

		if action != "run" {
			// o controle do serviço não precisa de banco
			svc, err := server.NewService(nil, svcConfig)
			if err != nil {
				return err
			}
			if err := service.Control(svc, action); err != nil {
				return fmt.Errorf("erro ao executar '%s' no serviço %s: %w", action, cfg.ServiceName, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serviço %s: %s executado com sucesso\n", cfg.ServiceName, action)
			return nil
		}

		srv, err := buildServer(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		svc, err := server.NewService(srv, svcConfig)
		if err != nil {
			return err
		}
		return svc.Run()
	},
}
