package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fitlcarlos/go-data-jpa/pkg/auth"
	"github.com/fitlcarlos/go-data-jpa/pkg/auth/basic"
	"github.com/fitlcarlos/go-data-jpa/pkg/config"
	"github.com/fitlcarlos/go-data-jpa/pkg/demo"
	"github.com/fitlcarlos/go-data-jpa/pkg/odata"
	"github.com/fitlcarlos/go-data-jpa/pkg/persistence"
	"github.com/fitlcarlos/go-data-jpa/pkg/providers"
	"github.com/fitlcarlos/go-data-jpa/pkg/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Inicia o servidor OData",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadEnvConfig(v)
		if err != nil {
			return err
		}

		srv, err := buildServer(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		return srv.StartWithContext(cmd.Context())
	},
}

func newLogger() *log.Logger {
	return log.New(os.Stdout, "[OData-JPA] ", log.LstdFlags|log.Lshortfile)
}

// buildServer conecta ao banco, prepara o esquema e registra os data sources
func buildServer(ctx context.Context, cfg *config.EnvConfig) (*server.Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger()

	if cfg.EnvFile != "" {
		logger.Printf("Configurações carregadas de %s", cfg.EnvFile)
	}

	provider, err := providers.NewProvider(cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	if pooled, ok := provider.(interface{ SetPoolConfig(providers.PoolConfig) }); ok {
		pooled.SetPoolConfig(providers.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
		})
	}
	if err := provider.Connect(cfg.DBConnectionString); err != nil {
		return nil, fmt.Errorf("erro ao conectar ao banco %s: %w", cfg.DBDriver, err)
	}
	logger.Printf("Conectado ao banco %s", provider.GetDriverName())

	registry, err := demo.NewRegistry()
	if err != nil {
		provider.Close()
		return nil, err
	}

	em, err := persistence.NewEntityManager(provider, registry, logger)
	if err != nil {
		provider.Close()
		return nil, err
	}
	em.SetLogSQL(cfg.LogSQL)

	if cfg.DBInitSchema {
		if err := demo.InitSchema(ctx, em, true); err != nil {
			provider.Close()
			return nil, fmt.Errorf("erro ao criar esquema: %w", err)
		}
		logger.Printf("Esquema de exemplo criado")
	}

	srv := server.NewServer(&server.ServerConfig{
		Host:            cfg.ServerHost,
		Port:            cfg.ServerPort,
		RoutePrefix:     cfg.ServerRoutePrefix,
		ShutdownTimeout: 30 * time.Second,
	}, registry, provider, logger)

	if cfg.AuthEnabled() {
		validator := basic.NewBcryptValidator(map[string]string{cfg.AuthUser: cfg.AuthPasswordHash}, auth.RoleReader, auth.RoleWriter)
		srv.SetBasicAuth(basic.NewBasicAuth(&basic.BasicAuthConfig{Realm: cfg.AuthRealm}, validator))
		logger.Printf("Basic Auth habilitado para escrita (usuário %s)", cfg.AuthUser)
	}

	provincias, err := demo.NewProvinciaDataSource(em, logger)
	if err != nil {
		provider.Close()
		return nil, err
	}
	formTypes, err := demo.NewFormTypeDataSource(em, logger)
	if err != nil {
		provider.Close()
		return nil, err
	}

	for _, source := range []odata.DataSource{provincias, formTypes} {
		if err := srv.RegisterDataSource(source); err != nil {
			provider.Close()
			return nil, err
		}
	}

	return srv, nil
}
