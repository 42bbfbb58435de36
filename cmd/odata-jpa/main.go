package main

import (
	"fmt"
	"os"

	"github.com/fitlcarlos/go-data-jpa/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var v *viper.Viper

var rootCmd = &cobra.Command{
	Use:   "odata-jpa",
	Short: "Servidor OData com tradução de $filter para JPQL",
	Long: `Servidor OData com tradução de $filter para JPQL.

Expõe os entity sets Provincias e FormTypes sobre SQLite, MySQL, PostgreSQL ou Oracle.
As configurações são lidas do .env mais próximo, do ambiente e das flags, nessa ordem
de precedência crescente.

Exemplos:
  odata-jpa serve --port 9090
  odata-jpa translate Provincias --filter "pais/nombre eq 'ARGENTINA'" --dialect oracle
  odata-jpa hash-password secret
  odata-jpa service install`,
	SilenceUsage: true,
}

func init() {
	v = config.NewViper()

	flags := rootCmd.PersistentFlags()
	flags.String("db-driver", "sqlite", "Driver do banco: sqlite, mysql, postgresql ou oracle (DB_DRIVER)")
	flags.String("db-connection", ":memory:", "String de conexão do banco (DB_CONNECTION_STRING)")
	flags.Bool("init-schema", true, "Cria as tabelas e os dados de exemplo ao iniciar (DB_INIT_SCHEMA)")
	flags.String("host", "localhost", "Host do servidor HTTP (SERVER_HOST)")
	flags.Int("port", 8080, "Porta do servidor HTTP (SERVER_PORT)")
	flags.String("prefix", "/odata", "Prefixo das rotas OData (SERVER_ROUTE_PREFIX)")
	flags.Bool("log-sql", false, "Registra cada comando SQL executado (LOG_SQL)")

	v.BindPFlag(config.KeyDBDriver, flags.Lookup("db-driver"))
	v.BindPFlag(config.KeyDBConnectionString, flags.Lookup("db-connection"))
	v.BindPFlag(config.KeyDBInitSchema, flags.Lookup("init-schema"))
	v.BindPFlag(config.KeyServerHost, flags.Lookup("host"))
	v.BindPFlag(config.KeyServerPort, flags.Lookup("port"))
	v.BindPFlag(config.KeyServerRoutePrefix, flags.Lookup("prefix"))
	v.BindPFlag(config.KeyLogSQL, flags.Lookup("log-sql"))

	rootCmd.AddCommand(serveCmd, translateCmd, hashPasswordCmd, serviceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
