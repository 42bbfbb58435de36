package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fitlcarlos/go-data-jpa/pkg/demo"
	"github.com/fitlcarlos/go-data-jpa/pkg/jpql"
	"github.com/fitlcarlos/go-data-jpa/pkg/odata"
	"github.com/fitlcarlos/go-data-jpa/pkg/persistence"
	"github.com/fitlcarlos/go-data-jpa/pkg/providers"
	"github.com/spf13/cobra"
)

var translateOptions struct {
	filter  string
	orderBy string
	expand  string
	dialect string
	top     int
	skip    int
	verbose bool
}

var translateCmd = &cobra.Command{
	Use:   "translate <entity-set>",
	Short: "Mostra a consulta JPQL (e o SQL do dialeto) gerada para as opções informadas",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTranslate(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

func init() {
	flags := translateCmd.Flags()
	flags.StringVar(&translateOptions.filter, "filter", "", "Expressão $filter")
	flags.StringVar(&translateOptions.orderBy, "orderby", "", "Expressão $orderby")
	flags.StringVar(&translateOptions.expand, "expand", "", "Expressão $expand")
	flags.StringVar(&translateOptions.dialect, "dialect", "", "Renderiza também o SQL para o dialeto: sqlite, mysql, postgresql ou oracle")
	flags.IntVar(&translateOptions.top, "top", 0, "Valor de $top usado no SQL")
	flags.IntVar(&translateOptions.skip, "skip", 0, "Valor de $skip usado no SQL")
	flags.BoolVarP(&translateOptions.verbose, "verbose", "v", false, "Registra as etapas da tradução no stderr")
}

func runTranslate(ctx context.Context, out io.Writer, entitySet string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	registry, err := demo.NewRegistry()
	if err != nil {
		return err
	}
	et, ok := registry.EntitySet(entitySet)
	if !ok {
		return fmt.Errorf("entity set desconhecido: %s", entitySet)
	}

	logger := log.New(io.Discard, "", 0)
	if translateOptions.verbose {
		logger = log.New(os.Stderr, "[JPQL] ", log.LstdFlags)
	}

	options, err := odata.ParseQueryOptions(ctx, translateOptions.filter, translateOptions.orderBy, translateOptions.expand)
	if err != nil {
		return err
	}

	query, err := jpql.NewQueryBuilder(jpql.NewTranslator(logger)).
		SetDistinct(true).
		SetEntityType(et).
		SetQueryOptions(options).
		Build(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, query.String())
	for _, name := range query.ParamNames() {
		fmt.Fprintf(out, "  :%s = %v\n", name, query.Params[name])
	}

	if translateOptions.dialect == "" {
		return nil
	}

	provider, err := providers.NewProvider(translateOptions.dialect)
	if err != nil {
		return err
	}
	stmt, err := persistence.Render(query, provider.GetDialect(), translateOptions.top, translateOptions.skip)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, stmt.SQL)
	for i, arg := range stmt.Args {
		fmt.Fprintf(out, "  [%d] %v\n", i+1, arg)
	}
	return nil
}
