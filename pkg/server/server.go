package server

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fitlcarlos/go-data-jpa/pkg/auth"
	"github.com/fitlcarlos/go-data-jpa/pkg/auth/basic"
	"github.com/fitlcarlos/go-data-jpa/pkg/edm"
	"github.com/fitlcarlos/go-data-jpa/pkg/odata"
	"github.com/fitlcarlos/go-data-jpa/pkg/providers"
	"github.com/gofiber/fiber/v3"
)

// ServerConfig representa as configurações do servidor
type ServerConfig struct {
	Host            string
	Port            int
	RoutePrefix     string
	ShutdownTimeout time.Duration
}

// DefaultServerConfig retorna uma configuração padrão
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:            "localhost",
		Port:            8080,
		RoutePrefix:     "/odata",
		ShutdownTimeout: 30 * time.Second,
	}
}

// Server expõe os data sources registrados em rotas HTTP
type Server struct {
	router    *fiber.App
	config    *ServerConfig
	registry  *edm.Registry
	sources   *odata.DataSources
	provider  providers.DatabaseProvider
	basicAuth *basic.BasicAuth
	logger    *log.Logger
	mu        sync.RWMutex
	running   bool
}

// NewServer cria o servidor; as rotas das entidades são criadas em RegisterDataSource
func NewServer(config *ServerConfig, registry *edm.Registry, provider providers.DatabaseProvider, logger *log.Logger) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	if logger == nil {
		logger = log.New(os.Stdout, "[OData-JPA] ", log.LstdFlags|log.Lshortfile)
	}

	s := &Server{
		router: fiber.New(fiber.Config{
			AppName:      "OData JPA Server",
			ErrorHandler: errorHandler,
		}),
		config:   config,
		registry: registry,
		sources:  odata.NewDataSources(),
		provider: provider,
		logger:   logger,
	}

	s.setupBaseRoutes()
	return s
}

// SetBasicAuth exige Basic Auth com a role writer nas operações de escrita.
// Deve ser chamado antes de RegisterDataSource.
func (s *Server) SetBasicAuth(basicAuth *basic.BasicAuth) {
	s.basicAuth = basicAuth
}

func (s *Server) setupBaseRoutes() {
	prefix := s.config.RoutePrefix

	s.router.Get(prefix+"/$metadata", s.handleMetadata)
	s.router.Get(prefix+"/", s.handleServiceDocument)
	s.router.Get("/health", s.handleHealth)
}

// RegisterDataSource registra o data source e cria as rotas do seu entity set
func (s *Server) RegisterDataSource(source odata.DataSource) error {
	if _, ok := s.registry.EntitySet(source.EntitySet()); !ok {
		return fmt.Errorf("entity set %s is not registered in the model", source.EntitySet())
	}
	if err := s.sources.Register(source); err != nil {
		return err
	}

	s.setupEntityRoutes(source.EntitySet())
	return nil
}

func (s *Server) setupEntityRoutes(entitySet string) {
	prefix := s.config.RoutePrefix
	collection := prefix + "/" + entitySet
	single := collection + "(*)"

	s.router.Get(collection, s.handleEntityCollection)
	s.router.Get(single, s.handleEntityByKey)

	if s.basicAuth == nil {
		s.router.Post(collection, s.handleEntityCollection)
		s.router.Put(single, s.handleEntityByKey)
		s.router.Patch(single, s.handleEntityByKey)
		s.router.Delete(single, s.handleEntityByKey)
		return
	}

	// escrita exige credenciais e a role writer.
	// Fiber v3: handler primeiro, middlewares depois (executados antes do handler)
	authenticate := basic.BasicAuthMiddleware(s.basicAuth)
	writer := auth.RequireRole(auth.RoleWriter)

	s.router.Post(collection, s.handleEntityCollection, authenticate, writer)
	s.router.Put(single, s.handleEntityByKey, authenticate, writer)
	s.router.Patch(single, s.handleEntityByKey, authenticate, writer)
	s.router.Delete(single, s.handleEntityByKey, authenticate, writer)
}

// Start inicia o servidor HTTP
func (s *Server) Start() error {
	return s.StartWithContext(context.Background())
}

// StartWithContext inicia o servidor e o encerra quando ctx termina ou um sinal chega
func (s *Server) StartWithContext(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("servidor já está rodando")
	}
	s.running = true
	s.mu.Unlock()

	addr := s.GetAddress()
	s.logger.Printf("Servidor OData iniciado em http://%s%s", addr, s.config.RoutePrefix)
	for _, name := range s.sources.EntitySets() {
		s.logger.Printf("   - %s", name)
	}

	go s.setupGracefulShutdown(ctx)

	return s.router.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

func (s *Server) setupGracefulShutdown(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Printf("Contexto cancelado, parando servidor...")
	case sig := <-sigChan:
		s.logger.Printf("Sinal recebido: %v, parando servidor...", sig)
	}

	if err := s.Shutdown(); err != nil {
		s.logger.Printf("Erro durante shutdown: %v", err)
	}
}

// Shutdown para o servidor e fecha o provider
func (s *Server) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return fmt.Errorf("servidor não está rodando")
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.router.ShutdownWithContext(ctx); err != nil {
		return err
	}

	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			s.logger.Printf("Erro ao fechar provider: %v", err)
		}
	}

	s.running = false
	s.logger.Printf("Servidor parado com sucesso")
	return nil
}

// IsRunning verifica se o servidor está rodando
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// GetRouter retorna o app Fiber
func (s *Server) GetRouter() *fiber.App {
	return s.router
}

// GetAddress retorna host:porta
func (s *Server) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
