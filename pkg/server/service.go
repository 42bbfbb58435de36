package server

import (
	"context"
	"fmt"

	"github.com/kardianos/service"
)

// ServiceConfig identifica o serviço no gerenciador do sistema (Windows Service, systemd, launchd)
type ServiceConfig struct {
	Name        string
	DisplayName string
	Description string
	Arguments   []string
}

// ServiceWrapper implementa service.Interface para o servidor
type ServiceWrapper struct {
	server *Server
	cancel context.CancelFunc
	done   chan error
}

// NewService cria o serviço do sistema que executa o servidor
func NewService(s *Server, config ServiceConfig) (service.Service, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("service name is required")
	}

	wrapper := &ServiceWrapper{server: s}
	return service.New(wrapper, &service.Config{
		Name:        config.Name,
		DisplayName: config.DisplayName,
		Description: config.Description,
		Arguments:   config.Arguments,
	})
}

// Start é chamado pelo gerenciador de serviços e não deve bloquear
func (sw *ServiceWrapper) Start(svc service.Service) error {
	sw.server.logger.Printf("Iniciando serviço...")

	ctx, cancel := context.WithCancel(context.Background())
	sw.cancel = cancel
	sw.done = make(chan error, 1)

	go func() {
		defer func() {
			if panicValue := recover(); panicValue != nil {
				sw.server.logger.Printf("Erro crítico no serviço: %v", panicValue)
				sw.done <- fmt.Errorf("panic: %v", panicValue)
			}
		}()
		sw.done <- sw.server.StartWithContext(ctx)
	}()

	return nil
}

// Stop cancela o contexto do servidor e aguarda o encerramento
func (sw *ServiceWrapper) Stop(svc service.Service) error {
	sw.server.logger.Printf("Parando serviço...")

	if sw.cancel == nil {
		return nil
	}
	sw.cancel()

	if err := <-sw.done; err != nil {
		sw.server.logger.Printf("Erro ao parar servidor: %v", err)
		return err
	}

	sw.server.logger.Printf("Serviço parado com sucesso")
	return nil
}
