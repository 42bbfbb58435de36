package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/fitlcarlos/go-data-jpa/pkg/edm"
	"github.com/fitlcarlos/go-data-jpa/pkg/odata"
	"github.com/gofiber/fiber/v3"
)

// ODataResponse representa o corpo das respostas de coleção
type ODataResponse struct {
	Context string      `json:"@odata.context"`
	Value   interface{} `json:"value"`
}

// ErrorResponse representa o corpo das respostas de erro
type ErrorResponse struct {
	Error *odata.ODataError `json:"error"`
}

// errorHandler trata erros que escapam dos handlers, como os do middleware de autenticação
func errorHandler(c fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := err.Error()

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status = fiberErr.Code
		message = fiberErr.Message
	}

	code, ok := statusCodes[status]
	if !ok {
		code = odata.CodeInternalError
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(status).JSON(ErrorResponse{
		Error: &odata.ODataError{Code: code, Message: message},
	})
}

var statusCodes = map[int]string{
	fiber.StatusBadRequest:       odata.CodeBadRequest,
	fiber.StatusUnauthorized:     "Unauthorized",
	fiber.StatusForbidden:        "Forbidden",
	fiber.StatusNotFound:         "NotFound",
	fiber.StatusMethodNotAllowed: "MethodNotAllowed",
}

func (s *Server) writeError(c fiber.Ctx, err error) error {
	appErr, ok := odata.AsApplicationError(err)
	if !ok {
		s.logger.Printf("Erro interno em %s %s: %v", c.Method(), c.Path(), err)
		appErr = odata.InternalError(err)
	} else if appErr.Status >= fiber.StatusInternalServerError {
		s.logger.Printf("Erro em %s %s: %v", c.Method(), c.Path(), err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr.ODataError()})
}

// handleHealth informa o estado do servidor e do banco
func (s *Server) handleHealth(c fiber.Ctx) error {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"entities":  len(s.sources.EntitySets()),
	}

	if s.provider != nil {
		if db := s.provider.GetConnection(); db != nil {
			if err := db.PingContext(c.Context()); err != nil {
				health["status"] = "degraded"
				health["database"] = "error"
				health["database_error"] = err.Error()
			} else {
				health["database"] = "healthy"
			}
		}
	}

	return c.JSON(health)
}

// handleServiceDocument lista os entity sets atendidos
func (s *Server) handleServiceDocument(c fiber.Ctx) error {
	sets := make([]map[string]string, 0)
	for _, name := range s.sources.EntitySets() {
		sets = append(sets, map[string]string{
			"name": name,
			"kind": "EntitySet",
			"url":  name,
		})
	}

	return c.JSON(ODataResponse{
		Context: s.config.RoutePrefix + "/$metadata",
		Value:   sets,
	})
}

// handleMetadata descreve o modelo em JSON
func (s *Server) handleMetadata(c fiber.Ctx) error {
	return c.JSON(buildMetadata(s.registry))
}

// handleEntityCollection atende GET e POST na coleção
func (s *Server) handleEntityCollection(c fiber.Ctx) error {
	source, err := s.sourceFor(c)
	if err != nil {
		return s.writeError(c, err)
	}

	switch c.Method() {
	case fiber.MethodGet:
		return s.handleGetCollection(c, source)
	case fiber.MethodPost:
		return s.handleCreateEntity(c, source)
	}
	return s.writeError(c, odata.NewApplicationError(fiber.StatusMethodNotAllowed, "MethodNotAllowed", "Method not allowed"))
}

// handleEntityByKey atende GET, PUT, PATCH e DELETE em uma entidade
func (s *Server) handleEntityByKey(c fiber.Ctx) error {
	source, err := s.sourceFor(c)
	if err != nil {
		return s.writeError(c, err)
	}

	keys, err := s.extractKeys(c, source)
	if err != nil {
		return s.writeError(c, err)
	}

	switch c.Method() {
	case fiber.MethodGet:
		return s.handleGetEntity(c, source, keys)
	case fiber.MethodPut, fiber.MethodPatch:
		return s.handleUpdateEntity(c, source, keys)
	case fiber.MethodDelete:
		return s.handleDeleteEntity(c, source, keys)
	}
	return s.writeError(c, odata.NewApplicationError(fiber.StatusMethodNotAllowed, "MethodNotAllowed", "Method not allowed"))
}

func (s *Server) handleGetCollection(c fiber.Ctx, source odata.DataSource) error {
	ctx := c.Context()

	options, err := odata.ParseQueryOptions(ctx, c.Query("$filter"), c.Query("$orderby"), c.Query("$expand"))
	if err != nil {
		return s.writeError(c, err)
	}
	if err := options.SetPaging(c.Query("$top"), c.Query("$skip")); err != nil {
		return s.writeError(c, err)
	}

	result, err := source.ReadAll(ctx, options)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(ODataResponse{
		Context: s.contextURL(source.EntitySet()),
		Value:   result,
	})
}

func (s *Server) handleGetEntity(c fiber.Ctx, source odata.DataSource, keys odata.KeyPredicates) error {
	ctx := c.Context()

	options, err := odata.ParseQueryOptions(ctx, "", "", c.Query("$expand"))
	if err != nil {
		return s.writeError(c, err)
	}

	entity, err := source.ReadFromKey(ctx, keys, options.Expand)
	if err != nil {
		return s.writeError(c, err)
	}
	if entity == nil {
		return s.writeError(c, odata.EntityNotFoundError(fmt.Sprintf("Entity not found in '%s'", source.EntitySet())))
	}

	return c.JSON(entity)
}

func (s *Server) handleCreateEntity(c fiber.Ctx, source odata.DataSource) error {
	entity := source.NewEntity()
	if err := json.Unmarshal(c.Body(), entity); err != nil {
		return s.writeError(c, odata.BadRequestErrorf("Invalid JSON: %v", err))
	}

	created, err := source.Create(c.Context(), entity)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (s *Server) handleUpdateEntity(c fiber.Ctx, source odata.DataSource, keys odata.KeyPredicates) error {
	body := c.Body()

	var properties map[string]json.RawMessage
	if err := json.Unmarshal(body, &properties); err != nil {
		return s.writeError(c, odata.BadRequestErrorf("Invalid JSON: %v", err))
	}

	entity := source.NewEntity()
	if err := json.Unmarshal(body, entity); err != nil {
		return s.writeError(c, odata.BadRequestErrorf("Invalid JSON: %v", err))
	}

	propertiesInJSON := make([]string, 0, len(properties))
	for name := range properties {
		propertiesInJSON = append(propertiesInJSON, name)
	}
	sort.Strings(propertiesInJSON)

	isPut := c.Method() == fiber.MethodPut
	updated, err := source.Update(c.Context(), keys, entity, propertiesInJSON, isPut)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(updated)
}

func (s *Server) handleDeleteEntity(c fiber.Ctx, source odata.DataSource, keys odata.KeyPredicates) error {
	if err := source.Delete(c.Context(), keys); err != nil {
		return s.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// sourceFor encontra o data source pelo primeiro segmento após o prefixo
func (s *Server) sourceFor(c fiber.Ctx) (odata.DataSource, error) {
	name := s.extractEntityName(c.Path())
	source, ok := s.sources.Get(name)
	if !ok {
		return nil, odata.EntityNotFoundError(fmt.Sprintf("Entity set '%s' not found", name))
	}
	return source, nil
}

func (s *Server) extractEntityName(path string) string {
	path = strings.TrimPrefix(path, s.config.RoutePrefix)
	path = strings.TrimPrefix(path, "/")
	if idx := strings.Index(path, "("); idx >= 0 {
		path = path[:idx]
	}
	if idx := strings.Index(path, "/"); idx >= 0 {
		path = path[:idx]
	}
	return path
}

// extractKeys interpreta o trecho "(...)" da URL
func (s *Server) extractKeys(c fiber.Ctx, source odata.DataSource) (odata.KeyPredicates, error) {
	path, err := url.PathUnescape(c.Path())
	if err != nil {
		return nil, odata.BadRequestErrorf("invalid path: %v", err)
	}

	start := strings.Index(path, "(")
	end := strings.LastIndex(path, ")")
	if start < 0 || end < start {
		return nil, odata.BadRequestError("missing key predicate")
	}

	et, ok := s.registry.EntitySet(source.EntitySet())
	if !ok {
		return nil, odata.InternalError(fmt.Errorf("entity set %s is not registered", source.EntitySet()))
	}
	return odata.ParseKeyPredicates(path[start:end+1], et)
}

func (s *Server) contextURL(entitySet string) string {
	return s.config.RoutePrefix + "/$metadata#" + entitySet
}

// MetadataProperty descreve uma propriedade no documento de metadados
type MetadataProperty struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Nullable  bool   `json:"nullable"`
	MaxLength int    `json:"maxLength,omitempty"`
	IsKey     bool   `json:"isKey,omitempty"`
	TreatedAs string `json:"treatedAs,omitempty"`
}

// MetadataNavigation descreve uma navegação no documento de metadados
type MetadataNavigation struct {
	Name       string `json:"name"`
	Target     string `json:"target"`
	Collection bool   `json:"collection"`
}

// MetadataEntityType descreve um entity type e seu entity set
type MetadataEntityType struct {
	Name        string               `json:"name"`
	EntitySet   string               `json:"entitySet"`
	Keys        []string             `json:"keys"`
	Properties  []MetadataProperty   `json:"properties"`
	Navigations []MetadataNavigation `json:"navigationProperties,omitempty"`
}

// MetadataEnumType descreve um tipo enum
type MetadataEnumType struct {
	Name    string         `json:"name"`
	Members map[string]int `json:"members"`
}

// Metadata é o documento JSON devolvido em $metadata
type Metadata struct {
	Namespace   string               `json:"namespace"`
	EntityTypes []MetadataEntityType `json:"entityTypes"`
	EnumTypes   []MetadataEnumType   `json:"enumTypes,omitempty"`
}

func buildMetadata(registry *edm.Registry) Metadata {
	metadata := Metadata{
		Namespace:   registry.Namespace(),
		EntityTypes: make([]MetadataEntityType, 0),
	}

	for _, et := range registry.EntitySets() {
		entity := MetadataEntityType{
			Name:       et.FullQualifiedName(),
			EntitySet:  et.EntitySet,
			Keys:       et.Keys,
			Properties: make([]MetadataProperty, 0, len(et.Properties)),
		}

		for _, prop := range et.Properties {
			mp := MetadataProperty{
				Name:      prop.Name,
				Type:      string(prop.Type),
				Nullable:  prop.Nullable,
				MaxLength: prop.MaxLength,
				IsKey:     prop.IsKey,
			}
			if prop.Enum != nil {
				mp.Type = prop.Enum.FullQualifiedName()
				mp.TreatedAs = prop.TreatedAs.String()
			}
			entity.Properties = append(entity.Properties, mp)
		}

		for _, nav := range et.Navigations {
			entity.Navigations = append(entity.Navigations, MetadataNavigation{
				Name:       nav.Name,
				Target:     nav.Target.FullQualifiedName(),
				Collection: nav.Collection,
			})
		}

		metadata.EntityTypes = append(metadata.EntityTypes, entity)
	}

	for _, enum := range registry.EnumTypes() {
		members := make(map[string]int, len(enum.Members))
		for _, m := range enum.Members {
			members[m.Name] = m.Value
		}
		metadata.EnumTypes = append(metadata.EnumTypes, MetadataEnumType{
			Name:    enum.FullQualifiedName(),
			Members: members,
		})
	}

	return metadata
}
