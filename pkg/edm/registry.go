package edm

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Registry guarda as tabelas de mapeamento por nome de tipo, entity set e enum.
// Leituras concorrentes são seguras.
type Registry struct {
	mu       sync.RWMutex
	mapper   *EntityMapper
	entities map[string]*EntityType
	sets     map[string]*EntityType
	enums    map[string]*EnumType
}

// NewRegistry cria um registry vazio para o namespace informado
func NewRegistry(namespace string) *Registry {
	return &Registry{
		mapper:   NewEntityMapper(namespace),
		entities: make(map[string]*EntityType),
		sets:     make(map[string]*EntityType),
		enums:    make(map[string]*EnumType),
	}
}

// Namespace retorna o namespace do modelo
func (r *Registry) Namespace() string {
	return r.mapper.namespace
}

// RegisterEntity mapeia a struct e a expõe no entity set informado
func (r *Registry) RegisterEntity(entitySet string, entity interface{}) (*EntityType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sets[entitySet]; exists {
		return nil, fmt.Errorf("entity set %s already registered", entitySet)
	}

	et, err := r.mapper.MapEntity(entity)
	if err != nil {
		return nil, err
	}
	if len(et.Keys) == 0 {
		return nil, fmt.Errorf("entity %s has no primary key", et.Name)
	}

	et.EntitySet = entitySet
	r.sets[entitySet] = et

	// Tipos alcançados por relacionamentos também ficam disponíveis por nome
	for _, mapped := range r.mapper.types {
		r.entities[mapped.Name] = mapped
	}
	for _, enum := range r.mapper.enums {
		r.enums[enum.FullQualifiedName()] = enum
	}

	return et, nil
}

// MustRegisterEntity é como RegisterEntity mas entra em pânico em caso de erro
func (r *Registry) MustRegisterEntity(entitySet string, entity interface{}) *EntityType {
	et, err := r.RegisterEntity(entitySet, entity)
	if err != nil {
		panic(err)
	}
	return et
}

// RegisterEnum registra um enum que não é alcançado por nenhuma entidade
func (r *Registry) RegisterEnum(enum *EnumType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if enum.Namespace == "" {
		enum.Namespace = r.mapper.namespace
	}
	r.enums[enum.FullQualifiedName()] = enum
}

// EntityType busca uma entidade pelo nome do tipo
func (r *Registry) EntityType(name string) (*EntityType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	et, ok := r.entities[name]
	return et, ok
}

// EntityTypeOf busca a entidade mapeada a partir de um valor (struct ou ponteiro)
func (r *Registry) EntityTypeOf(entity interface{}) (*EntityType, bool) {
	t := reflect.TypeOf(entity)
	if t == nil {
		return nil, false
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, et := range r.entities {
		if et.GoType == t {
			return et, true
		}
	}
	return nil, false
}

// EntitySet busca uma entidade pelo nome do entity set
func (r *Registry) EntitySet(name string) (*EntityType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	et, ok := r.sets[name]
	return et, ok
}

// EnumType busca um enum pelo nome qualificado
func (r *Registry) EnumType(fqn string) (*EnumType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	enum, ok := r.enums[fqn]
	return enum, ok
}

// EntitySets retorna as entidades expostas, ordenadas pelo nome do entity set
func (r *Registry) EntitySets() []*EntityType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sets := make([]*EntityType, 0, len(r.sets))
	for _, et := range r.sets {
		sets = append(sets, et)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].EntitySet < sets[j].EntitySet })
	return sets
}

// EnumTypes retorna os enums registrados, ordenados pelo nome qualificado
func (r *Registry) EnumTypes() []*EnumType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	enums := make([]*EnumType, 0, len(r.enums))
	for _, e := range r.enums {
		enums = append(enums, e)
	}
	sort.Slice(enums, func(i, j int) bool { return enums[i].FullQualifiedName() < enums[j].FullQualifiedName() })
	return enums
}
