package demo

import (
	"context"
	"fmt"
	"strings"

	"github.com/fitlcarlos/go-data-jpa/pkg/persistence"
)

// Schema cria as tabelas do modelo de exemplo
const Schema = `
CREATE TABLE IF NOT EXISTS paises (
	id INTEGER NOT NULL PRIMARY KEY,
	nombre VARCHAR(100) NOT NULL,
	prefijo INTEGER
);
CREATE TABLE IF NOT EXISTS provincias (
	id INTEGER NOT NULL,
	pais_id INTEGER NOT NULL REFERENCES paises(id),
	nombre VARCHAR(100),
	PRIMARY KEY (pais_id, id)
);
CREATE TABLE IF NOT EXISTS form_types (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name VARCHAR(50) NOT NULL,
	status VARCHAR(20) NOT NULL,
	created VARCHAR(10)
)`

// SeedData carrega paises e provincias iniciais
const SeedData = `
INSERT INTO paises (id, nombre, prefijo) VALUES (1, 'ARGENTINA', 54), (2, 'CHILE', 56), (3, 'URUGUAY', 598);
INSERT INTO provincias (id, pais_id, nombre) VALUES
	(1, 1, 'BUENOS AIRES'),
	(2, 1, 'CORDOBA'),
	(3, 1, 'MENDOZA'),
	(4, 1, 'SANTA FE'),
	(1, 2, 'SANTIAGO'),
	(2, 2, 'VALPARAISO'),
	(1, 3, 'MONTEVIDEO');
INSERT INTO form_types (name, status, created) VALUES
	('ALTA', 'ACTIVE', '2017-03-01'),
	('BAJA', 'INACTIVE', '2017-03-01'),
	('MODIFICACION', 'DRAFT', '2018-06-15')`

// InitSchema cria as tabelas e, com seed, carrega os dados iniciais
func InitSchema(ctx context.Context, em *persistence.EntityManager, seed bool) error {
	scripts := []string{Schema}
	if seed {
		scripts = append(scripts, SeedData)
	}

	return em.Transaction(ctx, func(tx *persistence.EntityManager) error {
		for _, script := range scripts {
			for _, stmt := range strings.Split(script, ";") {
				stmt = strings.TrimSpace(stmt)
				if stmt == "" {
					continue
				}
				if err := tx.Exec(ctx, stmt); err != nil {
					return fmt.Errorf("failed to execute %q: %w", firstLine(stmt), err)
				}
			}
		}
		return nil
	})
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
