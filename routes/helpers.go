package routes

import (
	"document-rag-platform/internal/config"
)

// resolveNames applies the configured defaults when a request leaves
// database or collection blank.
func resolveNames(cfg *config.Config, database, collection string) (string, string) {
	if database == "" {
		database = cfg.DBName
	}
	if collection == "" {
		collection = cfg.Collection
	}
	return database, collection
}
