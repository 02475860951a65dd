package config

import "time"

// NewNarrativeForTest creates a Narrative config for testing purposes
func NewNarrativeForTest(projectID, location string, timeout time.Duration) *Narrative {
	return &Narrative{projectID: projectID, location: location, timeout: timeout}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewCatalogForTest creates a Catalog config for testing purposes
func NewCatalogForTest(catalogPath, thresholdsPath string) *Catalog {
	return &Catalog{catalogPath: catalogPath, thresholdsPath: thresholdsPath}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend string, fs Firestore) *Repository {
	return &Repository{backend: backend, firestore: fs}
}

// NewFirestoreForTest creates a Firestore config for testing purposes
func NewFirestoreForTest(projectID, databaseID, prefix string) Firestore {
	return Firestore{projectID: projectID, databaseID: databaseID, collectionPrefix: prefix}
}
