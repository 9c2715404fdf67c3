package config

import (
	"fmt"
)

// FirebaseConfig defines the Google project backing the store and the
// push transport.
type FirebaseConfig struct {
	// ProjectID is the Firebase project identifier.
	ProjectID string `json:"project_id"`
	// CredentialsFile points to a service account key. Empty means
	// application default credentials.
	CredentialsFile string `json:"credentials_file"`
}

// Validate checks mandatory fields.
func (c FirebaseConfig) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("project_id is required")
	}
	return nil
}
