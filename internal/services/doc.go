// Package services hosts clients for external collaborators (the local
// ollama model server) and the shared error taxonomy that pipeline
// components use to classify failures.
package services
