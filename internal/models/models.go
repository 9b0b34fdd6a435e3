// Package models defines the domain types shared across nbshell.
package models

// NotebookRecord is one flat entry of the upstream notebook listing.
type NotebookRecord struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	CategoryName string `json:"categoryName"`
}

// Ticket is the opaque credential issued by the notebook server.
type Ticket struct {
	Value         string `json:"ticket"`
	Authenticated bool   `json:"authenticated"`
}
