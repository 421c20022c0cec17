// Package models defines the gorm models of the canonical inventory store.
package models
