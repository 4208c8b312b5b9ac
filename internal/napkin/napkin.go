// Package napkin holds what is specific to the napkin tool: where its files
// live, the schema of the context file and the user configuration.
package napkin

import (
	"path/filepath"

	"github.com/calvinalkan/napkin/internal/document"
	"github.com/calvinalkan/napkin/internal/guard"
)

// Version is written into new context files.
const Version = "0.1.0"

// File and directory names inside the napkin home.
const (
	ContextFileName = "context.yml"
	ScratchDirName  = "tmp"
	ScratchSuffix   = ".yml"
)

// ContextFields are the required keys of the context file, checked in order.
var ContextFields = []document.Field{
	{Key: "version", Kind: document.ValueString},
	{Key: "napkins", Kind: document.ValueList},
}

// Skeleton returns the content of a new context file.
func Skeleton() string {
	return "---\nversion: \"" + Version + "\"\nnapkins: [ ]\n...\n"
}

// Paths locates napkin's files under a home directory.
type Paths struct {
	Home string
}

// ContextPath returns <home>/context.yml.
func (p Paths) ContextPath() string {
	return filepath.Join(p.Home, ContextFileName)
}

// LockPath returns the lock marker guarding the context file.
func (p Paths) LockPath() string {
	return guard.MarkerPath(p.ContextPath())
}

// ScratchDir returns the directory holding scratch files.
func (p Paths) ScratchDir() string {
	return filepath.Join(p.Home, ScratchDirName)
}
