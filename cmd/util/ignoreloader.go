package util

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pgdeclare/pgdeclare/ir"
)

// IgnoreFileName is the default name of the ignore file.
const IgnoreFileName = ".pgschemaignore"

// LoadIgnoreFile loads the .pgschemaignore file from the current directory.
// Returns nil if the file doesn't exist (ignore functionality is optional).
func LoadIgnoreFile() (*ir.IgnoreConfig, error) {
	return LoadIgnoreFileFromPath(IgnoreFileName)
}

// LoadIgnoreFileFromPath loads an ignore file from the specified path.
// Returns nil if the file doesn't exist (ignore functionality is optional).
func LoadIgnoreFileFromPath(filePath string) (*ir.IgnoreConfig, error) {
	return LoadIgnoreFileWithStructureFromPath(filePath)
}

// ignoreTomlConfig represents the on-disk TOML structure of the ignore file,
// one [kind] table with a `patterns` array per object kind.
type ignoreTomlConfig struct {
	Tables     patternSection `toml:"tables,omitempty"`
	Views      patternSection `toml:"views,omitempty"`
	Functions  patternSection `toml:"functions,omitempty"`
	Procedures patternSection `toml:"procedures,omitempty"`
	Types      patternSection `toml:"types,omitempty"`
	Sequences  patternSection `toml:"sequences,omitempty"`
}

type patternSection struct {
	Patterns []string `toml:"patterns,omitempty"`
}

// LoadIgnoreFileWithStructure loads the .pgschemaignore file using the
// structured TOML format and converts it to ir.IgnoreConfig.
func LoadIgnoreFileWithStructure() (*ir.IgnoreConfig, error) {
	return LoadIgnoreFileWithStructureFromPath(IgnoreFileName)
}

// LoadIgnoreFileWithStructureFromPath loads an ignore file from the given path.
func LoadIgnoreFileWithStructureFromPath(filePath string) (*ir.IgnoreConfig, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var tomlConfig ignoreTomlConfig
	if _, err := toml.DecodeFile(filePath, &tomlConfig); err != nil {
		return nil, err
	}

	return &ir.IgnoreConfig{
		Tables:     tomlConfig.Tables.Patterns,
		Views:      tomlConfig.Views.Patterns,
		Functions:  tomlConfig.Functions.Patterns,
		Procedures: tomlConfig.Procedures.Patterns,
		Types:      tomlConfig.Types.Patterns,
		Sequences:  tomlConfig.Sequences.Patterns,
	}, nil
}
